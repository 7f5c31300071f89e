package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleLandlord = "landlord"
	RoleSeller   = "seller"
	RoleBoth     = "both"

	STATUS_ACTIVE    = "active"
	STATUS_SUSPENDED = "suspended"
	STATUS_BANNED    = "banned"

	VERIFICATION_PENDING  = "pending"
	VERIFICATION_APPROVED = "approved"
	VERIFICATION_REJECTED = "rejected"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	IsLandlord         bool           `gorm:"default:false" json:"is_landlord"`
	IsSeller           bool           `gorm:"default:false" json:"is_seller"`
	IsAdmin            bool           `gorm:"default:false" json:"is_admin"`
	Status             string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active suspended banned"`
	VerificationStatus string         `gorm:"type:varchar(50);default:'pending'" json:"verification_status" validate:"oneof=pending approved rejected"`
	APIKeyHash         string         `gorm:"type:varchar(64);index" json:"-"`
	LastLoginAt        *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:               username,
		Email:              email,
		Password:           pw,
		Status:             STATUS_ACTIVE,
		VerificationStatus: VERIFICATION_PENDING,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsActive reports whether the user account is neither suspended nor banned
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsVerified reports whether the user's seller/landlord verification is approved
func (u *User) IsVerified() bool {
	return u.VerificationStatus == VERIFICATION_APPROVED
}

// HasRole reports whether the user holds the given marketplace role
func (u *User) HasRole(role string) bool {
	switch role {
	case RoleLandlord:
		return u.IsLandlord
	case RoleSeller:
		return u.IsSeller
	default:
		return false
	}
}

// GenerateAPIKey creates a new API key, stores its hash and returns the plaintext once
func (u *User) GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	key := hex.EncodeToString(b)
	u.APIKeyHash = HashAPIKey(key)
	return key, nil
}

// HashAPIKey returns the storage hash for an API key
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IsValidRole reports whether role names one of the marketplace roles
func IsValidRole(role string) bool {
	return role == RoleLandlord || role == RoleSeller
}

// RoleForItemType maps a promotable item type to the role that owns it
func RoleForItemType(itemType string) (string, bool) {
	switch itemType {
	case ItemTypeProperty:
		return RoleLandlord, true
	case ItemTypeProduct:
		return RoleSeller, true
	default:
		return "", false
	}
}
