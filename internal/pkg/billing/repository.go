package billing

import (
	"time"

	"github.com/eldarmv/listora/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	GetPlanByID(id uint) (*models.Plan, error)
	GetSettingValue(key string) (string, error)

	CreatePaymentRecord(rec *models.PaymentRecord) error
	GetPaymentRecordByIntentID(intentID string) (*models.PaymentRecord, error)
	// MarkPaymentSucceeded flips pending -> succeeded as a single
	// compare-and-set; it reports false when the record was already terminal.
	MarkPaymentSucceeded(intentID string, at time.Time) (bool, error)
	MarkPaymentFailed(intentID string, reason string, at time.Time) (bool, error)

	GetActiveSubscription(userID uint, role string) (*models.Subscription, error)
	// ReplaceActiveSubscription cancels the current active row for
	// (sub.UserID, sub.Role) and inserts sub, all in one transaction.
	ReplaceActiveSubscription(sub *models.Subscription) error
	CancelActiveSubscription(userID uint, role string) (bool, error)
	SaveSubscription(sub *models.Subscription) error
	// MarkSubscriptionExpired flips active -> expired as a compare-and-set;
	// false means another writer got there first.
	MarkSubscriptionExpired(id uint) (bool, error)
	ListExpiredActive(now time.Time) ([]models.Subscription, error)
	ListExpiringSoon(now time.Time, window time.Duration) ([]models.Subscription, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetPlanByID(id uint) (*models.Plan, error) {
	var p models.Plan
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetSettingValue(key string) (string, error) {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (r *gormRepository) CreatePaymentRecord(rec *models.PaymentRecord) error {
	return r.db.Create(rec).Error
}

func (r *gormRepository) GetPaymentRecordByIntentID(intentID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := r.db.Where("intent_id = ?", intentID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) MarkPaymentSucceeded(intentID string, at time.Time) (bool, error) {
	tx := r.db.Model(&models.PaymentRecord{}).
		Where("intent_id = ? AND status = ?", intentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":       models.PaymentStatusSucceeded,
			"processed_at": &at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkPaymentFailed(intentID string, reason string, at time.Time) (bool, error) {
	tx := r.db.Model(&models.PaymentRecord{}).
		Where("intent_id = ? AND status = ?", intentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
			"processed_at":   &at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetActiveSubscription(userID uint, role string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND role = ? AND status = ?", userID, role, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ReplaceActiveSubscription(sub *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND role = ? AND status = ?", sub.UserID, sub.Role, models.SubscriptionStatusActive).
			Update("status", models.SubscriptionStatusCancelled).Error; err != nil {
			return err
		}
		return tx.Create(sub).Error
	})
}

func (r *gormRepository) CancelActiveSubscription(userID uint, role string) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("user_id = ? AND role = ? AND status = ?", userID, role, models.SubscriptionStatusActive).
		Update("status", models.SubscriptionStatusCancelled)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) MarkSubscriptionExpired(id uint) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionStatusActive).
		Update("status", models.SubscriptionStatusExpired)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) ListExpiredActive(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ? AND end_date <= ?", models.SubscriptionStatusActive, now).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListExpiringSoon(now time.Time, window time.Duration) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status = ? AND auto_renew = ? AND end_date > ? AND end_date <= ?",
			models.SubscriptionStatusActive, true, now, now.Add(window)).
		Find(&subs).Error
	return subs, err
}
