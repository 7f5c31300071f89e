package models

import (
	"time"
)

// Role kill-switch keys. When set to "true" the matching role can no longer
// purchase or activate plans; existing entitlements keep running.
const (
	SettingKeyLandlordDisabled = "billing.landlord_disabled"
	SettingKeySellerDisabled   = "billing.seller_disabled"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null;default:'string'" json:"type"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleDisabledKey returns the kill-switch setting key for a role, or "" for
// unknown roles.
func RoleDisabledKey(role string) string {
	switch role {
	case RoleLandlord:
		return SettingKeyLandlordDisabled
	case RoleSeller:
		return SettingKeySellerDisabled
	default:
		return ""
	}
}
