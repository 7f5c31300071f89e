package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription is the per-(user, role) entitlement row. At most one row per
// (user_id, role) may have status=active at any instant; the repository
// enforces this by replacing inside a transaction under a per-key lock.
// A subscription reaches exactly one terminal state and is never resurrected.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_subscriptions_user_role,priority:1" json:"user_id"`
	PlanID       uint      `gorm:"not null;index" json:"plan_id"`
	Plan         *Plan     `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Role         string    `gorm:"type:varchar(20);not null;index:idx_subscriptions_user_role,priority:2" json:"role"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null;index" json:"end_date"`
	AutoRenew    bool      `gorm:"default:false" json:"auto_renew"`
	ListingsUsed int       `gorm:"not null;default:0" json:"listings_used"`
	FeaturedUsed int       `gorm:"not null;default:0" json:"featured_used"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the subscription is active and not yet past its end date
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.EndDate)
}

// IsStale reports whether the row still says active although the end date passed
func (s *Subscription) IsStale(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !now.Before(s.EndDate)
}
