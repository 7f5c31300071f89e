package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PlanNameFree     = "free"
	PlanNameStandard = "standard"
	PlanNamePremium  = "premium"

	BillingPeriodMonthly = "monthly"
	BillingPeriodYearly  = "yearly"
)

// Plan is the reference-data record for a purchasable entitlement tier.
// Price is stored in minor units (cents) and never retroactively changes
// subscriptions that already reference the plan.
type Plan struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Name                  string    `gorm:"type:varchar(50);not null;index" json:"name" validate:"required,oneof=free standard premium"`
	Price                 int64     `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Currency              string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency" validate:"len=3"`
	BillingPeriod         string    `gorm:"type:varchar(16);not null" json:"billing_period" validate:"required,oneof=monthly yearly"`
	DurationDays          int       `gorm:"not null" json:"duration_days" validate:"gt=0"`
	MaxListings           int       `gorm:"not null;default:0" json:"max_listings" validate:"gte=0"`
	FeaturedListingsCount int       `gorm:"not null;default:0" json:"featured_listings_count" validate:"gte=0"`
	BoostedVisibility     bool      `gorm:"default:false" json:"boosted_visibility"`
	PrioritySupport       bool      `gorm:"default:false" json:"priority_support"`
	Role                  string    `gorm:"type:varchar(20);not null;index" json:"role" validate:"required,oneof=landlord seller both"`
	IsActive              bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// Normalize enforces catalog rules that inputs cannot override. The free
// tier is free regardless of what the request carried.
func (p *Plan) Normalize() {
	if p.Name == PlanNameFree {
		p.Price = 0
	}
}

// IsFree reports whether activating this plan requires no payment
func (p *Plan) IsFree() bool {
	return p.Price == 0
}

// AllowsRole reports whether the plan's eligible-role set includes role
func (p *Plan) AllowsRole(role string) bool {
	return p.Role == RoleBoth || p.Role == role
}

// Duration returns the entitlement duration as a time.Duration
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
