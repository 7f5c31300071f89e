package repository

import (
	"github.com/eldarmv/listora/app/models"
)

// PlanRepository defines the interface for plan-catalog database operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	ListActiveByRole(role string) ([]models.Plan, error)
	List(offset, limit int) ([]models.Plan, error)
	Update(plan *models.Plan) error
	Delete(id uint) error
	CountActiveSubscriptions(planID uint) (int64, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// SubscriptionRepository defines the admin-facing subscription operations
type SubscriptionRepository interface {
	GetByID(id uint) (*models.Subscription, error)
	ListByUser(userID uint) ([]models.Subscription, error)
	Save(sub *models.Subscription) error
	Aggregate() ([]SubscriptionAggregate, error)
}

// ListingRepository defines the read operations the billing core needs on listings
type ListingRepository interface {
	GetByID(id uint) (*models.Listing, error)
}

// SettingRepository defines access to the key/value system settings
type SettingRepository interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// SubscriptionAggregate is one row of the admin analytics aggregation
type SubscriptionAggregate struct {
	PlanID   uint   `json:"plan_id"`
	PlanName string `json:"plan_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Count    int64  `json:"count"`
}

// Repositories bundles all repository implementations
type Repositories struct {
	Plan         PlanRepository
	User         UserRepository
	Subscription SubscriptionRepository
	Listing      ListingRepository
	Setting      SettingRepository
}
