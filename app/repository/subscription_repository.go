package repository

import (
	"github.com/eldarmv/listora/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) Aggregate() ([]SubscriptionAggregate, error) {
	var rows []SubscriptionAggregate
	err := r.db.Model(&models.Subscription{}).
		Select("subscriptions.plan_id AS plan_id, plans.name AS plan_name, subscriptions.role AS role, subscriptions.status AS status, COUNT(*) AS count").
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Group("subscriptions.plan_id, plans.name, subscriptions.role, subscriptions.status").
		Order("plans.name, subscriptions.role, subscriptions.status").
		Scan(&rows).Error
	return rows, err
}
