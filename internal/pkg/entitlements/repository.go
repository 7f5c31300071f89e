package entitlements

import (
	"errors"
	"time"

	"github.com/eldarmv/listora/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuotaExceeded is returned by CreateFeaturedWithQuota when the
// subscription already uses its full featured allowance.
var ErrQuotaExceeded = errors.New("featured listing quota exceeded")

// Repository provides DB operations used by the enforcer.
type Repository interface {
	GetListingByID(id uint) (*models.Listing, error)
	GetActiveSubscription(userID uint, role string) (*models.Subscription, error)
	GetActiveFeatured(itemType string, itemID uint, now time.Time) (*models.FeaturedListing, error)
	// CreateFeaturedWithQuota counts the owner's live featured rows and
	// inserts fl inside one transaction with the subscription row locked,
	// closing the check-then-create race. limit <= 0 means unlimited.
	CreateFeaturedWithQuota(fl *models.FeaturedListing, subscriptionID uint, limit int, now time.Time) error
	CreateFeatured(fl *models.FeaturedListing) error
	SaveFeatured(fl *models.FeaturedListing) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an entitlements repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetListingByID(id uint) (*models.Listing, error) {
	var l models.Listing
	if err := r.db.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
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

func (r *gormRepository) GetActiveFeatured(itemType string, itemID uint, now time.Time) (*models.FeaturedListing, error) {
	var fl models.FeaturedListing
	err := r.db.
		Where("item_type = ? AND item_id = ? AND end_date > ?", itemType, itemID, now).
		Order("end_date DESC").
		First(&fl).Error
	if err != nil {
		return nil, err
	}
	return &fl, nil
}

func (r *gormRepository) CreateFeaturedWithQuota(fl *models.FeaturedListing, subscriptionID uint, limit int, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the subscription row so concurrent feature requests for the
		// same seller serialize on the count.
		var sub models.Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sub, subscriptionID).Error; err != nil {
			return err
		}

		if limit > 0 {
			var count int64
			if err := tx.Model(&models.FeaturedListing{}).
				Where("owner_id = ? AND item_type = ? AND is_boosted = ? AND end_date > ?",
					fl.OwnerID, fl.ItemType, false, now).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(limit) {
				return ErrQuotaExceeded
			}
		}

		if err := tx.Create(fl).Error; err != nil {
			return err
		}

		return tx.Model(&models.Subscription{}).
			Where("id = ?", sub.ID).
			Update("featured_used", gorm.Expr("featured_used + 1")).Error
	})
}

func (r *gormRepository) CreateFeatured(fl *models.FeaturedListing) error {
	return r.db.Create(fl).Error
}

func (r *gormRepository) SaveFeatured(fl *models.FeaturedListing) error {
	return r.db.Save(fl).Error
}
