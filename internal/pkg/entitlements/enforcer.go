package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eldarmv/listora/app/models"
	"github.com/eldarmv/listora/internal/pkg/billing"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Denial codes specific to promotion enforcement.
const (
	CodeInvalidItemType = "invalid_item_type"
	CodeListingNotFound = "listing_not_found"
	CodeNotOwner        = "not_owner"
	CodeItemMismatch    = "item_type_mismatch"
	CodeNoSubscription  = "no_active_subscription"
	CodeQuotaExceeded   = "quota_exceeded"
	CodeAlreadyFeatured = "already_featured"
	CodeBoostNotAllowed = "boost_not_allowed"
	CodeInvalidDuration = "invalid_duration"
)

// Enforcer authorizes and executes feature/boost operations against the
// subscription ledger and the featured-listing records.
type Enforcer struct {
	repo      Repository
	notify    billing.NotificationPort
	analytics billing.AnalyticsPort

	now func() time.Time
}

// NewEnforcer creates an enforcer from injected collaborators.
func NewEnforcer(repo Repository, notify billing.NotificationPort, analytics billing.AnalyticsPort) *Enforcer {
	return &Enforcer{
		repo:      repo,
		notify:    notify,
		analytics: analytics,
		now:       time.Now,
	}
}

// NewEnforcerFromDB creates an enforcer with the default production wiring.
func NewEnforcerFromDB(db *gorm.DB) *Enforcer {
	return NewEnforcer(NewRepository(db), billing.NewDBNotificationPort(db), billing.NewRedisAnalyticsPort())
}

// SetNowFunc overrides the enforcer clock (used by tests).
func (e *Enforcer) SetNowFunc(now func() time.Time) {
	e.now = now
}

// FeatureListing places a listing in the featured tier for durationDays.
// Requires an active subscription for the item's role and free quota; an
// item already featured must be boosted instead.
func (e *Enforcer) FeatureListing(ctx context.Context, userID, itemID uint, itemType string, durationDays int) (*models.FeaturedListing, error) {
	_ = ctx
	now := e.now()

	sub, listing, err := e.authorize(userID, itemID, itemType, durationDays, now)
	if err != nil {
		return nil, err
	}

	if existing, err := e.repo.GetActiveFeatured(itemType, itemID, now); err == nil && existing != nil {
		return nil, billing.NewError(billing.KindConflict, CodeAlreadyFeatured, "item is already featured; boost it instead")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fl := &models.FeaturedListing{
		ItemType:      itemType,
		ItemID:        itemID,
		OwnerID:       userID,
		StartDate:     now,
		EndDate:       now.Add(time.Duration(durationDays) * 24 * time.Hour),
		PriorityScore: models.FeaturedPriorityScore,
		IsBoosted:     false,
	}

	limit := FeaturedQuota(sub.Plan)
	if err := e.repo.CreateFeaturedWithQuota(fl, sub.ID, limit, now); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, billing.NewError(billing.KindConflict, CodeQuotaExceeded,
				fmt.Sprintf("featured listing quota of %d reached", limit))
		}
		return nil, err
	}

	e.trackBestEffort(billing.EventListingFeatured, userID)
	e.notifyBestEffort(userID, models.NotificationTypePromotion,
		fmt.Sprintf("Your listing %q is now featured.", listing.Title), fl.ID)
	return fl, nil
}

// BoostListing raises a listing to boosted placement. An already-featured
// item is upgraded in place; otherwise a fresh boosted record is created.
// Boost does not consume the featured quota.
func (e *Enforcer) BoostListing(ctx context.Context, userID, itemID uint, itemType string, durationDays int) (*models.FeaturedListing, error) {
	_ = ctx
	now := e.now()

	sub, listing, err := e.authorize(userID, itemID, itemType, durationDays, now)
	if err != nil {
		return nil, err
	}
	if !CanBoost(sub.Plan) {
		return nil, billing.NewError(billing.KindEligibility, CodeBoostNotAllowed, "current plan does not include boosted visibility")
	}

	existing, err := e.repo.GetActiveFeatured(itemType, itemID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var fl *models.FeaturedListing
	if existing != nil {
		existing.IsBoosted = true
		existing.PriorityScore = models.BoostedPriorityScore
		if newEnd := now.Add(time.Duration(durationDays) * 24 * time.Hour); newEnd.After(existing.EndDate) {
			existing.EndDate = newEnd
		}
		if err := e.repo.SaveFeatured(existing); err != nil {
			return nil, err
		}
		fl = existing
	} else {
		fl = &models.FeaturedListing{
			ItemType:      itemType,
			ItemID:        itemID,
			OwnerID:       userID,
			StartDate:     now,
			EndDate:       now.Add(time.Duration(durationDays) * 24 * time.Hour),
			PriorityScore: models.BoostedPriorityScore,
			IsBoosted:     true,
		}
		if err := e.repo.CreateFeatured(fl); err != nil {
			return nil, err
		}
	}

	e.trackBestEffort(billing.EventListingBoosted, userID)
	e.notifyBestEffort(userID, models.NotificationTypePromotion,
		fmt.Sprintf("Your listing %q is now boosted.", listing.Title), fl.ID)
	return fl, nil
}

// authorize runs the checks shared by feature and boost: a valid item type,
// a live subscription for the implied role, and an owned, published listing.
func (e *Enforcer) authorize(userID, itemID uint, itemType string, durationDays int, now time.Time) (*models.Subscription, *models.Listing, error) {
	role, ok := models.RoleForItemType(itemType)
	if !ok {
		return nil, nil, billing.NewError(billing.KindValidation, CodeInvalidItemType, "unknown item type")
	}
	if durationDays <= 0 {
		return nil, nil, billing.NewError(billing.KindValidation, CodeInvalidDuration, "duration must be positive")
	}

	sub, err := e.repo.GetActiveSubscription(userID, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, billing.NewError(billing.KindEligibility, CodeNoSubscription, "no active subscription for this role")
		}
		return nil, nil, err
	}
	if !sub.IsActive(now) {
		return nil, nil, billing.NewError(billing.KindEligibility, CodeNoSubscription, "subscription has expired")
	}

	listing, err := e.repo.GetListingByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, billing.NewError(billing.KindNotFound, CodeListingNotFound, "listing not found")
		}
		return nil, nil, err
	}
	if listing.OwnerID != userID {
		return nil, nil, billing.NewError(billing.KindEligibility, CodeNotOwner, "listing belongs to another user")
	}
	if listing.ItemType != itemType {
		return nil, nil, billing.NewError(billing.KindValidation, CodeItemMismatch, "item type does not match the listing")
	}

	return sub, listing, nil
}

func (e *Enforcer) trackBestEffort(event string, userID uint) {
	if e.analytics == nil {
		return
	}
	if err := e.analytics.Track(event, userID); err != nil {
		log.Warnf("[Entitlements] analytics track %s failed: %v", event, err)
	}
}

func (e *Enforcer) notifyBestEffort(userID uint, notificationType, content string, referenceID uint) {
	if e.notify == nil {
		return
	}
	if err := e.notify.Notify(userID, notificationType, content, referenceID); err != nil {
		log.Warnf("[Entitlements] notification to user %d failed: %v", userID, err)
	}
}
