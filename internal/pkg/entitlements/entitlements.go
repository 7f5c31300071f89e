package entitlements

import (
	"github.com/eldarmv/listora/app/models"
)

// FeaturedQuota returns how many concurrently featured listings a plan
// allows. Zero means unlimited.
func FeaturedQuota(plan *models.Plan) int {
	if plan == nil {
		return 0
	}
	return plan.FeaturedListingsCount
}

// CanBoost reports whether a plan grants boosted placement.
func CanBoost(plan *models.Plan) bool {
	return plan != nil && plan.BoostedVisibility
}

// HasPrioritySupport reports whether a plan grants priority support.
func HasPrioritySupport(plan *models.Plan) bool {
	return plan != nil && plan.PrioritySupport
}

// ListingQuota returns the plan's listing cap. Zero means unlimited.
func ListingQuota(plan *models.Plan) int {
	if plan == nil {
		return 0
	}
	return plan.MaxListings
}
