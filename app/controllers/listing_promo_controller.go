package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eldarmv/listora/internal/pkg/database"
	"github.com/eldarmv/listora/internal/pkg/entitlements"
	"github.com/eldarmv/listora/internal/pkg/usercontext"
)

type promoRequest struct {
	ListingID    uint   `json:"listing_id"`
	ItemType     string `json:"item_type"`
	DurationDays int    `json:"duration_days"`
}

// HandleFeatureListing places one of the caller's listings in the featured tier.
func HandleFeatureListing(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	enforcer := entitlements.NewEnforcerFromDB(database.GetDB())
	fl, err := enforcer.FeatureListing(c.Context(), userID, req.ListingID, req.ItemType, req.DurationDays)
	if err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(fiber.Map{"featured_listing": fl})
}

// HandleBoostListing raises one of the caller's listings to boosted placement.
func HandleBoostListing(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	enforcer := entitlements.NewEnforcerFromDB(database.GetDB())
	fl, err := enforcer.BoostListing(c.Context(), userID, req.ListingID, req.ItemType, req.DurationDays)
	if err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(fiber.Map{"featured_listing": fl})
}
