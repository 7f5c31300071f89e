package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/eldarmv/listora/app/models"
	"github.com/eldarmv/listora/app/repository"
)

type planRequest struct {
	Name                  string `json:"name"`
	Price                 int64  `json:"price"`
	Currency              string `json:"currency"`
	BillingPeriod         string `json:"billing_period"`
	DurationDays          int    `json:"duration_days"`
	MaxListings           int    `json:"max_listings"`
	FeaturedListingsCount int    `json:"featured_listings_count"`
	BoostedVisibility     bool   `json:"boosted_visibility"`
	PrioritySupport       bool   `json:"priority_support"`
	Role                  string `json:"role"`
	IsActive              *bool  `json:"is_active"`
}

type subscriptionOverrideRequest struct {
	Status    *string    `json:"status"`
	AutoRenew *bool      `json:"auto_renew"`
	EndDate   *time.Time `json:"end_date"`
}

// HandleAdminCreatePlan creates a catalog plan.
func HandleAdminCreatePlan(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	plan := planFromRequest(&req)
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().Create(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	invalidatePlanCache()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

// HandleAdminUpdatePlan edits a catalog plan. Price edits never touch
// subscriptions that already reference the plan.
func HandleAdminUpdatePlan(c *fiber.Ctx) error {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_plan_id"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	applyPlanRequest(plan, &req)
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Update(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	invalidatePlanCache()
	return c.JSON(fiber.Map{"plan": plan})
}

// HandleAdminDeletePlan removes a plan unless live subscriptions still
// reference it; those require deactivating the plan instead.
func HandleAdminDeletePlan(c *fiber.Ctx) error {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_plan_id"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	if _, err := repo.GetByID(planID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	active, err := repo.CountActiveSubscriptions(planID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	if active > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "plan_in_use",
			"message": "plan has active subscriptions; deactivate it instead",
		})
	}

	if err := repo.Delete(planID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	invalidatePlanCache()
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminOverrideSubscription edits a subscription's status, auto-renew
// flag or end date directly.
func HandleAdminOverrideSubscription(c *fiber.Ctx) error {
	subID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_subscription_id"})
	}

	repo := repository.GetGlobalFactory().GetSubscriptionRepository()
	sub, err := repo.GetByID(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "subscription_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	var req subscriptionOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		switch status {
		case models.SubscriptionStatusActive, models.SubscriptionStatusExpired, models.SubscriptionStatusCancelled:
			sub.Status = status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_status"})
		}
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}
	if req.EndDate != nil {
		sub.EndDate = *req.EndDate
	}

	if err := repo.Save(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleAdminSubscriptionAnalytics aggregates subscription counts by plan,
// role and status.
func HandleAdminSubscriptionAnalytics(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetSubscriptionRepository().Aggregate()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"analytics": rows})
}

func planFromRequest(req *planRequest) *models.Plan {
	plan := &models.Plan{
		Name:                  strings.ToLower(strings.TrimSpace(req.Name)),
		Price:                 req.Price,
		Currency:              strings.ToUpper(strings.TrimSpace(req.Currency)),
		BillingPeriod:         strings.ToLower(strings.TrimSpace(req.BillingPeriod)),
		DurationDays:          req.DurationDays,
		MaxListings:           req.MaxListings,
		FeaturedListingsCount: req.FeaturedListingsCount,
		BoostedVisibility:     req.BoostedVisibility,
		PrioritySupport:       req.PrioritySupport,
		Role:                  strings.ToLower(strings.TrimSpace(req.Role)),
		IsActive:              true,
	}
	if plan.Currency == "" {
		plan.Currency = "EUR"
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	return plan
}

func applyPlanRequest(plan *models.Plan, req *planRequest) {
	if strings.TrimSpace(req.Name) != "" {
		plan.Name = strings.ToLower(strings.TrimSpace(req.Name))
	}
	if strings.TrimSpace(req.Currency) != "" {
		plan.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	}
	if strings.TrimSpace(req.BillingPeriod) != "" {
		plan.BillingPeriod = strings.ToLower(strings.TrimSpace(req.BillingPeriod))
	}
	if strings.TrimSpace(req.Role) != "" {
		plan.Role = strings.ToLower(strings.TrimSpace(req.Role))
	}
	if req.DurationDays > 0 {
		plan.DurationDays = req.DurationDays
	}
	plan.Price = req.Price
	plan.MaxListings = req.MaxListings
	plan.FeaturedListingsCount = req.FeaturedListingsCount
	plan.BoostedVisibility = req.BoostedVisibility
	plan.PrioritySupport = req.PrioritySupport
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id parameter")
	}
	return uint(id), nil
}
