package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eldarmv/listora/internal/pkg/billing"
	"github.com/eldarmv/listora/internal/pkg/database"
	"github.com/eldarmv/listora/internal/pkg/usercontext"
)

const intentTimeout = 20 * time.Second

type subscribeRequest struct {
	PlanID uint   `json:"plan_id"`
	Role   string `json:"role"`
}

type cancelRequest struct {
	Role string `json:"role"`
}

// HandleCreateIntent validates eligibility and opens a payment intent, or
// signals that the plan is free and should go through the subscribe endpoint.
func HandleCreateIntent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()

	result, err := svc.CreateIntent(ctx, userID, req.PlanID, req.Role)
	if err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(result)
}

// HandleSubscribe activates a free plan synchronously. Paid plans are
// rejected with requires_payment; they activate only via the webhook.
func HandleSubscribe(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	sub, err := svc.ActivateFreePlan(c.Context(), userID, req.PlanID, req.Role)
	if err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleCancelSubscription cancels the caller's active subscription for a role.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req cancelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	if err := svc.Cancel(c.Context(), userID, req.Role); err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMySubscription returns the caller's current subscription for a role,
// or null. Stale rows are expired and persisted on the way out.
func HandleMySubscription(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	svc := billing.NewServiceFromDB(database.GetDB())
	sub, err := svc.CurrentSubscription(c.Context(), userID, c.Query("role"))
	if err != nil {
		return renderBillingError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}
