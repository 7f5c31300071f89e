package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/eldarmv/listora/internal/pkg/billing"
)

// renderBillingError maps a billing/entitlements error to its HTTP response.
// Foreign errors become opaque 500s.
func renderBillingError(c *fiber.Ctx, err error) error {
	kind := billing.KindOf(err)
	code := billing.CodeOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case billing.KindValidation:
		status = fiber.StatusBadRequest
	case billing.KindEligibility:
		status = fiber.StatusForbidden
	case billing.KindConflict:
		status = fiber.StatusConflict
	case billing.KindNotFound:
		status = fiber.StatusNotFound
	case billing.KindExternal:
		status = fiber.StatusBadGateway
	case billing.KindSignature:
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		log.Errorf("[API] unexpected error: %v", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal_server_error"})
	}

	body := fiber.Map{"error": code}
	if code == billing.CodeRequiresPayment {
		// Paid plans never self-activate; tell the client to run the payment flow.
		body["requires_payment"] = true
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(body)
}
