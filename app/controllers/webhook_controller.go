package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/eldarmv/listora/internal/pkg/billing"
	"github.com/eldarmv/listora/internal/pkg/database"
	"github.com/eldarmv/listora/internal/pkg/env"
)

const webhookTimeout = 15 * time.Second

// HandlePaymentWebhook consumes payment-outcome callbacks from the external
// processor. The signature is checked against the raw, unparsed body; a
// failed check rejects the delivery with no state change. Everything past
// the signature returns 200 on success or graceful no-op, and 5xx only when
// a primary effect failed and the processor should redeliver.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Payment-Signature"))
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")

	if !billing.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	evt, err := billing.ParseEvent(rawBody)
	if err != nil {
		log.Warnf("[Webhook] unparseable payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	if err := svc.ProcessEvent(ctx, evt); err != nil {
		log.Errorf("[Webhook] processing event %s failed: %v", evt.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
