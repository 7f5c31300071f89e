package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eldarmv/listora/app/controllers"
)

// WebhookRouter installs processor-facing callback routes. These are
// authenticated by HMAC signature, not by API key, and sit outside the
// rate-limited /api group so redeliveries are never throttled.
type WebhookRouter struct {
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post("/webhooks/payments", controllers.HandlePaymentWebhook)
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}
