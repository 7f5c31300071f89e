package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/eldarmv/listora/app/controllers"
	"github.com/eldarmv/listora/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Plan catalog is public; buyers browse before they authenticate.
	v1.Get("/plans", controllers.HandleListPlans)

	authed := v1.Group("", middleware.APIKeyAuthMiddleware())

	authed.Post("/subscriptions/intent", controllers.HandleCreateIntent)
	authed.Post("/subscriptions/subscribe", controllers.HandleSubscribe)
	authed.Post("/subscriptions/cancel", controllers.HandleCancelSubscription)
	authed.Get("/subscriptions/mine", controllers.HandleMySubscription)

	authed.Post("/listings/feature", controllers.HandleFeatureListing)
	authed.Post("/listings/boost", controllers.HandleBoostListing)

	admin := authed.Group("/admin", middleware.RequireAdmin)
	admin.Post("/plans", controllers.HandleAdminCreatePlan)
	admin.Put("/plans/:id", controllers.HandleAdminUpdatePlan)
	admin.Delete("/plans/:id", controllers.HandleAdminDeletePlan)
	admin.Put("/subscriptions/:id", controllers.HandleAdminOverrideSubscription)
	admin.Get("/subscriptions/analytics", controllers.HandleAdminSubscriptionAnalytics)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
