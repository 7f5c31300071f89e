package controllers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/eldarmv/listora/app/models"
	"github.com/eldarmv/listora/app/repository"
	"github.com/eldarmv/listora/internal/pkg/cache"
)

const (
	planCacheKeyFormat = "plans:active:%s"
	planCacheTTL       = 5 * time.Minute
)

// HandleListPlans returns the active plans purchasable for a role.
func HandleListPlans(c *fiber.Ctx) error {
	role := strings.ToLower(strings.TrimSpace(c.Query("role")))
	if !models.IsValidRole(role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_role", "message": "role must be landlord or seller"})
	}

	cacheKey := fmt.Sprintf(planCacheKeyFormat, role)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	plans, err := repository.GetGlobalFactory().GetPlanRepository().ListActiveByRole(role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	payload, err := json.Marshal(fiber.Map{"plans": plans})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	if err := cache.Set(cacheKey, string(payload), planCacheTTL); err != nil {
		log.Warnf("[Plans] cache write failed: %v", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// invalidatePlanCache drops the cached plan lists after an admin edit.
func invalidatePlanCache() {
	for _, role := range []string{models.RoleLandlord, models.RoleSeller} {
		if err := cache.Delete(fmt.Sprintf(planCacheKeyFormat, role)); err != nil {
			log.Warnf("[Plans] cache invalidation failed for role %s: %v", role, err)
		}
	}
}
