package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/eldarmv/listora/app/repository"
	"github.com/eldarmv/listora/internal/pkg/billing"
	"github.com/eldarmv/listora/internal/pkg/cache"
	"github.com/eldarmv/listora/internal/pkg/database"
	"github.com/eldarmv/listora/internal/pkg/env"
	"github.com/eldarmv/listora/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitGlobalFactory(database.GetDB())

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "Listora",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	// SWEEPER
	sweeper := billing.NewSweeper(
		billing.NewServiceFromDB(database.GetDB()),
		sweepInterval(),
		sweepLookahead(),
	)
	sweeper.Start()

	return app
}

func sweepInterval() time.Duration {
	minutes, err := strconv.Atoi(env.GetEnv("BILLING_SWEEP_INTERVAL_MINUTES", "15"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func sweepLookahead() time.Duration {
	days, err := strconv.Atoi(env.GetEnv("BILLING_REMINDER_LOOKAHEAD_DAYS", "3"))
	if err != nil || days <= 0 {
		days = 3
	}
	return time.Duration(days) * 24 * time.Hour
}
