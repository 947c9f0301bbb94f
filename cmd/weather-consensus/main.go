package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/dkravets/weather-consensus/internal/api/http"
	"github.com/dkravets/weather-consensus/internal/config"
	"github.com/dkravets/weather-consensus/internal/coordinator"
	"github.com/dkravets/weather-consensus/internal/fetch"
	"github.com/dkravets/weather-consensus/internal/forecast"
	"github.com/dkravets/weather-consensus/internal/geo"
	"github.com/dkravets/weather-consensus/internal/ratelimit"
	"github.com/dkravets/weather-consensus/internal/scheduler"
	"github.com/dkravets/weather-consensus/internal/weather"
	"github.com/dkravets/weather-consensus/internal/weather/sources"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared outbound client for scraping and API calls.
	client := fetch.NewClient(cfg.FetchTimeout)

	resolver := geo.NewResolver(client, cfg.DefaultCity)

	// Core service orchestrating sources and the forecast builder.
	service := weather.NewService(
		sources.All(client, resolver),
		forecast.NewBuilder(client),
		cfg.UpdateInterval,
	)

	coord := coordinator.New(resolver, service, coordinator.Options{
		StaleAfter:   cfg.StaleAfter,
		PollInterval: cfg.UpdateInterval,
		// A cycle resolves a landing page and fetches it, so it can need
		// two sequential outbound calls.
		CycleTimeout: 2 * cfg.FetchTimeout,
	})

	limiter := ratelimit.New(cfg.RateWindow, map[ratelimit.Scope]int{
		ratelimit.ScopeAPI:     cfg.RateLimitAPI,
		ratelimit.ScopeRefresh: cfg.RateLimitRefresh,
		ratelimit.ScopeStream:  cfg.RateLimitStream,
	})

	// Warm-refresh job for configured cities.
	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, coord)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration. No write timeout: the SSE endpoint holds
	// connections open indefinitely.
	app := fiber.New(fiber.Config{
		AppName:               "weather-consensus",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-consensus",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, coord, limiter, cfg.DefaultCity)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
