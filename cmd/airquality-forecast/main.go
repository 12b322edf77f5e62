package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/airquality-forecast/internal/airquality"
	"github.com/i474232898/airquality-forecast/internal/airquality/providers"
	httpapi "github.com/i474232898/airquality-forecast/internal/api/http"
	"github.com/i474232898/airquality-forecast/internal/config"
	"github.com/i474232898/airquality-forecast/internal/forecast"
	"github.com/i474232898/airquality-forecast/internal/scheduler"
	"github.com/i474232898/airquality-forecast/internal/store"
)

func main() {
	// Load configuration. A missing AQI key is fatal.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Model bundle and reference cities are loaded once and never change.
	forecasts, err := forecast.Load(cfg.ModelBundlePath, cfg.CityIndexPath)
	if err != nil {
		log.Fatalf("failed to load prediction inputs: %v", err)
	}

	// Shared HTTP client for outbound provider calls. Per-country deadlines
	// are enforced by the cache; this is a backstop.
	httpClient := &http.Client{
		Timeout: 2 * cfg.AQIFetchTimeout,
	}

	// Global AQI snapshot: provider + store + lazily refreshed cache.
	waqi := providers.NewWAQIProvider(httpClient, cfg.AQIAPIKey, cfg.AQIBaseURL)
	snapshots := store.NewMemoryStore(cfg.AQIHistorySize)
	aqiCache := airquality.NewCache(waqi, snapshots, cfg.Locations,
		airquality.WithTTL(cfg.AQICacheTTL),
		airquality.WithFetchTimeout(cfg.AQIFetchTimeout),
		airquality.WithMaxConcurrentFetches(cfg.AQIMaxConcurrency),
	)

	// Optional pre-warm so the first /global-aqi caller does not pay for the fan-out.
	sched := scheduler.New(aqiCache, cfg.AQIPrewarmInterval, 2*cfg.AQIFetchTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "airquality-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.AQIFetchTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
	}))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "airquality-forecast",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, forecasts, aqiCache, snapshots)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
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
