package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drawlens/internal/config"
	"drawlens/internal/gateway"
	handlers "drawlens/internal/http/handler"
	"drawlens/internal/http/middleware"
	"drawlens/internal/otel"
	"drawlens/internal/service"
	"drawlens/internal/storage"
	"drawlens/internal/store"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Local model backend. An unreachable backend is not fatal: every
	// operation degrades to a deterministic fallback.
	gw := gateway.NewOllama(cfg.Ollama, logger)
	if !gw.IsUsable(ctx) {
		logger.Warn("no usable model found, analysis will use fallback results",
			"base_url", cfg.Ollama.BaseURL)
	}

	// Drawing retention is optional; without MinIO the service analyzes
	// uploads but does not keep the image bytes.
	var artifacts storage.Storage
	if cfg.MinIO.Endpoint != "" {
		artifacts, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set, drawing retention disabled")
	}

	cache := store.NewInMemory()
	svc := service.NewAnalysisService(gw, cache, artifacts, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    (cfg.MaxUploadMiB + 1) << 20,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, gw, cache, svc, int64(cfg.MaxUploadMiB)<<20)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
