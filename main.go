package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shop/internal/app"
	"shop/internal/cache"
	"shop/internal/config"
	"shop/internal/database"
	"shop/internal/logger"
	"shop/internal/services"
	"shop/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		// The configured logger is already synced and gone at this point.
		zap.NewExample().Error("Server exited", zap.Error(err))
		os.Exit(1)
	}
}

// run wires the application and serves until a signal arrives. Errors are
// returned rather than fatal so that deferred cleanup always runs.
func run() error {
	started := time.Now()

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	// --- Database ---
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}

	// --- Cache ---
	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		store, err = cache.NewRedisStore(context.Background(), cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("initialize redis cache at %s: %w", cfg.Redis.Addr, err)
		}
	default:
		store = cache.NewMemoryStore(time.Minute)
	}
	defer store.Close()

	// --- RabbitMQ (optional) ---
	var publisher services.OrderEventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.URL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log)
		if err != nil {
			return fmt.Errorf("initialize rabbitmq client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	application := app.New(app.Deps{
		Config:    cfg,
		DB:        db,
		Cache:     store,
		Publisher: publisher,
		Logger:    log,
		Started:   started,
	})

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := application.Auth.EnsureStaffUser(context.Background(), cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("ensure staff user: %w", err)
		}
	}

	if mqClient != nil {
		if err := mqClient.ConsumeOrderEvents(application.Orders.HandleOrderEvent); err != nil {
			log.Error("Failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		serveErr <- application.Fiber.Listen(cfg.App.Port)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen on %s: %w", cfg.App.Port, err)
	case <-quit:
	}
	log.Info("Shutting down server...")

	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Error during Fiber shutdown", zap.Error(err))
	}
	log.Info("Server gracefully stopped")
	return nil
}
