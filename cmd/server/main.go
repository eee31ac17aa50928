package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/adapters/http/routes"
	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/adapters/storage"
	"aidmap-api/internal/config"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// @title AidMap API
// @version 1.0
// @description Neighborhood mutual-aid map: post needs, fund or help neighbors, chat in real time.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to load configuration")
	}
	logger.Init(cfg.AppMode, cfg.LogLevel)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		logger.WithError(err).Fatal("❌ Failed to auto migrate")
	}
	logger.L().Info("✅ Database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db).Run(); err != nil {
			logger.WithError(err).Warn("⚠️ Failed to seed data")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	deps := routes.Dependencies{
		Hub:       hub,
		Publisher: hub,
		Payments:  services.NewMockPaymentProvider(cfg.Payment.MinDelay, cfg.Payment.MaxDelay),
	}

	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("⚠️ Redis unavailable, realtime stays local to this instance")
		} else {
			defer client.Close()
			bridge := realtime.NewRedisBridge(hub, client, "")
			deps.Publisher = bridge
			go func() {
				if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.WithError(err).Error("❌ Realtime bridge stopped")
				}
			}()
		}
	}

	proofs, err := storage.NewS3ProofStore(storage.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicURL:       cfg.Storage.PublicURL,
	})
	switch {
	case err == nil:
		deps.Proofs = proofs
	case errors.Is(err, storage.ErrStorageDisabled):
		logger.L().Warn("⚠️ Proof storage not configured, uploads disabled")
	default:
		logger.WithError(err).Fatal("❌ Failed to configure proof storage")
	}

	app := fiber.New(fiber.Config{
		AppName:      "AidMap API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    6 * 1024 * 1024,
	})

	middleware.Setup(app, cfg)

	runtime := routes.Setup(app, db, cfg, deps)

	if err := runtime.Cron.Start(); err != nil {
		logger.WithError(err).Fatal("❌ Failed to start cron jobs")
	}
	defer runtime.Cron.Stop()

	go gracefulShutdown(app, runtime, cancel)

	logger.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).
		Info("🚀 Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("❌ Failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, runtime *routes.Runtime, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("🛑 Shutting down server...")
	runtime.Streams.Close()
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.WithError(err).Error("❌ Error during shutdown")
	}
	logger.L().Info("✅ Server stopped gracefully")
}
