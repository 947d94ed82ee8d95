package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vestera-as/attachment-api/docs"
	"github.com/vestera-as/attachment-api/internal/auth"
	"github.com/vestera-as/attachment-api/internal/config"
	"github.com/vestera-as/attachment-api/internal/database"
	"github.com/vestera-as/attachment-api/internal/hooks"
	"github.com/vestera-as/attachment-api/internal/http/handler"
	"github.com/vestera-as/attachment-api/internal/http/middleware"
	"github.com/vestera-as/attachment-api/internal/http/router"
	"github.com/vestera-as/attachment-api/internal/jobs"
	"github.com/vestera-as/attachment-api/internal/logger"
	"github.com/vestera-as/attachment-api/internal/provider"
	"github.com/vestera-as/attachment-api/internal/repository"
	"github.com/vestera-as/attachment-api/internal/service"
	"go.uber.org/zap"
)

// @title Vestera Attachment API
// @version 1.0
// @description Attachment storage API with pluggable blob storage backends
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@vestera.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "vestera-attachment-staging.norwayeast.azurecontainerapps.io"
	case "production":
		docs.SwaggerInfo.Host = "attachments.vestera.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Register the blob storage adapter with the hook registry.
	// When storage configuration is incomplete the registry carries a
	// diagnostic instead of hooks and the API serves metadata only.
	registry := hooks.NewRegistry(log)
	fileStorage, err := provider.Register(registry, &cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if fileStorage != nil {
		log.Info("Storage adapter registered", zap.String("mode", cfg.Storage.Mode))
	} else {
		log.Warn("Storage adapter not configured, uploads disabled",
			zap.Any("diagnostics", registry.Diagnostics()),
		)
	}

	// Initialize repository and service layer
	attachmentRepo := repository.NewAttachmentRepository(db)
	attachmentService := service.NewAttachmentService(attachmentRepo, registry, fileStorage, log)

	// Signed download tokens (disabled when no secret is configured)
	tokens := auth.NewTokenIssuer(cfg.Auth.DownloadTokenSecret, cfg.Auth.DownloadTokenTTLDuration())

	// Initialize middleware and handlers
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, tokens, cfg.Storage.MaxUploadSizeMB, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		registry,
		rateLimiter,
		attachmentHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Cleanup.Enabled && fileStorage != nil {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterCleanupJob(
			scheduler,
			attachmentService,
			log,
			cfg.Cleanup.CronExpr,
			cfg.Cleanup.RetentionDuration(),
			cfg.Cleanup.TimeoutDuration(),
		); err != nil {
			log.Error("Failed to register cleanup job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with cleanup job",
				zap.String("cron_expr", cfg.Cleanup.CronExpr),
				zap.Duration("retention", cfg.Cleanup.RetentionDuration()),
			)
		}
	} else {
		log.Info("Attachment purge disabled",
			zap.Bool("cleanup_enabled", cfg.Cleanup.Enabled),
			zap.Bool("storage_available", fileStorage != nil),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
