// Package main is the entry point for the propostaflow API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propostaflow/internal/cache"
	"propostaflow/internal/config"
	"propostaflow/internal/database"
	"propostaflow/internal/engine"
	"propostaflow/internal/handlers"
	"propostaflow/internal/imaging"
	"propostaflow/internal/middleware"
	"propostaflow/internal/router"
	"propostaflow/internal/session"
	"propostaflow/internal/storage"
	"propostaflow/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the starter template and a demo proposal (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (render cache + editor sessions).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Connect to S3-compatible object storage (optional: exports answer
	// 503 without it).
	deps := handlers.Deps{
		Templates:   store.NewTemplateStore(db),
		Revisions:   store.NewTemplateRevisionStore(db),
		Proposals:   store.NewProposalStore(db),
		Exports:     store.NewExportStore(db),
		Sessions:    session.NewStore(valkeyClient, cfg.SessionTTL),
		RenderCache: cache.NewRenderCache(valkeyClient, cfg.RenderCacheTTL),
		Engine:      engine.New(nil),
		Optimizer: imaging.NewOptimizer(imaging.Options{
			MaxWidth: cfg.ImageMaxWidth,
			Quality:  cfg.ImageQuality,
			Workers:  cfg.ImageWorkers,
		}),
		URLExpiry: cfg.ExportURLExpiry,
	}
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		deps.Archive = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, exports disabled")
	}

	// Render and export are CPU-bound; cap them per client and template.
	renderLimiter := middleware.NewRateLimiter(30, time.Minute, middleware.WithKey(middleware.ByClientAndTemplate))
	defer renderLimiter.Stop()

	r := router.New(handlers.NewAPI(deps), router.Options{
		MaxBodyBytes:  cfg.MaxBodyBytes,
		RenderLimiter: renderLimiter,
	})

	// WriteTimeout covers image optimization of large templates on save.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
