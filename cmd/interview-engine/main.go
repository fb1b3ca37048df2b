package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireloop/interview-engine/internal/api"
	"github.com/hireloop/interview-engine/internal/capture"
	"github.com/hireloop/interview-engine/internal/challenges"
	"github.com/hireloop/interview-engine/internal/cleanup"
	"github.com/hireloop/interview-engine/internal/config"
	"github.com/hireloop/interview-engine/internal/interview"
	"github.com/hireloop/interview-engine/internal/presence"
	"github.com/hireloop/interview-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting interview-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Candidate presence tracker (Redis)
	tracker, err := presence.NewTracker(cfg.Redis.Address, cfg.Redis.Password,
		2*cfg.Tracking.AutoSaveInterval, cfg.Tracking.TypingTTL)
	if err != nil {
		slog.Error("failed to create presence tracker", "error", err)
		os.Exit(1)
	}

	// Load challenge library
	library := challenges.NewLibrary()
	if err := library.LoadFromDir(cfg.Library.Dir); err != nil {
		slog.Warn("failed to load challenge library", "dir", cfg.Library.Dir, "error", err)
	}

	// Event capture recorder, draining into the repository
	recorder := capture.NewRecorder(repo, capture.RecorderConfig{
		SnapshotInterval: cfg.Tracking.SnapshotInterval,
		AutoSaveInterval: cfg.Tracking.AutoSaveInterval,
		MaxBatch:         cfg.Tracking.MaxBatch,
	})

	// Interview service
	service := interview.NewService(repo, recorder, tracker, library, cfg)

	// Overdue auto-submit worker
	worker := cleanup.NewWorker(repo, service, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background workers
	recorder.Start(ctx)
	worker.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(*cfg, service, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Stop background workers and drain buffered events
	worker.Stop()
	recorder.Close(shutdownCtx)
	cancel()

	if err := tracker.Close(); err != nil {
		slog.Error("presence tracker close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("interview-engine stopped")
}
