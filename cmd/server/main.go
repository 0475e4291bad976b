// Package main is the entrypoint for the SocialPulse API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"socialpulse/internal/api"
	"socialpulse/internal/api/handler"
	mw "socialpulse/internal/api/middleware"
	"socialpulse/internal/auth"
	"socialpulse/internal/cache"
	"socialpulse/internal/config"
	"socialpulse/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// 1. Load config — fail fast on invalid config
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and auth
	pgStore := store.NewPostgresStore(pool)
	jwtManager := auth.NewJWTManager(cfg.Auth)

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(jwtManager),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache),
		TokenHandler:  handler.NewTokenHandler(pgStore, jwtManager),

		GetClient:   handler.NewGetClientHandler(pgStore),
		PatchClient: handler.NewPatchClientHandler(pgStore),

		GetDataset:  handler.NewGetDatasetHandler(pgStore),
		PostDataset: handler.NewPostDatasetHandler(pgStore),

		PutInsight:   handler.NewPutInsightHandler(pgStore, redisCache),
		GetInsight:   handler.NewGetInsightHandler(pgStore, redisCache),
		ListInsights: handler.NewListInsightsHandler(pgStore),

		TriggerAnalyze: handler.NewTriggerAnalyzeHandler(pgStore, redisCache),
		GetJob:         handler.NewGetJobHandler(pgStore, redisCache),

		ListTasks:      handler.NewListTasksHandler(pgStore),
		PatchTask:      handler.NewPatchTaskHandler(pgStore),
		GenerateTasks:  handler.NewGenerateTasksHandler(pgStore),
		CreateTaskNote: handler.NewCreateTaskNoteHandler(pgStore),
		ListTaskNotes:  handler.NewListTaskNotesHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
