// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Jayanthmurala/nexus-backend/internal/config"
	"github.com/Jayanthmurala/nexus-backend/internal/database"
	"github.com/Jayanthmurala/nexus-backend/internal/handler"
	"github.com/Jayanthmurala/nexus-backend/internal/repository"
	"github.com/Jayanthmurala/nexus-backend/internal/service"
	"github.com/Jayanthmurala/nexus-backend/internal/signing"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("connected to postgres", "db", cfg.DBName)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool, log)
	projectRepo := repository.NewProjectRepository(pool)
	appRepo := repository.NewApplicationRepository(pool, log)
	taskRepo := repository.NewTaskRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	eventSvc := service.NewEventService(eventRepo, regRepo)
	projectSvc := service.NewProjectService(projectRepo, appRepo)
	taskSvc := service.NewTaskService(projectRepo, taskRepo)
	statsSvc := service.NewStatsService(statsRepo)

	eventHandler := handler.NewEventHandler(eventSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	internalHandler := handler.NewInternalHandler(statsSvc)

	// The replay cache is process-local unless Redis is configured, in
	// which case all verifier processes share one view.
	var replayCache signing.ReplayCache = signing.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		replayCache = signing.NewRedisCache(rdb)
		log.Info("replay cache backed by redis", "addr", cfg.RedisAddr)
	}
	verifier := signing.NewVerifier(cfg.InternalSecret, replayCache)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(log))     // structured access log

	// Health
	r.Get("/health", handler.HealthCheck)

	// Public API: bearer identity required.
	r.Route("/v1", func(r chi.Router) {
		r.Use(handler.RequireIdentity(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, log))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.Create)
			r.Get("/", eventHandler.List)
			r.Get("/{id}", eventHandler.Get)
			r.Put("/{id}", eventHandler.Update)
			r.Post("/{id}/register", eventHandler.Register)
			r.Get("/{id}/registrations", eventHandler.Registrations)
			r.Patch("/{id}/moderation", eventHandler.Moderate)
			r.Delete("/{id}", eventHandler.Delete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)
			r.Patch("/{id}/moderation", projectHandler.Moderate)
			r.Post("/{id}/applications", projectHandler.Apply)
			r.Get("/{id}/applications", projectHandler.Applications)
			r.Patch("/{id}/applications/{appID}", projectHandler.Decide)
			r.Post("/{id}/tasks", taskHandler.Create)
			r.Get("/{id}/tasks", taskHandler.List)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Patch("/{id}", taskHandler.UpdateStatus)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	// Internal API: signed requests only.
	r.Route("/internal", func(r chi.Router) {
		r.Use(handler.RequireSigned(verifier, log))
		r.Get("/stats", internalHandler.Stats)
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Info("server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
