package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"agroalert/internal/config"
	"agroalert/internal/domain/alert"
	"agroalert/internal/infra/email"
	"agroalert/internal/infra/market"
	"agroalert/internal/infra/queue"
	"agroalert/internal/infra/ratelimit"
	"agroalert/internal/infra/store"
	"agroalert/internal/infra/template"
	"agroalert/internal/infra/weather"
	"agroalert/internal/router"

	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client to the alert.Enqueuer interface.
type queueEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func (q *queueEnqueuer) EnqueueSendWelcome(deliveryID string) error {
	return queue.EnqueueSendWelcome(q.client, deliveryID, q.maxRetry)
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Supabase Store (user profiles + delivery records)
	supaStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase store initialized")

	// Template Engine
	tmplEngine, err := template.NewEngine(resolveTemplatesDir())
	if err != nil {
		slog.Error("failed to initialize template engine", "error", err)
		os.Exit(1)
	}

	// Email sender capability (live Resend or sandbox when no key is set)
	sender, mode := email.Resolve(cfg.Email.APIKey)
	slog.Info("email sender resolved", "mode", mode)

	// Weather + market sources
	weatherClient := weather.NewOpenWeatherClient(
		cfg.Weather.APIKey,
		cfg.Weather.BaseURL,
		time.Duration(cfg.Weather.TimeoutSec)*time.Second,
	)
	priceSource := market.NewMandiSource()

	// Asynq Client (for enqueuing welcome tasks)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	slog.Info("asynq client initialized", "redis", cfg.Redis.Address)

	// Recipient Rate Limiter
	recipientLimiter := ratelimit.NewRedisRecipientLimiter(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.RecipientRateLimit.MaxPerHour,
	)
	defer recipientLimiter.Close()
	slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)

	// Enqueuer adapter
	enqueuer := &queueEnqueuer{
		client:   asynqClient,
		maxRetry: cfg.Queue.MaxRetry,
	}

	// Batch dispatcher
	dispatcher := alert.NewDispatcher(
		cfg.Dispatch.BatchSize,
		time.Duration(cfg.Dispatch.InterBatchDelayMs)*time.Millisecond,
	)

	// Service
	alertService := alert.NewService(
		supaStore,
		supaStore,
		dispatcher,
		weatherClient,
		priceSource,
		sender,
		tmplEngine,
		enqueuer,
		recipientLimiter,
		alert.ServiceConfig{
			WeatherFrom:     cfg.Email.WeatherFrom,
			PriceFrom:       cfg.Email.PriceFrom,
			WelcomeFrom:     cfg.Email.WelcomeFrom,
			AppURL:          cfg.Email.AppURL,
			DefaultLocation: cfg.Weather.DefaultLocation,
		},
	)

	// Handler
	alertHandler := alert.NewHandler(alertService)

	// Router
	r := router.New(cfg, alertHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
		// A full dispatch run over a few hundred recipients takes tens of
		// seconds (inter-batch delays included), so the write timeout is
		// generous compared to a typical API server.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// resolveTemplatesDir finds the templates directory.
func resolveTemplatesDir() string {
	// Check if running in Docker (production)
	if _, err := os.Stat("/app/templates"); err == nil {
		return "/app/templates"
	}

	// Development: resolve relative to the source file location
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "internal/infra/template/templates"
	}

	// Navigate from cmd/server/main.go to internal/infra/template/templates
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(projectRoot, "internal", "infra", "template", "templates")
}
