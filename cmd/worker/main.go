package main

import (
	"context"
	"log/slog"
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
	"agroalert/internal/infra/store"
	"agroalert/internal/infra/template"
	"agroalert/internal/infra/weather"

	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client to the alert.Enqueuer interface.
// Used by the reaper to re-enqueue stale welcome deliveries.
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

	slog.Info("worker configuration loaded")

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Template Engine
	templatesDir := resolveTemplatesDir()
	tmplEngine, err := template.NewEngine(templatesDir)
	if err != nil {
		slog.Error("failed to initialize template engine", "error", err, "dir", templatesDir)
		os.Exit(1)
	}
	slog.Info("template engine initialized", "dir", templatesDir)

	// Email sender capability (live Resend or sandbox when no key is set)
	sender, mode := email.Resolve(cfg.Email.APIKey)
	slog.Info("email sender resolved", "mode", mode)

	// Supabase Store
	supaStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase store initialized")

	// Welcome email worker
	welcomeWorker := alert.NewWorker(supaStore, supaStore, tmplEngine, sender, cfg.Email.WelcomeFrom, cfg.Email.AppURL)

	// Alert service (for the scheduled dispatch runs processed here)
	dispatcher := alert.NewDispatcher(
		cfg.Dispatch.BatchSize,
		time.Duration(cfg.Dispatch.InterBatchDelayMs)*time.Millisecond,
	)
	weatherClient := weather.NewOpenWeatherClient(
		cfg.Weather.APIKey,
		cfg.Weather.BaseURL,
		time.Duration(cfg.Weather.TimeoutSec)*time.Second,
	)

	// Asynq Client (welcome enqueuing from the reaper)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()

	enqueuer := &queueEnqueuer{
		client:   asynqClient,
		maxRetry: cfg.Queue.MaxRetry,
	}

	alertService := alert.NewService(
		supaStore,
		supaStore,
		dispatcher,
		weatherClient,
		market.NewMandiSource(),
		sender,
		tmplEngine,
		enqueuer,
		nil, // dispatch runs are not per-recipient rate limited
		alert.ServiceConfig{
			WeatherFrom:     cfg.Email.WeatherFrom,
			PriceFrom:       cfg.Email.PriceFrom,
			WelcomeFrom:     cfg.Email.WelcomeFrom,
			AppURL:          cfg.Email.AppURL,
			DefaultLocation: cfg.Weather.DefaultLocation,
		},
	)

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(alert.TaskTypeSendWelcome, func(ctx context.Context, task *asynq.Task) error {
		payload, err := alert.ParseSendWelcomePayload(task.Payload())
		if err != nil {
			return err
		}
		return welcomeWorker.ProcessSendWelcome(ctx, payload.DeliveryID)
	})
	mux.HandleFunc(alert.TaskTypeWeatherRun, func(ctx context.Context, task *asynq.Task) error {
		_, err := alertService.DispatchWeather(ctx)
		return err
	})
	mux.HandleFunc(alert.TaskTypePriceRun, func(ctx context.Context, task *asynq.Task) error {
		_, err := alertService.DispatchPrice(ctx)
		return err
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Periodic Scheduler (cron-style alert runs)
	// ==========================================

	scheduler, err := queue.NewScheduler(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Schedule.WeatherCron,
		cfg.Schedule.PriceCron,
	)
	if err != nil {
		slog.Error("failed to initialize scheduler", "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("scheduler starting",
			"weather_cron", cfg.Schedule.WeatherCron,
			"price_cron", cfg.Schedule.PriceCron,
		)
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Stale Delivery Reaper
	// ==========================================

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()

	reaper := alert.NewReaper(supaStore, enqueuer, alert.ReaperConfig{
		Interval:       time.Duration(cfg.Reaper.IntervalSec) * time.Second,
		StaleThreshold: time.Duration(cfg.Reaper.StaleThresholdSec) * time.Second,
		BatchSize:      cfg.Reaper.BatchSize,
	})

	go reaper.Run(reaperCtx)

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	reaperCancel() // Stop the reaper first
	scheduler.Shutdown()
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
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

	// Navigate from cmd/worker/main.go to internal/infra/template/templates
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(projectRoot, "internal", "infra", "template", "templates")
}
