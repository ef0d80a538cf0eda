package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsehealth/pulse-api/internal/alert"
	"github.com/pulsehealth/pulse-api/internal/config"
	"github.com/pulsehealth/pulse-api/internal/dispatch"
	"github.com/pulsehealth/pulse-api/internal/platform/gemini"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/platform/postgres"
	"github.com/pulsehealth/pulse-api/internal/ratelimit"
	"github.com/pulsehealth/pulse-api/internal/schedule"
	"github.com/pulsehealth/pulse-api/internal/service"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// application holds the wired dependency graph for the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	counter    ratelimit.Counter
	insights   *service.InsightService
	notifs     *service.NotificationService
	wearables  *service.WearableService
	dispatcher *dispatch.Dispatcher
	health     *task.HealthReporter
	scheduler  *schedule.Scheduler
}

// initializeApp loads configuration and wires every component of the
// process: stores, producers, the dispatcher with its queue handlers, the
// rate-limit counter, and the in-process scheduler.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: log,
		db:     db,
	}

	if err := app.wire(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func (app *application) wire(ctx context.Context) error {
	cfg := app.config
	log := app.logger

	records := postgres.NewTaskRecordStore(app.db)
	jobs := postgres.NewInsightJobStore(app.db)
	profiles := postgres.NewProfileStore(app.db)
	integrations := postgres.NewWearableIntegrationStore(app.db)

	counter, err := app.setupCounter(ctx)
	if err != nil {
		return err
	}
	app.counter = counter

	app.insights = service.NewInsightService(app.db, jobs, records, service.InsightConfig{
		Models:      cfg.LLM.ModelPipeline(),
		DailyJobCap: cfg.Insights.DailyJobCap,
	})
	app.notifs = service.NewNotificationService(records, profiles)
	app.wearables = service.NewWearableService(records, integrations,
		time.Duration(cfg.Wearables.StalenessMinutes)*time.Minute)

	generator, err := gemini.NewInsightGenerator(ctx, cfg.LLM.GeminiAPIKey, log)
	if err != nil {
		return fmt.Errorf("failed to create insight generator: %w", err)
	}

	outcomes := task.NewOutcomes(records, alert.NewLogNotifier(log), log)
	dispatcher := dispatch.NewDispatcher(records, outcomes, dispatch.DefaultBatchSize, log)
	dispatcher.Register(task.QueueInsightsGenerate,
		dispatch.NewInsightHandler(jobs, generator, &profileSummarySource{profiles: profiles}, log))
	dispatcher.Register(task.QueueNotificationsDispatch,
		dispatch.NewNotificationHandler(&logMailer{logger: log}, log))
	dispatcher.Register(task.QueueWearableSync,
		dispatch.NewWearableHandler(&logProviderClient{logger: log}, integrations, log))
	app.dispatcher = dispatcher

	app.health = task.NewHealthReporter(records, log)

	scheduler, err := schedule.New(
		cfg.Wearables.DispatchSchedule,
		cfg.Wearables.SweepSchedule,
		app.dispatcher.RunOnce,
		app.wearables.SweepDue,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.scheduler = scheduler

	return nil
}

// setupCounter selects the rate-limit backend. Redis gives cross-replica
// accuracy; without it the in-process counter is exact for this replica
// only, which is logged so operators know the limiter's scope.
func (app *application) setupCounter(ctx context.Context) (ratelimit.Counter, error) {
	if app.config.Redis.URL == "" {
		app.logger.Warn("redis not configured, rate limits are per-replica only")
		return ratelimit.NewMemoryCounter(), nil
	}

	opts, err := redis.ParseURL(app.config.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	app.redis = client
	return ratelimit.NewRedisCounter(client), nil
}

// cleanup releases resources on shutdown, in reverse wiring order.
func (app *application) cleanup() {
	app.scheduler.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
