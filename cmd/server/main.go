// Package main is the entry point for the platform API server. It wires all
// dependencies using samber/do v2, starts the signal bus, the workflow run
// poller, the sequence scheduler, and the HTTP server, and handles graceful
// shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/samber/do/v2"

	adapthttp "github.com/salesforge/platform/internal/adapters/http"
	"github.com/salesforge/platform/internal/adapters/http/handlers"
	"github.com/salesforge/platform/internal/adapters/http/middleware"

	"github.com/salesforge/platform/internal/adapters/clients/outbound"
	"github.com/salesforge/platform/internal/adapters/store/postgres"
	"github.com/salesforge/platform/internal/adapters/store/rediscache"
	"github.com/salesforge/platform/internal/app"
	"github.com/salesforge/platform/internal/app/scoring"
	"github.com/salesforge/platform/internal/engine"
	"github.com/salesforge/platform/internal/platform/authtoken"
	"github.com/salesforge/platform/internal/platform/bus"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/platform/health"
	"github.com/salesforge/platform/internal/platform/httpclient"
	"github.com/salesforge/platform/internal/platform/logging"
	"github.com/salesforge/platform/internal/platform/telemetry"
	"github.com/salesforge/platform/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	bootstrapTimeout      = 30 * time.Second
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

// Named httpclient instances: the email provider client carries a base URL
// and backs the readiness check; the webhook client posts to per-action URLs.
const (
	emailClientName   = "email-client"
	webhookClientName = "webhook-client"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	db := do.MustInvoke[*sqlx.DB](injector)
	redisClient := do.MustInvoke[*redis.Client](injector)

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(postgres.NewChecker(db))
	registry.Register(rediscache.NewChecker(redisClient))
	registry.Register(do.MustInvokeNamed[*httpclient.Client](injector, emailClientName))

	// Wire bus subscribers, then start the async machinery. Subscriptions
	// must all be in place before the first Publish.
	signalBus := do.MustInvoke[*bus.Bus](injector)
	scorer := do.MustInvoke[*scoring.Subscriber](injector)
	trigger := do.MustInvoke[*engine.Trigger](injector)
	signalBus.Subscribe(scorer, scoring.SubscribedTypes...)
	signalBus.Subscribe(trigger)
	signalBus.Start()

	poller := do.MustInvoke[*engine.Poller](injector)
	poller.Start()
	scheduler := do.MustInvoke[*engine.Scheduler](injector)
	scheduler.Start()

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests first so no new signals are
	// published, then stop the pollers and the bus, then close stores.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	poller.Close()
	scheduler.Close()
	signalBus.Close()

	if err := db.Close(); err != nil {
		logger.Error("postgres close error", slog.Any("error", err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", slog.Any("error", err))
	}

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	// Stores.
	do.Provide(injector, func(_ do.Injector) (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()

		db, err := postgres.Open(ctx, &cfg.Store)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	})

	do.Provide(injector, func(_ do.Injector) (*redis.Client, error) {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()
		return rediscache.NewClient(ctx, &cfg.Store)
	})

	do.Provide(injector, func(i do.Injector) (ports.LeadStore, error) {
		db := do.MustInvoke[*sqlx.DB](i)
		client := do.MustInvoke[*redis.Client](i)
		return rediscache.NewLeadStore(postgres.NewLeadStore(db), client, cfg.Store.CacheTTL, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.OrgStore, error) {
		db := do.MustInvoke[*sqlx.DB](i)
		client := do.MustInvoke[*redis.Client](i)
		return rediscache.NewOrgStore(postgres.NewOrgStore(db), client, cfg.Store.CacheTTL, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.ContactStore, error) {
		return postgres.NewContactStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.DealStore, error) {
		return postgres.NewDealStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TaskStore, error) {
		return postgres.NewTaskStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.WorkflowStore, error) {
		return postgres.NewWorkflowStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.RunStore, error) {
		return postgres.NewRunStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.SequenceStore, error) {
		return postgres.NewSequenceStore(do.MustInvoke[*sqlx.DB](i)), nil
	})

	// Outbound clients.
	do.ProvideNamed(injector, emailClientName, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, cfg.Client.EmailBaseURL, "email-provider", metrics, logger), nil
	})

	do.ProvideNamed(injector, webhookClientName, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, "", "webhook", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.EmailClient, error) {
		client := do.MustInvokeNamed[*httpclient.Client](i, emailClientName)
		return outbound.NewEmailClient(client, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.WebhookClient, error) {
		client := do.MustInvokeNamed[*httpclient.Client](i, webhookClientName)
		return outbound.NewWebhookClient(client, logger), nil
	})

	// Bus.
	do.Provide(injector, func(i do.Injector) (*bus.Bus, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return bus.New(cfg.Bus, metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.SignalBus, error) {
		return do.MustInvoke[*bus.Bus](i), nil
	})

	// Auth.
	do.Provide(injector, func(_ do.Injector) (*authtoken.Manager, error) {
		return authtoken.NewManager(&cfg.Auth), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.AuthService, error) {
		orgs := do.MustInvoke[ports.OrgStore](i)
		tokens := do.MustInvoke[*authtoken.Manager](i)
		return app.NewAuthService(orgs, tokens, logger), nil
	})

	// Application services.
	do.Provide(injector, func(i do.Injector) (ports.LeadService, error) {
		return app.NewLeadService(
			do.MustInvoke[ports.LeadStore](i),
			do.MustInvoke[ports.ContactStore](i),
			do.MustInvoke[ports.SequenceStore](i),
			do.MustInvoke[ports.SignalBus](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.ContactService, error) {
		return app.NewContactService(
			do.MustInvoke[ports.ContactStore](i),
			do.MustInvoke[ports.SignalBus](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.DealService, error) {
		return app.NewDealService(
			do.MustInvoke[ports.DealStore](i),
			do.MustInvoke[ports.SignalBus](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TaskService, error) {
		return app.NewTaskService(
			do.MustInvoke[ports.TaskStore](i),
			do.MustInvoke[ports.SignalBus](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.WorkflowService, error) {
		return app.NewWorkflowService(
			do.MustInvoke[ports.WorkflowStore](i),
			do.MustInvoke[ports.RunStore](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.SequenceService, error) {
		return app.NewSequenceService(
			do.MustInvoke[ports.SequenceStore](i),
			do.MustInvoke[ports.LeadStore](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.SignalService, error) {
		return app.NewSignalService(do.MustInvoke[ports.SignalBus](i), logger), nil
	})

	// Scoring subscriber.
	do.Provide(injector, func(i do.Injector) (*scoring.Subscriber, error) {
		return scoring.NewSubscriber(
			do.MustInvoke[ports.LeadService](i),
			do.MustInvoke[ports.ContactStore](i),
			logger,
		), nil
	})

	// Workflow engine.
	do.Provide(injector, func(i do.Injector) (*engine.Actions, error) {
		return engine.NewActions(
			do.MustInvoke[ports.LeadService](i),
			do.MustInvoke[ports.LeadStore](i),
			do.MustInvoke[ports.TaskService](i),
			do.MustInvoke[ports.SequenceService](i),
			do.MustInvoke[ports.EmailClient](i),
			do.MustInvoke[ports.WebhookClient](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*engine.Executor, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return engine.NewExecutor(
			do.MustInvoke[ports.RunStore](i),
			do.MustInvoke[*engine.Actions](i),
			cfg.Engine.ActionRetry,
			metrics,
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*engine.Trigger, error) {
		return engine.NewTrigger(
			do.MustInvoke[ports.WorkflowStore](i),
			do.MustInvoke[ports.RunStore](i),
			do.MustInvoke[*engine.Executor](i),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*engine.Poller, error) {
		return engine.NewPoller(
			do.MustInvoke[ports.RunStore](i),
			do.MustInvoke[ports.WorkflowStore](i),
			do.MustInvoke[*engine.Executor](i),
			cfg.Engine,
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*engine.Scheduler, error) {
		return engine.NewScheduler(
			do.MustInvoke[ports.SequenceStore](i),
			do.MustInvoke[ports.LeadStore](i),
			do.MustInvoke[ports.EmailClient](i),
			do.MustInvoke[ports.SignalBus](i),
			cfg.Engine,
			logger,
		), nil
	})

	// Health.
	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	// HTTP surface.
	do.Provide(injector, func(i do.Injector) (adapthttp.Handlers, error) {
		return adapthttp.Handlers{
			Auth:     handlers.NewAuthHandler(do.MustInvoke[ports.AuthService](i)),
			Lead:     handlers.NewLeadHandler(do.MustInvoke[ports.LeadService](i)),
			Contact:  handlers.NewContactHandler(do.MustInvoke[ports.ContactService](i)),
			Deal:     handlers.NewDealHandler(do.MustInvoke[ports.DealService](i)),
			Task:     handlers.NewTaskHandler(do.MustInvoke[ports.TaskService](i)),
			Workflow: handlers.NewWorkflowHandler(do.MustInvoke[ports.WorkflowService](i)),
			Sequence: handlers.NewSequenceHandler(do.MustInvoke[ports.SequenceService](i)),
			Signal:   handlers.NewSignalHandler(do.MustInvoke[ports.SignalService](i)),
			Health:   handlers.NewHealthHandler(do.MustInvoke[ports.HealthRegistry](i)),
		}, nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		h := do.MustInvoke[adapthttp.Handlers](i)
		tokens := do.MustInvoke[*authtoken.Manager](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(h, tokens,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
			middleware.Timeout(cfg.Server.WriteTimeout),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
