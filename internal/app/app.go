// Package app is the composition root: it builds every dependency once from
// config and owns their lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"nutri/internal/food"
	"nutri/internal/food/events"
	foodmetrics "nutri/internal/food/metrics"
	"nutri/internal/food/models"
	"nutri/internal/food/service"
	"nutri/internal/food/store/cache"
	foodstore "nutri/internal/food/store/food"
	"nutri/internal/messaging"
	msgmetrics "nutri/internal/messaging/metrics"
	"nutri/internal/platform/config"
	"nutri/internal/platform/httpserver"
	httpmetrics "nutri/internal/platform/metrics"
	"nutri/internal/platform/postgres"
	"nutri/internal/platform/redis"
	"nutri/internal/platform/sqlite"
)

// App holds the wired object graph.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	handler  http.Handler
	ingestor *messaging.Ingestor
	checks   map[string]func(context.Context) error
	closers  []func() error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Build wires the application from cfg. On error every resource opened so far
// is released.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		checks:   map[string]func(context.Context) error{},
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	foodMetrics := foodmetrics.New(a.registry)

	policy, err := models.ParseNamePolicy(cfg.Storage.NameMatching)
	if err != nil {
		return nil, err
	}

	repo, err := a.buildStore(ctx, policy)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		a.checks["redis"] = redisClient.Health
		repo = cache.New(repo, redisClient.Client,
			cache.WithTTL(cfg.Redis.CacheTTL),
			cache.WithLogger(logger),
			cache.WithMetrics(foodMetrics),
		)
		logger.InfoContext(ctx, "food cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}

	svc := food.NewService(repo,
		service.WithLogger(logger),
		service.WithMetrics(foodMetrics),
		service.WithNamePolicy(policy),
		service.WithEventPublisher(publisher),
		service.WithPublishTimeout(cfg.Kafka.PublishTimeout),
	)
	a.handler = a.router(food.NewHandler(svc, logger), httpmetrics.New(a.registry))

	if cfg.Messaging.URL != "" {
		m := msgmetrics.New(a.registry)
		source := messaging.NewWebsocketSource(cfg.Messaging.URL,
			messaging.WithToken(cfg.Messaging.Token),
			messaging.WithReconnectDelay(cfg.Messaging.ReconnectDelay),
			messaging.WithSourceLogger(logger),
			messaging.WithSourceMetrics(m),
		)
		a.ingestor = messaging.NewIngestor(source, messaging.NewLogHandler(logger),
			messaging.WithWorkers(cfg.Messaging.Workers),
			messaging.WithLogger(logger),
			messaging.WithMetrics(m),
		)
	}

	return a, nil
}

func (a *App) buildStore(ctx context.Context, policy models.NamePolicy) (service.Repository, error) {
	opts := []foodstore.Option{foodstore.WithNamePolicy(policy)}
	storage := a.cfg.Storage

	var (
		db    *sql.DB
		err   error
		store service.Repository
	)
	switch storage.Driver {
	case config.DriverMemory:
		a.logger.InfoContext(ctx, "using in-memory food store")
		return foodstore.NewInMemory(opts...), nil
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, storage)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		store = foodstore.NewPostgres(db, opts...)
	case config.DriverSQLite:
		db, err = sqlite.Open(storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqlite.EnsureSchema(db); err != nil {
			return nil, err
		}
		store = foodstore.NewSQLite(db, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}

	if p, ok := store.(pinger); ok {
		a.checks["storage"] = p.Ping
	}
	a.logger.InfoContext(ctx, "food store ready", "driver", storage.Driver)
	return store, nil
}

func (a *App) buildPublisher(ctx context.Context) (service.EventPublisher, error) {
	brokers := a.cfg.Kafka.BrokerList()
	if len(brokers) == 0 {
		return events.NopPublisher{}, nil
	}
	pub, err := events.NewKafkaPublisher(brokers, a.cfg.Kafka.Topic,
		events.WithKafkaLogger(a.logger),
		events.WithDeliveryTimeout(a.cfg.Kafka.PublishTimeout),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pub.Close)
	a.checks["kafka"] = pub.Ping

	if err := pub.EnsureTopic(ctx, 1, 1); err != nil {
		a.logger.WarnContext(ctx, "could not ensure food event topic", "topic", a.cfg.Kafka.Topic, "error", err)
	}
	a.logger.InfoContext(ctx, "food events enabled", "brokers", brokers, "topic", a.cfg.Kafka.Topic)
	return pub, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and runs message ingestion until ctx is cancelled, then
// shuts both down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	srv := httpserver.New(a.cfg.Server.Addr, a.handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "http server listening", "addr", a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.InfoContext(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if a.ingestor != nil {
		g.Go(func() error {
			return a.ingestor.Run(gctx)
		})
	}

	return g.Wait()
}

// Close releases stores and clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
