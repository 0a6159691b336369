package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/clubs/internal/api"
	"example.com/clubs/internal/catalog"
	"example.com/clubs/internal/config"
	"example.com/clubs/internal/domain"
	"example.com/clubs/internal/observability"
	"example.com/clubs/internal/outbox"
	persistence "example.com/clubs/internal/persistence/postgres"
	httptransport "example.com/clubs/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("clubs api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activities, err := catalog.Resolve(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	registry, err := domain.NewRegistry(activities)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	var opts []domain.Option
	var dispatcher *outbox.Dispatcher
	if cfg.EventsEnabled() {
		queue := outbox.NewQueue(cfg.RosterTopic, cfg.OutboxCapacity)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		var failures outbox.FailureSink = outbox.NewLogSink(logger)
		if cfg.PostgresURL != "" {
			pool, err := pgxpool.New(ctx, cfg.PostgresURL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			if err := persistence.Migrate(ctx, pool); err != nil {
				return err
			}
			failures = outbox.NewDLQWriter(pool)
		}

		dispatcher = outbox.NewDispatcher(queue, producer, outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL),
			failures, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
		go dispatcher.Start(ctx)

		opts = append(opts, domain.WithPublisher(queue))
		logger.Info("roster events enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.RosterTopic),
		)
	}

	service := domain.NewService(registry, opts...)

	mux := http.NewServeMux()
	api.NewHandler(service, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Chain(mux,
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.AllowedOrigins),
	))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("clubs api listening",
			zap.String("address", cfg.HTTPAddress),
			zap.Int("activities", len(activities)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info("shutdown requested")
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	// Stop the dispatcher only after in-flight requests have enqueued their events.
	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return nil
}
