package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"taskgrid/internal/application"
	"taskgrid/internal/config"
	"taskgrid/internal/logging"
	"taskgrid/internal/manifest"
	"taskgrid/internal/observability"
	"taskgrid/internal/session"
	transporthttp "taskgrid/internal/transport/http"
	"taskgrid/internal/transport/pubsub"
	"taskgrid/internal/transport/queue"
)

var (
	manifestPath string
	metricsAddr  string
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, pub/sub, and queue transports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(context.Background())
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to a static manager-registration manifest (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address the prometheus /metrics endpoint binds to")
	return cmd
}

func runServe(ctx context.Context) error {
	logger := logging.NewComponentLogger("taskgridd")

	cfg, err := config.Load(configName, configPath...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if manifestPath != "" {
		cfg.ManifestPath = manifestPath
	}

	app, cleanup, err := buildApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer cleanup()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped: %v", err)
		}
	}()

	runErr := app.Run(runCtx)
	_ = metricsSrv.Shutdown(context.Background())
	return runErr
}

// buildApplication is taskgridd's composition root: it mirrors the
// teacher's internal/di.Container in spirit (wire dependencies once,
// return a value whose Start/Stop — here Run/Stop — the caller drives)
// without introducing a parallel container type, since *application.Application
// already plays that role (§3).
func buildApplication(cfg config.Config, logger *logging.Logger) (*application.Application, func(), error) {
	pool, err := session.NewPool(session.PoolConfig{
		Max:               cfg.SessionPoolMax,
		RemoveBatchSize:   cfg.SessionEvictionBatchSize,
		InactiveThreshold: cfg.SessionInactiveThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building session pool: %w", err)
	}

	opts := []application.Option{
		application.WithSessionPool(pool),
		application.WithMiddleware(observability.MetricsMiddleware(observability.NewMetrics())),
		application.WithMiddleware(observability.NewTracer("taskgridd").Middleware()),
	}
	if cfg.JWTSigningSecret != "" {
		secret := []byte(cfg.JWTSigningSecret)
		opts = append(opts, application.WithJWTKeyFunc(func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}))
	}

	app := application.New(opts...)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	pool.StartSweeper(sweepCtx, cfg.SessionSweepInterval)

	app.AddTransport(transporthttp.New(cfg.HTTPListenAddr))

	var closers []func()
	closers = append(closers, cancelSweep)

	if cfg.PubSubBrokerDSN != "" {
		client, err := newRedisClient(cfg.PubSubBrokerDSN)
		if err != nil {
			runClosers(closers)
			return nil, nil, fmt.Errorf("pub/sub broker: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		app.AddTransport(pubsub.New(client, []string{cfg.EventBusChannel}))
	}

	if cfg.QueueBrokerDSN != "" {
		client, err := newRedisClient(cfg.QueueBrokerDSN)
		if err != nil {
			runClosers(closers)
			return nil, nil, fmt.Errorf("queue broker: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		app.AddTransport(queue.New(client, "taskgrid.jobs"))
	}

	if cfg.ManifestPath != "" {
		m, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			runClosers(closers)
			return nil, nil, fmt.Errorf("loading manifest: %w", err)
		}
		stores := demoStoresFor(m)
		if err := manifest.Apply(m, stores, app, "http"); err != nil {
			runClosers(closers)
			return nil, nil, fmt.Errorf("applying manifest: %w", err)
		}
		logger.Info("loaded %d manager(s) from %s", len(m.Managers), cfg.ManifestPath)
	}

	cleanup := func() { runClosers(closers) }
	return app, cleanup, nil
}

func newRedisClient(dsn string) (*redis.Client, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing redis DSN: %w", err)
	}
	return redis.NewClient(opts), nil
}

func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
