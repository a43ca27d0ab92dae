package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greenbasket/storefront/internal/adminqueue"
	"github.com/greenbasket/storefront/pkg/clients/catalogapi"
	"github.com/greenbasket/storefront/pkg/clients/rest"
	"github.com/greenbasket/storefront/pkg/clients/topupapi"
	"github.com/greenbasket/storefront/pkg/config"
	"github.com/greenbasket/storefront/pkg/eventbus"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/metrics"
	"github.com/greenbasket/storefront/pkg/redis"
)

// Standalone runner for the admin review queue poller, for deployments
// that keep the API instances stateless and fan events out over Redis.
func main() {
	logg := logger.New(logger.Options{ServiceName: "queue-poller"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "queue-poller",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bridge, err := eventbus.NewRedisBridge(
		eventbus.NewMemoryBus(),
		redisClient,
		logg,
		eventbus.TopicQueueGrowth,
	)
	if err != nil {
		logg.Error(ctx, "failed to create event bridge", err)
		os.Exit(1)
	}
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "event bridge stopped", err)
		}
	}()

	timeout := rest.WithTimeout(cfg.Services.Timeout)
	topupClient, err := topupapi.NewClient(cfg.Services.TopUpURL, timeout)
	if err != nil {
		logg.Error(ctx, "failed to create top-up client", err)
		os.Exit(1)
	}
	catalogClient, err := catalogapi.NewClient(cfg.Services.CatalogURL, timeout)
	if err != nil {
		logg.Error(ctx, "failed to create catalog client", err)
		os.Exit(1)
	}

	pollerMetrics := metrics.NewPollerMetrics(prometheus.DefaultRegisterer)

	poller, err := adminqueue.NewPoller(topupClient, catalogClient, bridge, logg, pollerMetrics, cfg.AdminPoll.Interval)
	if err != nil {
		logg.Error(ctx, "failed to create queue poller", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "interval", cfg.AdminPoll.Interval.String()), "starting queue poller")

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "queue poller stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "queue poller shut down")
}
