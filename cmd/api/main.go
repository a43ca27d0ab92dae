package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/greenbasket/storefront/api/routes"
	"github.com/greenbasket/storefront/api/validators"
	"github.com/greenbasket/storefront/internal/adminqueue"
	"github.com/greenbasket/storefront/internal/addresses"
	checkoutsvc "github.com/greenbasket/storefront/internal/checkout"
	"github.com/greenbasket/storefront/internal/pricing"
	"github.com/greenbasket/storefront/internal/preferences"
	"github.com/greenbasket/storefront/internal/selection"
	"github.com/greenbasket/storefront/internal/vouchers"
	"github.com/greenbasket/storefront/internal/wishlist"
	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/clients/catalogapi"
	"github.com/greenbasket/storefront/pkg/clients/orderapi"
	"github.com/greenbasket/storefront/pkg/clients/rest"
	"github.com/greenbasket/storefront/pkg/clients/topupapi"
	"github.com/greenbasket/storefront/pkg/clients/userapi"
	"github.com/greenbasket/storefront/pkg/clients/voucherapi"
	"github.com/greenbasket/storefront/pkg/clients/walletapi"
	"github.com/greenbasket/storefront/pkg/config"
	"github.com/greenbasket/storefront/pkg/db"
	"github.com/greenbasket/storefront/pkg/eventbus"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/metrics"
	"github.com/greenbasket/storefront/pkg/migrate"
	"github.com/greenbasket/storefront/pkg/redis"
	"github.com/greenbasket/storefront/pkg/statestore"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store       statestore.Store
		redisClient *redis.Client
	)
	switch cfg.FeatureFlags.StateBackend {
	case "db":
		dbClient, err := db.New(rootCtx, cfg.DB, logg)
		if err != nil {
			logg.Error(rootCtx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		if err := migrate.MaybeRunDev(rootCtx, cfg, logg, dbClient); err != nil {
			logg.Error(rootCtx, "failed to run dev migrations", err)
			os.Exit(1)
		}
		store, err = statestore.NewGormStore(dbClient.DB())
		if err != nil {
			logg.Error(rootCtx, "failed to create state store", err)
			os.Exit(1)
		}
	default:
		redisClient, err = redis.New(rootCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(rootCtx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store, err = statestore.NewRedisStore(redisClient)
		if err != nil {
			logg.Error(rootCtx, "failed to create state store", err)
			os.Exit(1)
		}
	}

	var bus eventbus.Bus = eventbus.NewMemoryBus()
	if redisClient != nil {
		bridge, err := eventbus.NewRedisBridge(
			bus.(*eventbus.MemoryBus),
			redisClient,
			logg,
			eventbus.TopicCartRefreshed,
			eventbus.TopicVouchersChanged,
			eventbus.TopicBalanceRefreshed,
			eventbus.TopicSelectionEmpty,
			eventbus.TopicCheckoutCompleted,
			eventbus.TopicQueueGrowth,
		)
		if err != nil {
			logg.Error(rootCtx, "failed to create event bridge", err)
			os.Exit(1)
		}
		go func() {
			if err := bridge.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(rootCtx, "event bridge stopped", err)
			}
		}()
		bus = bridge
	}

	timeout := rest.WithTimeout(cfg.Services.Timeout)
	cartClient, err := cartapi.NewClient(cfg.Services.CartURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create cart client", err)
		os.Exit(1)
	}
	walletClient, err := walletapi.NewClient(cfg.Services.WalletURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create wallet client", err)
		os.Exit(1)
	}
	orderClient, err := orderapi.NewClient(cfg.Services.OrderURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create order client", err)
		os.Exit(1)
	}
	voucherClient, err := voucherapi.NewClient(cfg.Services.VoucherURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create voucher client", err)
		os.Exit(1)
	}
	topupClient, err := topupapi.NewClient(cfg.Services.TopUpURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create top-up client", err)
		os.Exit(1)
	}
	catalogClient, err := catalogapi.NewClient(cfg.Services.CatalogURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create catalog client", err)
		os.Exit(1)
	}
	userClient, err := userapi.NewClient(cfg.Services.UserURL, timeout)
	if err != nil {
		logg.Error(rootCtx, "failed to create user client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	pollerMetrics := metrics.NewPollerMetrics(registry)

	fees := pricing.FeesFromConfig(cfg.Pricing)

	selectionSvc, err := selection.NewService(cartClient, store, bus, logg, cfg.Selection.EmptyGuardDelay)
	if err != nil {
		logg.Error(rootCtx, "failed to create selection service", err)
		os.Exit(1)
	}
	defer selectionSvc.Close()

	voucherSvc, err := vouchers.NewService(voucherClient, store, bus, logg)
	if err != nil {
		logg.Error(rootCtx, "failed to create voucher service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Selection: selectionSvc,
		Discounts: voucherSvc,
		Wallet:    walletClient,
		Orders:    orderClient,
		Cart:      cartClient,
		Store:     store,
		Bus:       bus,
		Logger:    logg,
		Metrics:   checkoutMetrics,
		Fees:      fees,
		Validate:  validators.Validator(),
	})
	if err != nil {
		logg.Error(rootCtx, "failed to create checkout service", err)
		os.Exit(1)
	}

	addressSvc, err := addresses.NewService(store, validators.Validator())
	if err != nil {
		logg.Error(rootCtx, "failed to create address service", err)
		os.Exit(1)
	}

	wishlistSvc, err := wishlist.NewService(catalogClient, store, logg)
	if err != nil {
		logg.Error(rootCtx, "failed to create wishlist service", err)
		os.Exit(1)
	}

	preferencesSvc, err := preferences.NewService(store)
	if err != nil {
		logg.Error(rootCtx, "failed to create preferences service", err)
		os.Exit(1)
	}

	topUpSvc, err := adminqueue.NewTopUpService(topupClient)
	if err != nil {
		logg.Error(rootCtx, "failed to create top-up queue", err)
		os.Exit(1)
	}

	productSvc, err := adminqueue.NewProductService(catalogClient)
	if err != nil {
		logg.Error(rootCtx, "failed to create product queue", err)
		os.Exit(1)
	}

	poller, err := adminqueue.NewPoller(topupClient, catalogClient, bus, logg, pollerMetrics, cfg.AdminPoll.Interval)
	if err != nil {
		logg.Error(rootCtx, "failed to create queue poller", err)
		os.Exit(1)
	}
	go func() {
		if err := poller.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(rootCtx, "queue poller stopped", err)
		}
	}()

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Selection:   selectionSvc,
		Vouchers:    voucherSvc,
		Checkout:    checkoutSvc,
		Addresses:   addressSvc,
		Wishlist:    wishlistSvc,
		Preferences: preferencesSvc,
		TopUps:      topUpSvc,
		Products:    productSvc,
		Poller:      poller,
		Wallet:      walletClient,
		Users:       userClient,
		Bus:         bus,
		Fees:        fees,
		Gatherer:    registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "gateway shut down")
}
