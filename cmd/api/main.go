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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/gocart/storefront/api/controllers"
	"github.com/gocart/storefront/api/routes"
	"github.com/gocart/storefront/internal/analytics"
	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/internal/catalog"
	checkoutsvc "github.com/gocart/storefront/internal/checkout"
	"github.com/gocart/storefront/internal/orders"
	"github.com/gocart/storefront/internal/pricing"
	"github.com/gocart/storefront/pkg/backend"
	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/db"
	"github.com/gocart/storefront/pkg/geocode"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/metrics"
	"github.com/gocart/storefront/pkg/migrate"
	"github.com/gocart/storefront/pkg/mongo"
	"github.com/gocart/storefront/pkg/redis"
)

const (
	shutdownTimeout   = 15 * time.Second
	checkoutLockTTL   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// cartBackend is a storage adapter serving both carts and profiles.
type cartBackend interface {
	cart.Storage
	cart.ProfileStorage
}

// closers collects shutdown hooks in reverse open order.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) {
	*c = append(*c, fn)
}

func (c closers) closeAll(ctx context.Context) error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i](ctx))
	}
	return err
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var shutdown closers
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := shutdown.closeAll(closeCtx); closeErr != nil {
			logg.Error(closeCtx, "error closing resources", closeErr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefront(reg)

	health := map[string]controllers.Pinger{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		shutdown.add(func(context.Context) error { return redisClient.Close() })
		health["redis"] = redisClient
	}

	storage, err := openCartStorage(ctx, cfg, logg, redisClient, health, &shutdown)
	if err != nil {
		return err
	}

	orderBackend, err := backend.NewClient(cfg.Backend, backend.WithMetrics(storefrontMetrics), backend.WithLogger(logg))
	if err != nil {
		return fmt.Errorf("create order backend client: %w", err)
	}
	geocoder, err := geocode.NewClient(cfg.Geocode)
	if err != nil {
		return fmt.Errorf("create geocoder: %w", err)
	}

	sessions := cart.NewSessions(storage,
		cart.WithMetrics(storefrontMetrics),
		cart.WithListener(func(_ string, snapshot cart.Snapshot) {
			storefrontMetrics.ObserveCartLines(snapshot.Len())
		}),
	)
	engine := pricing.NewEngine(pricing.RulesFromConfig(cfg.Pricing))

	catalogSvc, err := catalog.NewService(orderBackend)
	if err != nil {
		return fmt.Errorf("create catalog service: %w", err)
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Backend:     orderBackend,
		VendorQuery: cfg.Backend.VendorQuery,
		Metrics:     storefrontMetrics,
		Logger:      logg,
	})
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}

	var guard checkoutsvc.Guard = checkoutsvc.NewMemoryGuard()
	if redisClient != nil {
		guard = checkoutsvc.NewRedisGuard(redisClient, checkoutLockTTL)
	}
	checkout, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:    sessions,
		Pricing:  engine,
		Backend:  orderBackend,
		Profiles: storage,
		Guard:    guard,
		Metrics:  storefrontMetrics,
		Logger:   logg,
	})
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}
	analyticsSvc, err := analytics.NewService(ordersSvc, orderBackend)
	if err != nil {
		return fmt.Errorf("create analytics service: %w", err)
	}

	infra := routes.Infra{
		Metrics:  storefrontMetrics,
		Gatherer: reg,
		Health:   health,
	}
	if redisClient != nil {
		infra.Idempotency = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys are not enforced")
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, infra, routes.Services{
			Carts:     sessions,
			Catalog:   catalogSvc,
			Pricing:   engine,
			Profiles:  storage,
			Geocoder:  geocoder,
			Checkout:  checkout,
			Orders:    ordersSvc,
			Analytics: analyticsSvc,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"cart_storage": cfg.Cart.Storage,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openCartStorage(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	health map[string]controllers.Pinger,
	shutdown *closers,
) (cartBackend, error) {
	switch cfg.Cart.Storage {
	case config.CartStorageRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("cart storage %q requires %s", cfg.Cart.Storage, config.EnvRedisURL)
		}
		return cart.NewRedisStorage(redisClient), nil

	case config.CartStorageSQL:
		dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		shutdown.add(func(context.Context) error { return dbClient.Close() })
		health["database"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, fmt.Errorf("run dev migrations: %w", err)
		}
		return cart.NewSQLStorage(dbClient.DB()), nil

	case config.CartStorageMongo:
		mongoClient, err := mongo.New(ctx, cfg.Mongo, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap mongo: %w", err)
		}
		shutdown.add(mongoClient.Close)
		health["mongo"] = mongoClient

		storage := cart.NewMongoStorage(mongoClient.Database())
		if err := storage.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return storage, nil

	default:
		logg.Warn(ctx, "using in-memory cart storage; carts are lost on restart")
		return cart.NewMemoryStorage(), nil
	}
}
