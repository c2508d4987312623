// @title                       commerce-core API
// @version                     1.0
// @description                 Users, carts, checkout and receipts for the storefront.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/storefront/commerce-core/docs"
	"github.com/storefront/commerce-core/internal/api"
	"github.com/storefront/commerce-core/internal/api/handler"
	"github.com/storefront/commerce-core/internal/core/ports"
	"github.com/storefront/commerce-core/internal/core/service"
	"github.com/storefront/commerce-core/internal/infrastructure/db/memory"
	"github.com/storefront/commerce-core/internal/infrastructure/db/mongo"
	"github.com/storefront/commerce-core/internal/infrastructure/db/postgres"
	"github.com/storefront/commerce-core/internal/infrastructure/db/redis"
	"github.com/storefront/commerce-core/internal/infrastructure/queue"
	"github.com/storefront/commerce-core/internal/pkg/config"
	"github.com/storefront/commerce-core/pkg/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "commerce-core",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// storage is the set of repositories selected by STORAGE_DRIVER, plus the
// probes and closers of whatever backends were opened for them.
type storage struct {
	users    ports.UserRepository
	carts    ports.CartRepository
	receipts ports.ReceiptRepository
	locker   ports.CheckoutLocker

	checks  map[string]handler.PingFunc
	closers []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	cleaner := queue.NewCartCleanupDispatcher(cfg.Checkout.CleanupWorkers, store.carts, log)
	cleaner.Start(workerCtx)

	pricing := service.NewPricingService()
	tokens := service.NewJwtService(cfg.Tokens)
	authService := service.NewAuthService(store.users, tokens, cfg.BcryptCost, log)

	e := api.NewRouter(api.Dependencies{
		AuthService:     authService,
		CartService:     service.NewCartService(store.carts, pricing, log),
		CheckoutService: service.NewCheckoutService(store.carts, store.users, store.receipts, pricing, store.locker, cleaner, log),
		ReceiptService:  service.NewReceiptService(store.receipts, log),
		HealthChecks:    store.checks,
		Logger:          log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	store := &storage{checks: make(map[string]handler.PingFunc)}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		store.users = memory.NewUserRepository()
		store.carts = memory.NewCartRepository()
		store.receipts = memory.NewReceiptRepository()
		store.locker = memory.NewCheckoutLocker()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return store, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, pool.Close)
		store.checks["postgres"] = pool.Ping
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			store.close()
			return nil, err
		}
		store.users = postgres.NewUserRepository(pool)
		store.carts = postgres.NewCartRepository(pool)
		if err := openReceipts(ctx, cfg, store, nil); err != nil {
			store.close()
			return nil, err
		}

	case config.DriverMongo:
		var users *mongo.UserRepository
		var carts *mongo.CartRepository
		err := openReceipts(ctx, cfg, store, func(db *gomongo.Database) []mongo.IndexedRepository {
			users = mongo.NewUserRepository(db)
			carts = mongo.NewCartRepository(db)
			return []mongo.IndexedRepository{users, carts}
		})
		if err != nil {
			store.close()
			return nil, err
		}
		store.users = users
		store.carts = carts
	}

	rdb, err := openRedis(ctx, cfg, store)
	if err != nil {
		store.close()
		return nil, err
	}
	if rdb != nil {
		store.locker = redis.NewCheckoutLocker(rdb, cfg.Checkout.LockTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, checkout locking is process-local and receipts are not cached")
		store.locker = memory.NewCheckoutLocker()
	}
	store.receipts = redis.NewCachingReceiptRepository(rdb, cfg.Checkout.ReceiptCacheTTL, store.receipts)

	return store, nil
}

// openReceipts connects to Mongo, which always holds receipts outside the
// memory driver. extra lets the caller build more Mongo repositories on the
// same database before indexes are ensured.
func openReceipts(
	ctx context.Context,
	cfg *config.Config,
	store *storage,
	extra func(db *gomongo.Database) []mongo.IndexedRepository,
) error {
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "commerce-core",
	})
	if err != nil {
		return err
	}
	store.closers = append(store.closers, func() {
		_ = client.Disconnect(context.Background())
	})
	store.checks["mongodb"] = func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}

	receipts := mongo.NewReceiptRepository(db)
	indexed := []mongo.IndexedRepository{receipts}
	if extra != nil {
		indexed = append(indexed, extra(db)...)
	}
	if err := mongo.EnsureIndexes(ctx, indexed...); err != nil {
		return err
	}
	store.receipts = receipts
	return nil
}

func openRedis(ctx context.Context, cfg *config.Config, store *storage) (*goredis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	store.closers = append(store.closers, func() { _ = rdb.Close() })
	store.checks["redis"] = func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
	return rdb, nil
}

