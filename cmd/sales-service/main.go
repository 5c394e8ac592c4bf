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

	"sales-service/internal/api"
	"sales-service/internal/cache"
	"sales-service/internal/catalog"
	"sales-service/internal/config"
	"sales-service/internal/database"
	"sales-service/internal/events"
	"sales-service/internal/observability"
	"sales-service/internal/repository"
	"sales-service/internal/repository/memstore"
	"sales-service/internal/sales"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sales-service:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.IsDevelopment(), cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var productCache *cache.CachedProductRepository
	if cfg.Redis.URL != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		productCache = cache.NewCachedProductRepository(store.Products(), rdb, logger)
	} else {
		logger.Info("REDIS_URL not set, product cache disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.SalesTopic, otel.GetTracerProvider(), logger)
		if err != nil {
			return err
		}
		publisher = kp
		logger.Info("publishing sale events", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.SalesTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close publisher", zap.Error(err))
		}
	}()

	services, err := buildServices(cfg, store, productCache, publisher, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(services, otel.GetTracerProvider(), logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DB, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrations failed: %w", err)
	}

	return repository.NewStore(pool), pool.Close, nil
}

func buildServices(
	cfg *config.Config,
	store repository.Store,
	productCache *cache.CachedProductRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) (api.Services, error) {
	customerPolicy, err := catalog.ParseDeletePolicy(cfg.CustomerDeletePolicy)
	if err != nil {
		return api.Services{}, err
	}
	productPolicy, err := catalog.ParseDeletePolicy(cfg.ProductDeletePolicy)
	if err != nil {
		return api.Services{}, err
	}
	salePolicy, err := sales.ParseDeletePolicy(cfg.SaleDeletePolicy)
	if err != nil {
		return api.Services{}, err
	}

	saleOpts := []sales.Option{
		sales.WithPublisher(publisher),
		sales.WithDeletePolicy(salePolicy),
	}

	// A nil *CachedProductRepository must not become a non-nil interface.
	var products catalog.ProductCache
	if productCache != nil {
		products = productCache
		saleOpts = append(saleOpts, sales.WithCache(productCache))
	}

	return api.Services{
		Customers: catalog.NewCustomerService(store, customerPolicy, logger.Named("customers")),
		Products:  catalog.NewProductService(store, products, productPolicy, logger.Named("products")),
		Sales:     sales.NewService(store, logger.Named("sales"), saleOpts...),
	}, nil
}
