package main

import (
	"context"
	"errors"
	"log"
	"time"

	"sales-service/internal/config"
	"sales-service/internal/database"
	"sales-service/internal/models"
	"sales-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var demoCustomers = []models.Customer{
	{Name: "María González", Phone: "+34 600 111 222"},
	{Name: "Javier Ruiz", Phone: "+34 600 333 444"},
	{Name: "Lucía Fernández"},
}

var demoProducts = []struct {
	name  string
	price string
	stock int
}{
	{"Baguette", "1.20", 80},
	{"Croissant", "1.50", 60},
	{"Pan de centeno", "3.40", 25},
	{"Ensaimada", "2.80", 30},
	{"Tarta de Santiago", "18.00", 5},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("failed to create logger: ", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	var now time.Time
	if err := pool.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		logger.Fatal("query failed", zap.Error(err))
	}
	logger.Info("database time", zap.Time("now", now))

	store := repository.NewStore(pool)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := seedCustomers(ctx, tx, logger); err != nil {
			return err
		}
		return seedProducts(ctx, tx, logger)
	})
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	logger.Info("seed complete")
}

func seedCustomers(ctx context.Context, tx repository.Store, logger *zap.Logger) error {
	for _, c := range demoCustomers {
		_, err := tx.Customers().GetByName(ctx, c.Name)
		if err == nil {
			logger.Info("customer exists, skipping", zap.String("name", c.Name))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := tx.Customers().Create(ctx, &c); err != nil {
			return err
		}
		logger.Info("customer created", zap.Int64("id", c.ID), zap.String("name", c.Name))
	}
	return nil
}

func seedProducts(ctx context.Context, tx repository.Store, logger *zap.Logger) error {
	for _, d := range demoProducts {
		_, err := tx.Products().GetByName(ctx, d.name)
		if err == nil {
			logger.Info("product exists, skipping", zap.String("name", d.name))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		p := &models.Product{
			Name:  d.name,
			Price: decimal.RequireFromString(d.price),
			Stock: d.stock,
		}
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		logger.Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name), zap.Int("stock", p.Stock))
	}
	return nil
}
