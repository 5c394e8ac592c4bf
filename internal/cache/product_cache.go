package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	allProductsKey = "products:all"
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// CachedProductRepository serves GetByID and GetAll from Redis and falls back
// to the wrapped repository on a miss or any Redis failure. Writes go to the
// wrapped repository and drop the affected keys.
type CachedProductRepository struct {
	repository.ProductRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.ProductRepository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		ProductRepository: realRepo,
		redis:             rdb,
		ttl:               5 * time.Minute,
		logger:            logger,
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.logger.Warn("failed to unmarshal cached product, continuing with db",
				zap.String("key", key), zap.Error(err))
			break
		}

		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.logger.Warn("redis error, continuing with db", zap.String("key", key), zap.Error(err))
	}

	product, err := c.ProductRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				c.logger.Warn("failed to cache notfound", zap.String("key", key), zap.Error(setErr))
			}
		}
		return nil, err
	}

	jsonData, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("failed to marshal product", zap.Int64("product_id", id), zap.Error(err))
		return product, nil
	}

	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache product", zap.String("key", key), zap.Error(err))
	}

	return product, nil
}

func (c *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	data, err := c.redis.Get(ctx, allProductsKey).Bytes()

	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.logger.Warn("failed to unmarshal cached products, continuing with db", zap.Error(err))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis error, continuing with db", zap.String("key", allProductsKey), zap.Error(err))
	}

	products, err := c.ProductRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("failed to marshal products", zap.Error(err))
	} else if err := c.redis.Set(ctx, allProductsKey, jsonData, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache products", zap.Error(err))
	}

	return products, nil
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := c.ProductRepository.Create(ctx, product); err != nil {
		return err
	}
	// a cached miss for the new id must not outlive the insert
	c.Invalidate(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	defer c.Invalidate(ctx, product.ID)
	return c.ProductRepository.Update(ctx, product)
}

func (c *CachedProductRepository) UpdateStock(ctx context.Context, id int64, stock int) error {
	defer c.Invalidate(ctx, id)
	return c.ProductRepository.UpdateStock(ctx, id, stock)
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	defer c.Invalidate(ctx, id)
	return c.ProductRepository.Delete(ctx, id)
}

// Invalidate drops the cached product and the cached product list. It is
// called after a transaction that changed the product has committed.
func (c *CachedProductRepository) Invalidate(ctx context.Context, id int64) {
	if err := c.redis.Del(ctx, productKey(id), allProductsKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
	}
}
