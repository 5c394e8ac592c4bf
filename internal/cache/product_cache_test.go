package cache

import (
	"context"
	"testing"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/repository"
	"sales-service/internal/repository/memstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingRepo struct {
	repository.ProductRepository
	getByID int
	getAll  int
}

func (r *countingRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.getByID++
	return r.ProductRepository.GetByID(ctx, id)
}

func (r *countingRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	r.getAll++
	return r.ProductRepository.GetAll(ctx)
}

func newTestCache(t *testing.T) (*CachedProductRepository, *countingRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	real := &countingRepo{ProductRepository: memstore.New().Products()}
	return NewCachedProductRepository(real, rdb, zaptest.NewLogger(t)), real, mr
}

func TestGetByID_ReadThrough(t *testing.T) {
	c, real, mr := newTestCache(t)
	ctx := context.Background()

	p := &models.Product{Name: "Baguette", Price: decimal.RequireFromString("2.50"), Stock: 10}
	require.NoError(t, c.Create(ctx, p))

	first, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, real.getByID)
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, second.Price.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, mr.Exists(productKey(p.ID)))
}

func TestGetByID_NegativeCache(t *testing.T) {
	c, real, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = c.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, 1, real.getByID)

	mr.FastForward(notFoundTTL + time.Second)
	_, err = c.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 2, real.getByID)
}

func TestWritesInvalidate(t *testing.T) {
	c, real, mr := newTestCache(t)
	ctx := context.Background()

	p := &models.Product{Name: "Croissant", Price: decimal.NewFromInt(2), Stock: 5}
	require.NoError(t, c.Create(ctx, p))

	_, err := c.GetAll(ctx)
	require.NoError(t, err)
	_, err = c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(allProductsKey))

	require.NoError(t, c.UpdateStock(ctx, p.ID, 3))
	assert.False(t, mr.Exists(allProductsKey))
	assert.False(t, mr.Exists(productKey(p.ID)))

	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 2, real.getByID)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].Stock)
	assert.Equal(t, 2, real.getAll)
}

func TestRedisDown_FallsBackToRepository(t *testing.T) {
	c, real, mr := newTestCache(t)
	ctx := context.Background()

	p := &models.Product{Name: "Rye", Price: decimal.NewFromInt(3), Stock: 1}
	require.NoError(t, c.Create(ctx, p))

	mr.Close()

	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rye", got.Name)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, real.getByID)
}
