package catalog

import (
	"context"
	"testing"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/repository"
	"sales-service/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCache struct {
	repository.ProductRepository
	invalidated []int64
}

func (c *fakeCache) Invalidate(_ context.Context, id int64) {
	c.invalidated = append(c.invalidated, id)
}

func seedSale(t *testing.T, store *memstore.Store) (*models.Customer, *models.Product) {
	t.Helper()
	ctx := context.Background()

	c := &models.Customer{Name: "Ana"}
	require.NoError(t, store.Customers().Create(ctx, c))
	p := &models.Product{Name: "Baguette", Price: decimal.RequireFromString("2.50"), Stock: 10}
	require.NoError(t, store.Products().Create(ctx, p))
	require.NoError(t, store.Sales().Create(ctx, &models.Sale{
		CustomerID: c.ID, ProductID: p.ID, Quantity: 2, SoldAt: time.Now(),
	}))

	return c, p
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := ParseDeletePolicy("cascade")
	require.NoError(t, err)
	assert.Equal(t, Cascade, p)

	_, err = ParseDeletePolicy("orphan")
	assert.Error(t, err)
}

func TestCustomerService_CRUD(t *testing.T) {
	store := memstore.New()
	svc := NewCustomerService(store, Cascade, zaptest.NewLogger(t))
	ctx := context.Background()

	c := &models.Customer{Name: "Marta", Phone: "555-0199"}
	require.NoError(t, svc.Create(ctx, c))
	assert.NotZero(t, c.ID)

	byName, err := svc.GetByName(ctx, "Marta")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	_, err = svc.GetByName(ctx, "Nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c.Phone = "555-0200"
	require.NoError(t, svc.Update(ctx, c))
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0200", got.Phone)

	err = svc.Create(ctx, &models.Customer{Name: ""})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), repository.ErrNotFound)
}

func TestCustomerService_DeletePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("cascade removes sales", func(t *testing.T) {
		store := memstore.New()
		c, p := seedSale(t, store)
		svc := NewCustomerService(store, Cascade, zaptest.NewLogger(t))

		require.NoError(t, svc.Delete(ctx, c.ID))

		sales, err := store.Sales().GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, sales)

		product, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("restrict refuses", func(t *testing.T) {
		store := memstore.New()
		c, _ := seedSale(t, store)
		svc := NewCustomerService(store, Restrict, zaptest.NewLogger(t))

		assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrHasSales)

		_, err := store.Customers().GetByID(ctx, c.ID)
		assert.NoError(t, err)
	})
}

func TestProductService_CRUD(t *testing.T) {
	store := memstore.New()
	cache := &fakeCache{ProductRepository: store.Products()}
	svc := NewProductService(store, cache, Restrict, zaptest.NewLogger(t))
	ctx := context.Background()

	p := &models.Product{Name: "Pan de Yema", Price: decimal.RequireFromString("1.75"), Stock: 12}
	require.NoError(t, svc.Create(ctx, p))

	found, err := svc.Search(ctx, "yema")
	require.NoError(t, err)
	require.Len(t, found, 1)

	none, err := svc.Search(ctx, "pretzel")
	require.NoError(t, err)
	assert.Empty(t, none)

	exact, err := svc.GetByName(ctx, "Pan de Yema")
	require.NoError(t, err)
	assert.Equal(t, p.ID, exact.ID)

	_, err = svc.GetByName(ctx, "Pan")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	update := &models.Product{ID: p.ID, Name: "Pan de Yema", Price: decimal.RequireFromString("2.00"), Stock: 0}
	require.NoError(t, svc.Update(ctx, update))
	assert.Equal(t, 12, update.Stock)

	err = svc.Create(ctx, &models.Product{Name: "Pan de Yema", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = svc.Create(ctx, &models.Product{Name: "Free", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, []int64{p.ID}, cache.invalidated)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductService_DeletePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("restrict refuses", func(t *testing.T) {
		store := memstore.New()
		_, p := seedSale(t, store)
		svc := NewProductService(store, nil, Restrict, zaptest.NewLogger(t))

		assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrHasSales)
		_, err := store.Products().GetByID(ctx, p.ID)
		assert.NoError(t, err)
	})

	t.Run("cascade removes sales", func(t *testing.T) {
		store := memstore.New()
		c, p := seedSale(t, store)
		svc := NewProductService(store, nil, Cascade, zaptest.NewLogger(t))

		require.NoError(t, svc.Delete(ctx, p.ID))

		sales, err := store.Sales().GetByCustomerID(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})

	t.Run("missing product", func(t *testing.T) {
		svc := NewProductService(memstore.New(), nil, Cascade, zaptest.NewLogger(t))
		assert.ErrorIs(t, svc.Delete(ctx, 42), repository.ErrNotFound)
	})
}
