package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sales-service/internal/events"
	"sales-service/internal/inventory"
	"sales-service/internal/models"
	"sales-service/internal/repository"
	"sales-service/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.SaleEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type invalidations struct {
	mu  sync.Mutex
	ids []int64
}

func (i *invalidations) Invalidate(_ context.Context, productID int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, productID)
}

type fixture struct {
	store    *memstore.Store
	service  *Service
	customer *models.Customer
	product  *models.Product
}

func newFixture(t *testing.T, stock int, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	customer := &models.Customer{Name: "Ana", Phone: "555-0101"}
	require.NoError(t, store.Customers().Create(ctx, customer))

	product := &models.Product{Name: "Baguette", Price: decimal.RequireFromString("2.50"), Stock: stock}
	require.NoError(t, store.Products().Create(ctx, product))

	return &fixture{
		store:    store,
		service:  NewService(store, zaptest.NewLogger(t), opts...),
		customer: customer,
		product:  product,
	}
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), f.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	all, err := f.store.Sales().GetAll(context.Background())
	require.NoError(t, err)
	return len(all)
}

func TestRegisterSale_Success(t *testing.T) {
	f := newFixture(t, 10)
	start := time.Now()

	res, err := f.service.RegisterSale(context.Background(), RegisterSaleRequest{
		CustomerID: f.customer.ID,
		ProductID:  f.product.ID,
		Quantity:   3,
	})
	require.NoError(t, err)

	assert.NotZero(t, res.ID)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, f.customer.ID, res.CustomerID)
	assert.Equal(t, "Ana", res.CustomerName)
	assert.Equal(t, f.product.ID, res.ProductID)
	assert.Equal(t, "Baguette", res.ProductName)
	assert.False(t, res.SoldAt.Before(start), "sale timestamp %v earlier than call start %v", res.SoldAt, start)

	assert.Equal(t, 7, f.stock(t))
	assert.Equal(t, 1, f.saleCount(t))

	pair, err := f.service.ListByCustomerAndProduct(context.Background(), f.customer.ID, f.product.ID)
	require.NoError(t, err)
	require.Len(t, pair, 1)
	assert.Equal(t, 3, pair[0].Quantity)
}

func TestRegisterSale_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		customerID func(f *fixture) int64
		productID  func(f *fixture) int64
		quantity   int
		wantErr    error
	}{
		{
			name:       "insufficient stock",
			stock:      2,
			customerID: func(f *fixture) int64 { return f.customer.ID },
			productID:  func(f *fixture) int64 { return f.product.ID },
			quantity:   5,
			wantErr:    inventory.ErrInsufficientStock,
		},
		{
			name:       "unknown customer",
			stock:      10,
			customerID: func(*fixture) int64 { return 999 },
			productID:  func(f *fixture) int64 { return f.product.ID },
			quantity:   1,
			wantErr:    ErrCustomerNotFound,
		},
		{
			name:       "unknown product",
			stock:      10,
			customerID: func(f *fixture) int64 { return f.customer.ID },
			productID:  func(*fixture) int64 { return 999 },
			quantity:   1,
			wantErr:    ErrProductNotFound,
		},
		{
			name:       "zero quantity",
			stock:      10,
			customerID: func(f *fixture) int64 { return f.customer.ID },
			productID:  func(f *fixture) int64 { return f.product.ID },
			quantity:   0,
			wantErr:    inventory.ErrInvalidQuantity,
		},
		{
			name:       "negative quantity with empty stock",
			stock:      0,
			customerID: func(f *fixture) int64 { return f.customer.ID },
			productID:  func(f *fixture) int64 { return f.product.ID },
			quantity:   -4,
			wantErr:    inventory.ErrInvalidQuantity,
		},
		{
			name:       "non-positive customer id",
			stock:      10,
			customerID: func(*fixture) int64 { return 0 },
			productID:  func(f *fixture) int64 { return f.product.ID },
			quantity:   1,
			wantErr:    ErrCustomerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.stock)

			res, err := f.service.RegisterSale(context.Background(), RegisterSaleRequest{
				CustomerID: tt.customerID(f),
				ProductID:  tt.productID(f),
				Quantity:   tt.quantity,
			})

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrPersistence)
			assert.Equal(t, tt.stock, f.stock(t))
			assert.Zero(t, f.saleCount(t))
		})
	}
}

func TestRegisterSale_NotFoundErrorsMatchRepository(t *testing.T) {
	assert.ErrorIs(t, ErrCustomerNotFound, repository.ErrNotFound)
	assert.ErrorIs(t, ErrProductNotFound, repository.ErrNotFound)
	assert.NotErrorIs(t, ErrCustomerNotFound, ErrProductNotFound)
}

func TestRegisterSale_InsufficientStockDetails(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.service.RegisterSale(context.Background(), RegisterSaleRequest{
		CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 5,
	})

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
}

func TestRegisterSale_ExhaustsStockExactly(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	req := RegisterSaleRequest{CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 4}

	_, err := f.service.RegisterSale(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t))

	req.Quantity = 1
	_, err = f.service.RegisterSale(ctx, req)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 0, f.stock(t))
}

// failingSaleStore makes every sale insert fail after the stock update has
// already been written inside the transaction.
type failingSaleStore struct {
	repository.Store
}

type failingSales struct {
	repository.SaleRepository
}

var errDiskFull = errors.New("disk full")

func (failingSales) Create(context.Context, *models.Sale) error {
	return errDiskFull
}

func (s failingSaleStore) Sales() repository.SaleRepository {
	return failingSales{SaleRepository: s.Store.Sales()}
}

func (s failingSaleStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(failingSaleStore{Store: tx})
	})
}

func TestRegisterSale_RollsBackWhenSaleInsertFails(t *testing.T) {
	f := newFixture(t, 10)
	publisher := new(mockPublisher)
	svc := NewService(failingSaleStore{Store: f.store}, zaptest.NewLogger(t), WithPublisher(publisher))

	res, err := svc.RegisterSale(context.Background(), RegisterSaleRequest{
		CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 3,
	})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 10, f.stock(t))
	assert.Zero(t, f.saleCount(t))

	movements, err := f.store.Movements().GetByProductID(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRegisterSale_ConcurrentOversell(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, results[i] = f.service.RegisterSale(ctx, RegisterSaleRequest{
				CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 3,
			})
		}()
	}
	close(start)
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, inventory.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 2, f.stock(t))
	assert.Equal(t, 1, f.saleCount(t))
}

func TestRegisterSale_ConcurrentNeverNegative(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.RegisterSale(ctx, RegisterSaleRequest{
				CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 3,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, succeeded)
	assert.Equal(t, 2, f.stock(t))
	assert.Equal(t, 16, f.saleCount(t))
}

func TestRegisterSale_SideEffectsAfterCommit(t *testing.T) {
	publisher := new(mockPublisher)
	cache := &invalidations{}
	f := newFixture(t, 10, WithPublisher(publisher), WithCache(cache))

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.SaleEvent) bool {
		return e.Type == events.SaleRegistered && e.Sale.Quantity == 2 && e.Sale.ProductName == "Baguette"
	})).Return(errors.New("broker unavailable")).Once()

	res, err := f.service.RegisterSale(context.Background(), RegisterSaleRequest{
		CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 2,
	})

	require.NoError(t, err, "publish failures must not fail a committed sale")
	assert.Equal(t, 8, f.stock(t))
	assert.Equal(t, []int64{res.ProductID}, cache.ids)
	publisher.AssertExpectations(t)
}

// cancelAfterCommitStore cancels the caller's context as soon as the
// transaction has committed, like a client hanging up mid-response.
type cancelAfterCommitStore struct {
	repository.Store
	cancel context.CancelFunc
}

func (s cancelAfterCommitStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	err := s.Store.WithinTx(ctx, fn)
	s.cancel()
	return err
}

func TestRegisterSale_PublishesAfterCallerCancels(t *testing.T) {
	f := newFixture(t, 10)
	publisher := new(mockPublisher)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewService(cancelAfterCommitStore{Store: f.store, cancel: cancel}, zaptest.NewLogger(t), WithPublisher(publisher))

	publisher.On("Publish", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), mock.Anything).Return(nil).Once()

	_, err := svc.RegisterSale(ctx, RegisterSaleRequest{
		CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 1,
	})

	require.NoError(t, err)
	require.Error(t, ctx.Err())
	publisher.AssertExpectations(t)
}

func TestRegisterSale_WritesOutgoingMovement(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	res, err := f.service.RegisterSale(ctx, RegisterSaleRequest{
		CustomerID: f.customer.ID, ProductID: f.product.ID, Quantity: 4,
	})
	require.NoError(t, err)

	movements, err := f.service.ListMovements(ctx, f.product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	m := movements[0]
	assert.Equal(t, models.MovementOutgoing, m.MovementType)
	assert.Equal(t, -4, m.QuantityDelta)
	assert.Equal(t, 6, m.StockAfter)
	require.NotNil(t, m.SaleID)
	assert.Equal(t, res.ID, *m.SaleID)

	_, err = f.service.ListMovements(ctx, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSaleTimestamp_RoundsUpToMicroseconds(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	svc := NewService(memstore.New(), zaptest.NewLogger(t), WithClock(func() time.Time { return at }))

	got := svc.saleTimestamp()
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 123457000, time.UTC), got)
	assert.False(t, got.Before(at))

	exact := time.Date(2026, 1, 2, 3, 4, 5, 123000, time.UTC)
	svc.now = func() time.Time { return exact }
	assert.True(t, svc.saleTimestamp().Equal(exact))
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := ParseDeletePolicy("restock")
	require.NoError(t, err)
	assert.Equal(t, PolicyRestock, p)

	_, err = ParseDeletePolicy("refund")
	assert.Error(t, err)
}
