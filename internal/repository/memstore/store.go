// Package memstore keeps customers, products, sales and stock movements in
// process memory. Transactions are serializable: WithinTx holds a store-wide
// lock for the whole callback and restores a snapshot when it fails.
package memstore

import (
	"context"
	"maps"
	"sync"

	"sales-service/internal/models"
	"sales-service/internal/repository"
)

type state struct {
	customers map[int64]models.Customer
	products  map[int64]models.Product
	sales     map[int64]models.Sale
	movements map[int64]models.StockMovement

	nextCustomerID int64
	nextProductID  int64
	nextSaleID     int64
	nextMovementID int64
}

func newState() *state {
	return &state{
		customers: map[int64]models.Customer{},
		products:  map[int64]models.Product{},
		sales:     map[int64]models.Sale{},
		movements: map[int64]models.StockMovement{},
	}
}

// clone copies the maps. Values are plain structs, except SaleID on
// movements, which is never mutated after insert.
func (st *state) clone() *state {
	c := *st
	c.customers = maps.Clone(st.customers)
	c.products = maps.Clone(st.products)
	c.sales = maps.Clone(st.sales)
	c.movements = maps.Clone(st.movements)
	return &c
}

type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

// lock serializes access outside a transaction. Inside WithinTx the store
// lock is already held by the caller.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Customers() repository.CustomerRepository { return &customerRepo{s: s} }
func (s *Store) Products() repository.ProductRepository   { return &productRepo{s: s} }
func (s *Store) Sales() repository.SaleRepository         { return &saleRepo{s: s} }
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			*s.st = *snapshot
		}
	}()

	if err := fn(&Store{mu: s.mu, st: s.st, inTx: true}); err != nil {
		return err
	}

	committed = true
	return nil
}
