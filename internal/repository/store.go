package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// the same queries inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is the part of *pgxpool.Pool that opens transactions.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgStore struct {
	pool txBeginner
	db   DBTX
	inTx bool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Customers() CustomerRepository { return NewCustomerRepository(s.db) }
func (s *pgStore) Products() ProductRepository   { return NewProductRepository(s.db) }
func (s *pgStore) Sales() SaleRepository         { return NewSaleRepository(s.db) }
func (s *pgStore) Movements() MovementRepository { return NewMovementRepository(s.db) }

func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op once Commit succeeded.
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(&pgStore{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
