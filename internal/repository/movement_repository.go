package repository

import (
	"context"
	"fmt"

	"sales-service/internal/models"
)

type movementRepo struct {
	db DBTX
}

func NewMovementRepository(db DBTX) MovementRepository {
	return &movementRepo{db: db}
}

var validMovementTypes = map[string]bool{
	models.MovementOutgoing: true,
	models.MovementIncoming: true,
}

func (r *movementRepo) Create(ctx context.Context, m *models.StockMovement) error {
	if m == nil {
		return fmt.Errorf("%w: movement cannot be nil", ErrInvalidInput)
	}
	if m.ProductID <= 0 {
		return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}
	if m.QuantityDelta == 0 {
		return fmt.Errorf("%w: the quantity delta cannot be 0", ErrInvalidInput)
	}
	if !validMovementTypes[m.MovementType] {
		return fmt.Errorf("%w: invalid movement type '%s'", ErrInvalidInput, m.MovementType)
	}

	sql := ` INSERT INTO stock_movements (
		product_id,
		sale_id,
		movement_type,
		quantity_delta,
		stock_after
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, sql,
		m.ProductID,
		m.SaleID,
		m.MovementType,
		m.QuantityDelta,
		m.StockAfter,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return translate(err, "failed to create stock movement")
	}
	return nil
}

func (r *movementRepo) GetByProductID(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, `WHERE product_id = $1`, productID)
}

func (r *movementRepo) GetBySaleID(ctx context.Context, saleID int64) ([]models.StockMovement, error) {
	if saleID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, `WHERE sale_id = $1`, saleID)
}

func (r *movementRepo) list(ctx context.Context, where string, args ...any) ([]models.StockMovement, error) {
	sql := `SELECT
		id,
		product_id,
		sale_id,
		movement_type,
		quantity_delta,
		stock_after,
		created_at
		FROM stock_movements
		` + where + `
		ORDER BY id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock movements: %w", err)
	}

	defer rows.Close()

	movements := []models.StockMovement{}

	for rows.Next() {
		var m models.StockMovement

		err := rows.Scan(&m.ID,
			&m.ProductID,
			&m.SaleID,
			&m.MovementType,
			&m.QuantityDelta,
			&m.StockAfter,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movements: %w", err)
		}

		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete rows iteration: %w", err)
	}

	return movements, nil
}
