package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/internal/models"

	"github.com/jackc/pgx/v5"
)

type saleRepo struct {
	db DBTX
}

func NewSaleRepository(db DBTX) SaleRepository {
	return &saleRepo{db: db}
}

const saleResultSelect = `SELECT
	s.id,
	s.quantity,
	s.sold_at,
	c.id,
	c.name,
	p.id,
	p.name
	FROM sales s
	JOIN customers c ON c.id = s.customer_id
	JOIN products p ON p.id = s.product_id
	`

func (r *saleRepo) Create(ctx context.Context, sale *models.Sale) error {
	if sale == nil {
		return fmt.Errorf("%w: sale cannot be nil", ErrInvalidInput)
	}
	if err := models.Validate(sale); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if sale.SoldAt.IsZero() {
		return fmt.Errorf("%w: sale timestamp must be set", ErrInvalidInput)
	}

	insert := `INSERT INTO sales (
	customer_id,
	product_id,
	quantity,
	sold_at
	) VALUES ($1, $2, $3, $4)
	RETURNING id
	`

	err := r.db.QueryRow(ctx, insert,
		sale.CustomerID,
		sale.ProductID,
		sale.Quantity,
		sale.SoldAt,
	).Scan(&sale.ID)
	if err != nil {
		return translate(err, "failed to create sale")
	}

	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, id int64) (*models.SaleResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: sale ID must be positive", ErrInvalidInput)
	}

	var s models.SaleResult

	err := r.db.QueryRow(ctx, saleResultSelect+`WHERE s.id = $1`, id).Scan(
		&s.ID,
		&s.Quantity,
		&s.SoldAt,
		&s.CustomerID,
		&s.CustomerName,
		&s.ProductID,
		&s.ProductName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}

	return &s, nil
}

func (r *saleRepo) GetAll(ctx context.Context) ([]models.SaleResult, error) {
	return r.list(ctx, saleResultSelect+`ORDER BY s.id`)
}

func (r *saleRepo) GetByCustomerID(ctx context.Context, customerID int64) ([]models.SaleResult, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, saleResultSelect+`WHERE s.customer_id = $1 ORDER BY s.id`, customerID)
}

func (r *saleRepo) GetByProductID(ctx context.Context, productID int64) ([]models.SaleResult, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, saleResultSelect+`WHERE s.product_id = $1 ORDER BY s.id`, productID)
}

func (r *saleRepo) GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) ([]models.SaleResult, error) {
	if customerID <= 0 || productID <= 0 {
		return nil, fmt.Errorf("%w: customer and product IDs must be positive", ErrInvalidInput)
	}
	return r.list(ctx,
		saleResultSelect+`WHERE s.customer_id = $1 AND s.product_id = $2 ORDER BY s.id`,
		customerID, productID,
	)
}

func (r *saleRepo) GetBySoldAt(ctx context.Context, soldAt time.Time) ([]models.SaleResult, error) {
	return r.list(ctx, saleResultSelect+`WHERE s.sold_at = $1 ORDER BY s.id`, soldAt)
}

func (r *saleRepo) list(ctx context.Context, sql string, args ...any) ([]models.SaleResult, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales: %w", err)
	}

	defer rows.Close()

	sales := []models.SaleResult{}

	for rows.Next() {
		var s models.SaleResult

		err := rows.Scan(&s.ID,
			&s.Quantity,
			&s.SoldAt,
			&s.CustomerID,
			&s.CustomerName,
			&s.ProductID,
			&s.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return sales, nil
}

func (r *saleRepo) Delete(ctx context.Context, id int64) (*models.Sale, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: sale ID must be positive", ErrInvalidInput)
	}

	sql := `DELETE FROM sales WHERE id = $1
	RETURNING id, customer_id, product_id, quantity, sold_at`

	var s models.Sale

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&s.ID,
		&s.CustomerID,
		&s.ProductID,
		&s.Quantity,
		&s.SoldAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete sale %d: %w", id, err)
	}

	return &s, nil
}

func (r *saleRepo) ExistsByCustomerID(ctx context.Context, customerID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM sales WHERE customer_id = $1)", customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sales of customer %d: %w", customerID, err)
	}
	return exists, nil
}

func (r *saleRepo) ExistsByProductID(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM sales WHERE product_id = $1)", productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sales of product %d: %w", productID, err)
	}
	return exists, nil
}

func (r *saleRepo) DeleteByCustomerID(ctx context.Context, customerID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM sales WHERE customer_id = $1`, customerID)
	if err != nil {
		return 0, fmt.Errorf("delete sales of customer %d: %w", customerID, err)
	}
	return result.RowsAffected(), nil
}

func (r *saleRepo) DeleteByProductID(ctx context.Context, productID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM sales WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete sales of product %d: %w", productID, err)
	}
	return result.RowsAffected(), nil
}
