package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-service/internal/models"

	"github.com/jackc/pgx/v5"
)

type productRepo struct {
	db DBTX
}

func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `
			id,
			name,
			price,
			stock,
			created_at,
			updated_at`

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sql := `
		INSERT INTO products (
			name,
			price,
			stock,
			created_at,
			updated_at
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		p.Stock,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return translate(err, "failed to create product")
	}

	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return r.getByID(ctx, id, "")
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return r.getByID(ctx, id, "FOR UPDATE")
}

func (r *productRepo) getByID(ctx context.Context, id int64, lock string) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT` + productColumns + `
		FROM products WHERE id = $1
		` + lock

	var product models.Product

	if err := scanProduct(r.db.QueryRow(ctx, sql, id), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	return &product, nil
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT` + productColumns + `
		FROM products WHERE name = $1
		`

	var product models.Product

	if err := scanProduct(r.db.QueryRow(ctx, sql, name), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by name: %w", err)
	}

	return &product, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *productRepo) SearchByName(ctx context.Context, fragment string) ([]models.Product, error) {
	if fragment == "" {
		return nil, fmt.Errorf("%w: search text cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
		`

	return r.list(ctx, sql, likeEscaper.Replace(fragment))
}

func (r *productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	sql := `SELECT` + productColumns + `
    FROM products
    ORDER BY id
`
	return r.list(ctx, sql)
}

func (r *productRepo) list(ctx context.Context, sql string, args ...any) ([]models.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	defer rows.Close()

	products := []models.Product{}

	for rows.Next() {
		var p models.Product

		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sql := `
	UPDATE products
	SET
		name = $1,
		price = $2,
		updated_at = $3
	WHERE id = $4
	RETURNING stock, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		time.Now(),
		p.ID,
	).Scan(&p.Stock, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return translate(err, fmt.Sprintf("failed to update product %d", p.ID))
	}

	return nil
}

func (r *productRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}

	sql := `UPDATE products SET
		stock = $1,
		updated_at = $2
	WHERE id = $3
	`

	result, err := r.db.Exec(ctx, sql, stock, time.Now(), id)
	if err != nil {
		return translate(err, fmt.Sprintf("failed to update product stock %d", id))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("failed to delete product %d", id))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
