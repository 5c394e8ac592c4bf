package repository

import (
	"context"
	"errors"
	"fmt"

	"sales-service/internal/models"

	"github.com/jackc/pgx/v5"
)

type customerRepo struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	if err := models.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sql := `
		INSERT INTO customers (
			name,
			phone
		) VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, sql, c.Name, c.Phone).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return translate(err, "create customer")
	}

	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
		id,
		name,
		phone,
		created_at
		FROM customers WHERE id = $1
	`

	var customer models.Customer

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer with id %d: %w", id, err)
	}

	return &customer, nil
}

// GetByName matches the full name exactly. When several customers share a
// name the oldest one wins.
func (r *customerRepo) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	sql := `
		SELECT
		id,
		name,
		phone,
		created_at
		FROM customers WHERE name = $1
		ORDER BY id
		LIMIT 1
	`

	var customer models.Customer

	err := r.db.QueryRow(ctx, sql, name).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer by name: %w", err)
	}

	return &customer, nil
}

func (r *customerRepo) GetAll(ctx context.Context) ([]models.Customer, error) {
	sql := `
	SELECT
	id,
	name,
	phone,
	created_at
	FROM customers
	ORDER BY id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all customers: %w", err)
	}

	defer rows.Close()

	customers := []models.Customer{}

	for rows.Next() {
		var c models.Customer

		err := rows.Scan(&c.ID,
			&c.Name,
			&c.Phone,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customers: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return customers, nil
}

func (r *customerRepo) Update(ctx context.Context, c *models.Customer) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	if err := models.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sql := `
	UPDATE customers
	SET
		name = $1,
		phone = $2
	WHERE id = $3
	RETURNING created_at
	`

	err := r.db.QueryRow(ctx, sql, c.Name, c.Phone, c.ID).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return translate(err, fmt.Sprintf("failed to update customer %d", c.ID))
	}

	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("failed to delete customer %d", id))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
