package repository

import (
	"context"
	"time"

	"sales-service/internal/models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	// Update changes name and price. Stock only moves through UpdateStock.
	Update(ctx context.Context, product *models.Product) error
	UpdateStock(ctx context.Context, id int64, stock int) error
	Delete(ctx context.Context, id int64) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	GetByName(ctx context.Context, name string) (*models.Customer, error)
	GetAll(ctx context.Context) ([]models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id int64) error
}

// SaleRepository reads return rows joined with customer and product names,
// ordered by sale id.
type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	GetByID(ctx context.Context, id int64) (*models.SaleResult, error)
	GetAll(ctx context.Context) ([]models.SaleResult, error)
	GetByCustomerID(ctx context.Context, customerID int64) ([]models.SaleResult, error)
	GetByProductID(ctx context.Context, productID int64) ([]models.SaleResult, error)
	GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) ([]models.SaleResult, error)
	GetBySoldAt(ctx context.Context, soldAt time.Time) ([]models.SaleResult, error)
	// Delete removes the sale and returns the row as it was.
	Delete(ctx context.Context, id int64) (*models.Sale, error)

	ExistsByCustomerID(ctx context.Context, customerID int64) (bool, error)
	ExistsByProductID(ctx context.Context, productID int64) (bool, error)
	DeleteByCustomerID(ctx context.Context, customerID int64) (int64, error)
	DeleteByProductID(ctx context.Context, productID int64) (int64, error)
}

type MovementRepository interface {
	Create(ctx context.Context, movement *models.StockMovement) error
	GetByProductID(ctx context.Context, productID int64) ([]models.StockMovement, error)
	GetBySaleID(ctx context.Context, saleID int64) ([]models.StockMovement, error)
}

// Store groups the repositories and owns the transaction boundary. Writes
// made through the Store handed to fn are committed together when fn
// returns nil and discarded otherwise.
type Store interface {
	Customers() CustomerRepository
	Products() ProductRepository
	Sales() SaleRepository
	Movements() MovementRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
