package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name" validate:"required,max=150"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock" validate:"gte=0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	CreatedAt time.Time `json:"created_at"`
}

// Sale references exactly one customer and one product. It is never
// updated after creation.
type Sale struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id" validate:"gt=0"`
	ProductID  int64     `json:"product_id" validate:"gt=0"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
	SoldAt     time.Time `json:"sold_at"`
}

// SaleResult is the denormalized view of a sale returned to callers.
type SaleResult struct {
	ID           int64     `json:"id"`
	Quantity     int       `json:"quantity"`
	SoldAt       time.Time `json:"sold_at"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
}

func NewSaleResult(s *Sale, c *Customer, p *Product) *SaleResult {
	return &SaleResult{
		ID:           s.ID,
		Quantity:     s.Quantity,
		SoldAt:       s.SoldAt,
		CustomerID:   c.ID,
		CustomerName: c.Name,
		ProductID:    p.ID,
		ProductName:  p.Name,
	}
}
