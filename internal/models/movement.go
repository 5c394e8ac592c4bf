package models

import "time"

const (
	MovementOutgoing = "outgoing"
	MovementIncoming = "incoming"
)

// StockMovement is one line of the per-product stock ledger written in the
// same transaction as the stock change it describes.
type StockMovement struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	SaleID        *int64    `json:"sale_id,omitempty"`
	MovementType  string    `json:"movement_type"`
	QuantityDelta int       `json:"quantity_delta"`
	StockAfter    int       `json:"stock_after"`
	CreatedAt     time.Time `json:"created_at"`
}
