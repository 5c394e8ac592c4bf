// Package inventory holds the stock sufficiency rules applied when a sale
// is registered or reverted. Everything here is pure: callers are
// responsible for evaluating it against a stock value that cannot change
// underneath them (a locked row, or a serialized store).
package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports how much stock was available when a
// withdrawal was refused. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Withdraw returns the stock left after taking quantity units out of
// currentStock.
func Withdraw(currentStock, quantity int) (int, error) {
	if quantity <= 0 {
		return currentStock, ErrInvalidQuantity
	}
	if quantity > currentStock {
		return currentStock, &InsufficientStockError{Available: currentStock, Requested: quantity}
	}

	return currentStock - quantity, nil
}

// Restock returns the stock after putting quantity units back.
func Restock(currentStock, quantity int) (int, error) {
	if quantity <= 0 {
		return currentStock, ErrInvalidQuantity
	}

	return currentStock + quantity, nil
}
