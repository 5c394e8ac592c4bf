package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdraw(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		quantity  int
		wantStock int
		wantErr   error
	}{
		{"partial", 10, 3, 7, nil},
		{"exact", 5, 5, 0, nil},
		{"one unit", 1, 1, 0, nil},
		{"more than available", 2, 5, 2, ErrInsufficientStock},
		{"empty stock", 0, 1, 0, ErrInsufficientStock},
		{"zero quantity", 10, 0, 10, ErrInvalidQuantity},
		{"negative quantity", 10, -3, 10, ErrInvalidQuantity},
		{"zero quantity on empty stock", 0, 0, 0, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Withdraw(tt.stock, tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStock, got)
		})
	}
}

func TestWithdraw_InsufficientStockDetails(t *testing.T) {
	_, err := Withdraw(2, 5)
	require.Error(t, err)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, "insufficient stock: available 2, requested 5", err.Error())
	assert.False(t, errors.Is(err, ErrInvalidQuantity))
}

func TestWithdraw_NeverNegative(t *testing.T) {
	for stock := 0; stock <= 20; stock++ {
		for q := -2; q <= 25; q++ {
			got, err := Withdraw(stock, q)
			assert.GreaterOrEqual(t, got, 0)
			if err == nil {
				assert.Equal(t, stock-q, got)
			}
		}
	}
}

func TestRestock(t *testing.T) {
	got, err := Restock(7, 3)
	assert.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = Restock(7, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 7, got)
}
