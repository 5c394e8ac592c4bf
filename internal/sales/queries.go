package sales

import (
	"context"
	"time"

	"sales-service/internal/models"
)

func (s *Service) GetSale(ctx context.Context, id int64) (*models.SaleResult, error) {
	sale, err := s.store.Sales().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrSaleNotFound)
	}
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context) ([]models.SaleResult, error) {
	return s.store.Sales().GetAll(ctx)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]models.SaleResult, error) {
	return s.store.Sales().GetByCustomerID(ctx, customerID)
}

func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]models.SaleResult, error) {
	return s.store.Sales().GetByProductID(ctx, productID)
}

func (s *Service) ListByCustomerAndProduct(ctx context.Context, customerID, productID int64) ([]models.SaleResult, error) {
	return s.store.Sales().GetByCustomerAndProduct(ctx, customerID, productID)
}

// ListBySoldAt matches the sale timestamp exactly, at microsecond
// resolution.
func (s *Service) ListBySoldAt(ctx context.Context, soldAt time.Time) ([]models.SaleResult, error) {
	return s.store.Sales().GetBySoldAt(ctx, soldAt.Truncate(time.Microsecond))
}

// ListMovements returns the stock ledger of a product, oldest first.
func (s *Service) ListMovements(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	if _, err := s.store.Products().GetByID(ctx, productID); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	return s.store.Movements().GetByProductID(ctx, productID)
}
