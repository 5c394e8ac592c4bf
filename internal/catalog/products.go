package catalog

import (
	"context"

	"sales-service/internal/models"
	"sales-service/internal/repository"

	"go.uber.org/zap"
)

// ProductCache is a read-through product repository that can drop a
// product after a transaction changed it.
type ProductCache interface {
	repository.ProductRepository
	Invalidate(ctx context.Context, id int64)
}

type ProductService struct {
	store    repository.Store
	products repository.ProductRepository
	cache    ProductCache
	policy   DeletePolicy
	logger   *zap.Logger
}

// NewProductService serves reads and single-row writes through cache when it
// is not nil.
func NewProductService(store repository.Store, cache ProductCache, policy DeletePolicy, logger *zap.Logger) *ProductService {
	s := &ProductService{
		store:    store,
		products: store.Products(),
		policy:   policy,
		logger:   logger,
	}
	if cache != nil {
		s.cache = cache
		s.products = cache
	}
	return s
}

func (s *ProductService) Create(ctx context.Context, p *models.Product) error {
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.Int("stock", p.Stock))
	return nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) GetByName(ctx context.Context, name string) (*models.Product, error) {
	return s.products.GetByName(ctx, name)
}

func (s *ProductService) Search(ctx context.Context, fragment string) ([]models.Product, error) {
	return s.products.SearchByName(ctx, fragment)
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.GetAll(ctx)
}

// Update changes name and price. Stock in p is ignored and replaced with
// the stored value.
func (s *ProductService) Update(ctx context.Context, p *models.Product) error {
	return s.products.Update(ctx, p)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	var removed int64

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Products().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}

		n, err := clearSales(ctx, s.policy, id,
			tx.Sales().ExistsByProductID,
			tx.Sales().DeleteByProductID,
		)
		if err != nil {
			return err
		}
		removed = n

		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.Info("product deleted",
		zap.Int64("product_id", id),
		zap.Int64("sales_removed", removed),
	)
	return nil
}
