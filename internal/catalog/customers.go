package catalog

import (
	"context"

	"sales-service/internal/models"
	"sales-service/internal/repository"

	"go.uber.org/zap"
)

type CustomerService struct {
	store  repository.Store
	policy DeletePolicy
	logger *zap.Logger
}

func NewCustomerService(store repository.Store, policy DeletePolicy, logger *zap.Logger) *CustomerService {
	return &CustomerService{store: store, policy: policy, logger: logger}
}

func (s *CustomerService) Create(ctx context.Context, c *models.Customer) error {
	if err := s.store.Customers().Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info("customer created", zap.Int64("customer_id", c.ID))
	return nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	return s.store.Customers().GetByID(ctx, id)
}

func (s *CustomerService) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	return s.store.Customers().GetByName(ctx, name)
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.store.Customers().GetAll(ctx)
}

func (s *CustomerService) Update(ctx context.Context, c *models.Customer) error {
	return s.store.Customers().Update(ctx, c)
}

func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	var removed int64

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Customers().GetByID(ctx, id); err != nil {
			return err
		}

		n, err := clearSales(ctx, s.policy, id,
			tx.Sales().ExistsByCustomerID,
			tx.Sales().DeleteByCustomerID,
		)
		if err != nil {
			return err
		}
		removed = n

		return tx.Customers().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted",
		zap.Int64("customer_id", id),
		zap.Int64("sales_removed", removed),
	)
	return nil
}

// clearSales applies policy to the sales owned by id and returns how many
// were deleted.
func clearSales(
	ctx context.Context,
	policy DeletePolicy,
	id int64,
	exists func(context.Context, int64) (bool, error),
	deleteAll func(context.Context, int64) (int64, error),
) (int64, error) {
	if policy == Restrict {
		has, err := exists(ctx, id)
		if err != nil {
			return 0, err
		}
		if has {
			return 0, ErrHasSales
		}
		return 0, nil
	}
	return deleteAll(ctx, id)
}
