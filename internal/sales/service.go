// Package sales registers sales against locked product stock and serves the
// sale read projections.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/internal/events"
	"sales-service/internal/inventory"
	"sales-service/internal/models"
	"sales-service/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "sales-service/internal/sales"

var (
	ErrCustomerNotFound = fmt.Errorf("customer %w", repository.ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", repository.ErrNotFound)
	ErrSaleNotFound     = fmt.Errorf("sale %w", repository.ErrNotFound)
	// ErrPersistence wraps any storage failure. The transaction has been
	// rolled back and the call is not retried.
	ErrPersistence = errors.New("persistence failure")
)

type DeletePolicy string

const (
	// PolicyForfeit deletes the sale and leaves product stock untouched.
	PolicyForfeit DeletePolicy = "forfeit"
	// PolicyRestock returns the sold quantity to the product in the same
	// transaction as the delete.
	PolicyRestock DeletePolicy = "restock"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case PolicyForfeit, PolicyRestock:
		return p, nil
	}
	return "", fmt.Errorf("unknown sale delete policy %q", s)
}

// CacheInvalidator drops cached copies of a product whose stock changed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID int64)
}

type RegisterSaleRequest struct {
	CustomerID int64 `json:"customer_id"`
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
}

type Service struct {
	store     repository.Store
	logger    *zap.Logger
	publisher events.Publisher
	cache     CacheInvalidator
	policy    DeletePolicy
	now       func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *saleMetrics
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithCache(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

func NewService(store repository.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		logger:         logger,
		publisher:      events.NopPublisher{},
		policy:         PolicyForfeit,
		now:            time.Now,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	s.metrics = newSaleMetrics(s.meterProvider.Meter(instrumentationName), logger)

	return s
}

func (s *Service) DeletePolicy() DeletePolicy {
	return s.policy
}

// saleTimestamp returns the current time rounded up to whole microseconds,
// the resolution the store keeps, so the stored value is never earlier than
// the moment registration started.
func (s *Service) saleTimestamp() time.Time {
	t := s.now().UTC()
	rounded := t.Truncate(time.Microsecond)
	if rounded.Before(t) {
		rounded = rounded.Add(time.Microsecond)
	}
	return rounded
}

// RegisterSale checks the customer, locks the product row, withdraws the
// requested quantity and records the sale, all in one transaction.
func (s *Service) RegisterSale(ctx context.Context, req RegisterSaleRequest) (*models.SaleResult, error) {
	ctx, span := s.tracer.Start(ctx, "sales.register", trace.WithAttributes(
		attribute.Int64("customer.id", req.CustomerID),
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("sale.quantity", req.Quantity),
	))
	defer span.End()

	soldAt := s.saleTimestamp()

	var result *models.SaleResult

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		customer, err := tx.Customers().GetByID(ctx, req.CustomerID)
		if err != nil {
			return notFoundAs(err, ErrCustomerNotFound)
		}

		product, err := tx.Products().GetByIDForUpdate(ctx, req.ProductID)
		if err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}

		newStock, err := inventory.Withdraw(product.Stock, req.Quantity)
		if err != nil {
			return err
		}

		if err := tx.Products().UpdateStock(ctx, product.ID, newStock); err != nil {
			return err
		}
		product.Stock = newStock

		sale := &models.Sale{
			CustomerID: customer.ID,
			ProductID:  product.ID,
			Quantity:   req.Quantity,
			SoldAt:     soldAt,
		}
		if err := tx.Sales().Create(ctx, sale); err != nil {
			return err
		}

		err = tx.Movements().Create(ctx, &models.StockMovement{
			ProductID:     product.ID,
			SaleID:        &sale.ID,
			MovementType:  models.MovementOutgoing,
			QuantityDelta: -req.Quantity,
			StockAfter:    newStock,
		})
		if err != nil {
			return err
		}

		result = models.NewSaleResult(sale, customer, product)
		return nil
	})
	if err != nil {
		err = classify(err)
		reason := rejectReason(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		s.metrics.rejected(ctx, reason)

		if reason == reasonPersistence {
			s.logger.Error("sale registration failed",
				zap.Int64("customer_id", req.CustomerID),
				zap.Int64("product_id", req.ProductID),
				zap.Int("quantity", req.Quantity),
				zap.Error(err),
			)
		} else {
			s.logger.Info("sale rejected",
				zap.String("reason", reason),
				zap.Int64("customer_id", req.CustomerID),
				zap.Int64("product_id", req.ProductID),
				zap.Int("quantity", req.Quantity),
			)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("sale.id", result.ID))
	s.metrics.registered(ctx, req.Quantity)

	s.logger.Info("sale registered",
		zap.Int64("sale_id", result.ID),
		zap.Int64("customer_id", result.CustomerID),
		zap.Int64("product_id", result.ProductID),
		zap.Int("quantity", result.Quantity),
	)

	s.afterCommit(ctx, events.SaleRegistered, *result)

	return result, nil
}

// afterCommit runs the side effects of a committed change. Failures are
// logged and never reach the caller: the sale itself is already durable.
// They run detached from the caller's cancellation so a dropped client does
// not lose the event.
func (s *Service) afterCommit(ctx context.Context, eventType string, sale models.SaleResult) {
	ctx = context.WithoutCancel(ctx)

	if s.cache != nil {
		s.cache.Invalidate(ctx, sale.ProductID)
	}

	event := events.NewSaleEvent(eventType, sale, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish sale event",
			zap.String("type", eventType),
			zap.Int64("sale_id", sale.ID),
			zap.Error(err),
		)
	}
}

// DeleteSale removes the sale. Under PolicyRestock the sold quantity goes
// back to the product inside the same transaction.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "sales.delete", trace.WithAttributes(
		attribute.Int64("sale.id", id),
		attribute.String("sale.delete_policy", string(s.policy)),
	))
	defer span.End()

	var deleted models.SaleResult

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sale, err := tx.Sales().GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}

		if s.policy == PolicyRestock {
			if err := restock(ctx, tx, sale); err != nil {
				return err
			}
		}

		if _, err := tx.Sales().Delete(ctx, id); err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}

		deleted = *sale
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSaleNotFound) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	s.logger.Info("sale deleted",
		zap.Int64("sale_id", id),
		zap.String("policy", string(s.policy)),
	)

	s.afterCommit(ctx, events.SaleDeleted, deleted)

	return nil
}

func restock(ctx context.Context, tx repository.Store, sale *models.SaleResult) error {
	product, err := tx.Products().GetByIDForUpdate(ctx, sale.ProductID)
	if err != nil {
		return err
	}

	newStock, err := inventory.Restock(product.Stock, sale.Quantity)
	if err != nil {
		return err
	}

	if err := tx.Products().UpdateStock(ctx, product.ID, newStock); err != nil {
		return err
	}

	return tx.Movements().Create(ctx, &models.StockMovement{
		ProductID:     product.ID,
		SaleID:        &sale.ID,
		MovementType:  models.MovementIncoming,
		QuantityDelta: sale.Quantity,
		StockAfter:    newStock,
	})
}

// notFoundAs maps a failed lookup onto target. Non-positive ids are
// rejected by the store as invalid input and can never match a record.
func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
		return target
	}
	return err
}

var domainErrors = []error{
	ErrCustomerNotFound,
	ErrProductNotFound,
	inventory.ErrInsufficientStock,
	inventory.ErrInvalidQuantity,
}

// classify leaves domain errors untouched and marks everything else as a
// persistence failure.
func classify(err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

const (
	reasonCustomerNotFound  = "customer_not_found"
	reasonProductNotFound   = "product_not_found"
	reasonInsufficientStock = "insufficient_stock"
	reasonInvalidQuantity   = "invalid_quantity"
	reasonPersistence       = "persistence"
)

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		return reasonCustomerNotFound
	case errors.Is(err, ErrProductNotFound):
		return reasonProductNotFound
	case errors.Is(err, inventory.ErrInsufficientStock):
		return reasonInsufficientStock
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return reasonInvalidQuantity
	default:
		return reasonPersistence
	}
}
