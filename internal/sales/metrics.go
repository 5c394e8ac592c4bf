package sales

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type saleMetrics struct {
	registeredTotal metric.Int64Counter
	rejectedTotal   metric.Int64Counter
	quantity        metric.Int64Histogram
}

func newSaleMetrics(meter metric.Meter, logger *zap.Logger) *saleMetrics {
	m, err := buildSaleMetrics(meter)
	if err != nil {
		logger.Warn("failed to create sale metrics, recording disabled", zap.Error(err))
		m, _ = buildSaleMetrics(noop.Meter{})
	}
	return m
}

func buildSaleMetrics(meter metric.Meter) (*saleMetrics, error) {
	registered, err := meter.Int64Counter("sales.registered",
		metric.WithDescription("Sales committed"),
		metric.WithUnit("{sale}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("sales.rejected",
		metric.WithDescription("Sale registrations that did not commit, by reason"),
		metric.WithUnit("{sale}"),
	)
	if err != nil {
		return nil, err
	}

	quantity, err := meter.Int64Histogram("sales.quantity",
		metric.WithDescription("Units per committed sale"),
		metric.WithUnit("{unit}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return nil, err
	}

	return &saleMetrics{
		registeredTotal: registered,
		rejectedTotal:   rejected,
		quantity:        quantity,
	}, nil
}

func (m *saleMetrics) registered(ctx context.Context, quantity int) {
	m.registeredTotal.Add(ctx, 1)
	m.quantity.Record(ctx, int64(quantity))
}

func (m *saleMetrics) rejected(ctx context.Context, reason string) {
	m.rejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
