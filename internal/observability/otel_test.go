package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "sales-service", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NotNil(t, otel.GetTextMapPropagator())
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewLogger(t *testing.T) {
	for _, dev := range []bool{true, false} {
		logger, err := NewLogger(dev, "sales-service")
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
