package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "cascade", cfg.CustomerDeletePolicy)
	assert.Equal(t, "restrict", cfg.ProductDeletePolicy)
	assert.Equal(t, "forfeit", cfg.SaleDeletePolicy)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SALE_DELETE_POLICY", "restock")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 4, cfg.DB.MaxConns)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "restock", cfg.SaleDeletePolicy)
	assert.Contains(t, cfg.DB.DSN(), "pool_max_conns=4")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"STORE_DRIVER", "mysql"},
		{"CUSTOMER_DELETE_POLICY", "orphan"},
		{"PRODUCT_DELETE_POLICY", "nullify"},
		{"SALE_DELETE_POLICY", "refund"},
		{"DB_MAX_CONNS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
