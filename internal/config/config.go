package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv      string
	HTTPPort    string
	ServiceName string
	StoreDriver string

	DB    DBConfig
	Redis RedisConfig

	OTLPEndpoint string
	KafkaBroker  string
	SalesTopic   string

	CustomerDeletePolicy string
	ProductDeletePolicy  string
	SaleDeletePolicy     string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the keyword/value connection string understood by pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
		c.MaxConns,
	)
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "production"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "sales-service"),
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "app_user"),
			Password: getEnv("DB_PASSWORD", "postgres_password"),
			Name:     getEnv("DB_NAME", "sales_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		SalesTopic:           getEnv("SALES_TOPIC", "sales"),
		CustomerDeletePolicy: getEnv("CUSTOMER_DELETE_POLICY", "cascade"),
		ProductDeletePolicy:  getEnv("PRODUCT_DELETE_POLICY", "restrict"),
		SaleDeletePolicy:     getEnv("SALE_DELETE_POLICY", "forfeit"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}

	for key, value := range map[string]string{
		"CUSTOMER_DELETE_POLICY": c.CustomerDeletePolicy,
		"PRODUCT_DELETE_POLICY":  c.ProductDeletePolicy,
	} {
		if value != "cascade" && value != "restrict" {
			return fmt.Errorf("invalid %s %q: want cascade or restrict", key, value)
		}
	}

	if c.SaleDeletePolicy != "forfeit" && c.SaleDeletePolicy != "restock" {
		return fmt.Errorf("invalid SALE_DELETE_POLICY %q: want forfeit or restock", c.SaleDeletePolicy)
	}

	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
