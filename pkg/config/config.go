package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tair/fulfillment-ledger/pkg/database"
)

// Reservation policies.
const (
	ReserveAtShip    = "ship"
	ReserveAtConfirm = "confirm"
)

// Config holds every runtime setting of the fulfillment service.
type Config struct {
	ServiceName    string        `mapstructure:"otel_service_name"`
	Environment    string        `mapstructure:"environment"`
	LogLevel       string        `mapstructure:"log_level"`
	HTTPPort       string        `mapstructure:"http_port"`
	GRPCPort       string        `mapstructure:"grpc_port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	DBHost         string        `mapstructure:"db_host"`
	DBPort         string        `mapstructure:"db_port"`
	DBUser         string        `mapstructure:"db_user"`
	DBPassword     string        `mapstructure:"db_password"`
	DBName         string        `mapstructure:"db_name"`
	DBSSLMode      string        `mapstructure:"db_sslmode"`
	DBMaxOpenConns int           `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns int           `mapstructure:"db_max_idle_conns"`
	DBConnLifetime time.Duration `mapstructure:"db_conn_lifetime"`
	DBSlowQuery    time.Duration `mapstructure:"db_slow_query"`

	RedisURL      string        `mapstructure:"redis_url"`
	StockCacheTTL time.Duration `mapstructure:"stock_cache_ttl"`

	KafkaEnabled bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`

	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`

	ReservationPolicy      string        `mapstructure:"reservation_policy"`
	PaymentDueScanInterval time.Duration `mapstructure:"payment_due_scan_interval"`
	SnowflakeNode          int64         `mapstructure:"snowflake_node"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Database returns the connection settings for pkg/database.
func (c *Config) Database() database.Config {
	return database.Config{
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		DBName:          c.DBName,
		SSLMode:         c.DBSSLMode,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnLifetime,
		SlowThreshold:   c.DBSlowQuery,
	}
}

var defaults = map[string]any{
	"otel_service_name": "fulfillment-service",
	"environment":       "development",
	"log_level":         "info",
	"http_port":         "8084",
	"grpc_port":         "9094",
	"request_timeout":   30 * time.Second,

	"db_host":           "localhost",
	"db_port":           "5432",
	"db_user":           "postgres",
	"db_password":       "postgres",
	"db_name":           "fulfillmentdb",
	"db_sslmode":        "disable",
	"db_max_open_conns": 25,
	"db_max_idle_conns": 5,
	"db_conn_lifetime":  5 * time.Minute,
	"db_slow_query":     200 * time.Millisecond,

	"redis_url":       "",
	"stock_cache_ttl": 30 * time.Second,

	"kafka_enabled":  false,
	"kafka_brokers":  []string{"localhost:9092"},
	"kafka_topic":    "fulfillment-events",
	"kafka_group_id": "fulfillment-notifier",

	"tracing_enabled": true,
	"jaeger_endpoint": "http://localhost:14268/api/traces",

	"reservation_policy":        ReserveAtShip,
	"payment_due_scan_interval": time.Hour,
	"snowflake_node":            1,
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ReservationPolicy = strings.ToLower(strings.TrimSpace(cfg.ReservationPolicy))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.ReservationPolicy {
	case ReserveAtShip, ReserveAtConfirm:
	default:
		return fmt.Errorf("reservation_policy must be %q or %q, got %q",
			ReserveAtShip, ReserveAtConfirm, c.ReservationPolicy)
	}
	if c.PaymentDueScanInterval <= 0 {
		return fmt.Errorf("payment_due_scan_interval must be positive")
	}
	if c.StockCacheTTL < 0 {
		return fmt.Errorf("stock_cache_ttl cannot be negative")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("snowflake_node must be between 0 and 1023")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka_brokers is required when kafka is enabled")
	}
	return nil
}
