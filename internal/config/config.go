package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"

	PaymentStripe    = "stripe"
	PaymentSimulated = "simulated"

	// LockTTLMargin is the minimum gap between LOCK_TTL and PAYMENT_TIMEOUT.
	LockTTLMargin = 5 * time.Second
)

type Config struct {
	HTTPAddr string
	GRPCAddr string
	LogMode  string

	StoreBackend string
	RedisAddr    string
	MySQLDSN     string
	SessionTTL   time.Duration
	LockTTL      time.Duration

	CatalogPath string

	PaymentProvider string
	StripeAPIKey    string
	StripeBaseURL   string
	StripeVersion   string
	PaymentTimeout  time.Duration

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, seeded from a .env file in
// the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":3000"),
		GRPCAddr:        getEnv("GRPC_ADDR", ":50051"),
		LogMode:         getEnv("LOG_MODE", "development"),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/checkout?parseTime=true"),
		CatalogPath:     getEnv("CATALOG_PATH", ""),
		PaymentProvider: strings.ToLower(getEnv("PAYMENT_PROVIDER", PaymentSimulated)),
		StripeAPIKey:    getEnv("SELLER_API_KEY", ""),
		StripeBaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeVersion:   getEnv("STRIPE_VERSION", "2023-08-16;line_items_beta=v1"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.LockTTL, err = getDuration("LOCK_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PaymentTimeout, err = getDuration("PAYMENT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreRedis, StoreMySQL:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.PaymentProvider {
	case PaymentSimulated:
	case PaymentStripe:
		if c.StripeAPIKey == "" {
			return errors.New("SELLER_API_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	if c.LockTTL <= 0 {
		return errors.New("LOCK_TTL must be positive")
	}
	if c.PaymentTimeout <= 0 {
		return errors.New("PAYMENT_TIMEOUT must be positive")
	}
	// A session lock must outlive the longest payment call made while holding it.
	if c.LockTTL < c.PaymentTimeout+LockTTLMargin {
		return fmt.Errorf("LOCK_TTL (%s) must be at least PAYMENT_TIMEOUT (%s) plus %s",
			c.LockTTL, c.PaymentTimeout, LockTTLMargin)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
