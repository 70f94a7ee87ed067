package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, PaymentSimulated, cfg.PaymentProvider)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, "https://api.stripe.com", cfg.StripeBaseURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("SELLER_API_KEY", "sk_test_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "sk_test_123", cfg.StripeAPIKey)
}

func TestLoad_StripeWithoutKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("SELLER_API_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SELLER_API_KEY")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOCK_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "LOCK_TTL")
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{StoreBackend: "postgres", PaymentProvider: PaymentSimulated, LockTTL: time.Second}
	assert.Error(t, cfg.Validate())
}

func TestValidate_LockTTLMustOutlivePayment(t *testing.T) {
	tests := []struct {
		name    string
		lockTTL time.Duration
		payment time.Duration
		wantErr bool
	}{
		{"defaults", 30 * time.Second, 15 * time.Second, false},
		{"exact margin", 20 * time.Second, 15 * time.Second, false},
		{"inside margin", 18 * time.Second, 15 * time.Second, true},
		{"shorter than payment", 5 * time.Second, 15 * time.Second, true},
		{"zero payment timeout", 30 * time.Second, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StoreBackend:    StoreRedis,
				PaymentProvider: PaymentSimulated,
				LockTTL:         tt.lockTTL,
				PaymentTimeout:  tt.payment,
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_ShortLockTTLRejected(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("LOCK_TTL", "5s")

	_, err := Load()
	assert.ErrorContains(t, err, "LOCK_TTL")
}
