package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

func setMerchantEnv(t *testing.T) {
	t.Setenv("CONCORDPAY_GW_SERVER_API_KEY", "service-key")
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_MERCHANT_ID", "test_merch")
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_SECRET_KEY", "top-secret")
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_BASE_URL", "https://gw.example.com/")
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_SITE_URL", "https://shop.example.com/checkout")
}

func TestLoad_FromEnv(t *testing.T) {
	setMerchantEnv(t)
	t.Setenv("CONCORDPAY_GW_SERVER_PORT", "9090")
	t.Setenv("CONCORDPAY_GW_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_STATUSES_APPROVED", "complete")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "service-key", cfg.Server.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "https://pay.concord.ua/api/", cfg.ConcordPay.APIURL)
	assert.Equal(t, "https://gw.example.com/callback", cfg.ConcordPay.CallbackURL)
	assert.Equal(t, "https://shop.example.com/checkout?payment-confirmation=concordpay", cfg.ConcordPay.ReturnURL)

	mc := cfg.MerchantConfig()
	assert.Equal(t, "test_merch", mc.MerchantID)
	assert.Equal(t, "top-secret", mc.SecretKey)
	assert.Equal(t, domain.OrderStatusComplete, mc.Statuses.Approved)
	assert.Equal(t, domain.OrderStatusFailed, mc.Statuses.Declined)
	assert.Equal(t, domain.OrderStatusRefunded, mc.Statuses.Refunded)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "7070"
database:
  driver: memory
concordpay:
  merchant_id: file_merch
  secret_key: file-secret
  callback_url: https://gw.example.com/hooks/concordpay
  return_url: https://shop.example.com/thanks?utm=1
  language: en
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_LANGUAGE", "ru")
	t.Setenv("CONCORDPAY_GW_SERVER_API_KEY", "service-key")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "file_merch", cfg.ConcordPay.MerchantID)
	assert.Equal(t, "ru", cfg.ConcordPay.Language, "environment wins over the file")
	assert.Equal(t, "https://gw.example.com/hooks/concordpay", cfg.ConcordPay.CallbackURL)
	assert.Equal(t, "https://shop.example.com/thanks?utm=1&payment-confirmation=concordpay", cfg.ConcordPay.ReturnURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := SetDefaultConfig()
		cfg.ConcordPay.MerchantID = "m"
		cfg.ConcordPay.SecretKey = "s"
		cfg.Server.APIKey = "k"
		cfg.ConcordPay.CallbackURL = "https://gw.example.com/callback"
		cfg.ConcordPay.ReturnURL = "https://shop.example.com/?payment-confirmation=concordpay"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing merchant", func(c *Config) { c.ConcordPay.MerchantID = "" }, "merchant_id is required"},
		{"missing secret", func(c *Config) { c.ConcordPay.SecretKey = "" }, "secret_key is required"},
		{"missing api key", func(c *Config) { c.Server.APIKey = "" }, "server api_key is required"},
		{"missing return url", func(c *Config) { c.ConcordPay.ReturnURL = "" }, "return_url or site_url is required"},
		{"missing callback", func(c *Config) { c.ConcordPay.CallbackURL = "" }, "callback_url or base_url is required"},
		{"bad language", func(c *Config) { c.ConcordPay.Language = "de" }, `language "de"`},
		{"bad currency", func(c *Config) { c.ConcordPay.Currency = "USD" }, `currency "USD"`},
		{"bad status", func(c *Config) { c.ConcordPay.Statuses.Declined = "nope" }, `declined status "nope"`},
		{"bad driver", func(c *Config) { c.Database.Driver = "sqlite" }, `unknown database driver "sqlite"`},
		{"redis without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis addr is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RequiresReturnURL(t *testing.T) {
	setMerchantEnv(t)
	t.Setenv("CONCORDPAY_GW_CONCORDPAY_SITE_URL", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return_url or site_url is required")
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	setMerchantEnv(t)
	t.Setenv("CONCORDPAY_GW_SERVER_API_KEY", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server api_key is required")
}

func TestConcordPayConfig_StringRedactsSecret(t *testing.T) {
	cp := ConcordPayConfig{MerchantID: "m", SecretKey: "top-secret"}
	s := cp.String()
	assert.NotContains(t, s, "top-secret")
	assert.Contains(t, s, "[REDACTED]")
}

func TestGetDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{User: "app", Password: "p@ss", Host: "db", Port: 5432, Name: "orders", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/orders?sslmode=disable", db.GetDatabaseDSN())
}
