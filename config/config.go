// Package config handles loading and managing application configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "CONCORDPAY_GW"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ReturnQuery is appended to the return URL so the storefront can tell
// the customer came back from the payment page.
const ReturnQuery = "payment-confirmation=concordpay"

// Config holds all configuration for the application.
type Config struct {
	Env        string           `mapstructure:"env"`
	Server     ServerConfig     `mapstructure:"server"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	ConcordPay ConcordPayConfig `mapstructure:"concordpay"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	GinMode         string        `mapstructure:"gin_mode"` // "debug", "release", or "test"
	APIKey          string        `mapstructure:"api_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	Output       string `mapstructure:"output"`
	EnableColors bool   `mapstructure:"enable_colors"`
	FilePath     string `mapstructure:"file_path"`
	MaxSize      int    `mapstructure:"max_size"`
	MaxBackups   int    `mapstructure:"max_backups"`
	MaxAge       int    `mapstructure:"max_age"`
	Compress     bool   `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Driver            string        `mapstructure:"driver"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Name              string        `mapstructure:"name"`
	SSLMode           string        `mapstructure:"sslmode"`
	MaxOpenConns      int           `mapstructure:"max_open_conns"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `mapstructure:"conn_max_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisConfig configures the cart snapshot store. Carts are not kept when disabled.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CartTTL  time.Duration `mapstructure:"cart_ttl"`
}

// ConcordPayConfig holds the merchant settings for the payment processor.
type ConcordPayConfig struct {
	MerchantID  string         `mapstructure:"merchant_id"`
	SecretKey   string         `mapstructure:"secret_key"`
	APIURL      string         `mapstructure:"api_url"`
	SiteURL     string         `mapstructure:"site_url"`
	BaseURL     string         `mapstructure:"base_url"` // public URL of this service
	CallbackURL string         `mapstructure:"callback_url"`
	ReturnURL   string         `mapstructure:"return_url"`
	Language    string         `mapstructure:"language"`
	Currency    string         `mapstructure:"currency"`
	Statuses    StatusesConfig `mapstructure:"statuses"`
}

// StatusesConfig maps processor outcomes to order statuses.
type StatusesConfig struct {
	Approved string `mapstructure:"approved"`
	Declined string `mapstructure:"declined"`
	Refunded string `mapstructure:"refunded"`
}

// Load reads configuration from config.yaml, .env and the environment, in
// increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "."
	}

	// A missing .env is normal outside local runs.
	_ = godotenv.Load()

	cfg := SetDefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.deriveURLs(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config failed validation: %w", err)
	}

	return cfg, nil
}

// bindEnv makes every key reachable through the environment even when no
// config file mentions it.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"env",
		// Server
		"server.port",
		"server.gin_mode",
		"server.api_key",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.shutdown_timeout",
		// Logger
		"logger.level",
		"logger.format",
		"logger.output",
		"logger.enable_colors",
		"logger.file_path",
		"logger.max_size",
		"logger.max_backups",
		"logger.max_age",
		"logger.compress",
		// Database
		"database.driver",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.name",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		"database.health_check_period",
		// Redis
		"redis.enabled",
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.cart_ttl",
		// ConcordPay
		"concordpay.merchant_id",
		"concordpay.secret_key",
		"concordpay.api_url",
		"concordpay.site_url",
		"concordpay.base_url",
		"concordpay.callback_url",
		"concordpay.return_url",
		"concordpay.language",
		"concordpay.currency",
		"concordpay.statuses.approved",
		"concordpay.statuses.declined",
		"concordpay.statuses.refunded",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// deriveURLs fills the callback URL from the base URL and tags the return URL.
func (c *Config) deriveURLs() error {
	cp := &c.ConcordPay
	if cp.CallbackURL == "" && cp.BaseURL != "" {
		cp.CallbackURL = strings.TrimRight(cp.BaseURL, "/") + "/callback"
	}
	if cp.ReturnURL == "" {
		cp.ReturnURL = cp.SiteURL
	}
	if cp.ReturnURL == "" {
		return nil
	}

	u, err := url.Parse(cp.ReturnURL)
	if err != nil {
		return fmt.Errorf("invalid return url: %w", err)
	}
	if !strings.Contains(u.RawQuery, ReturnQuery) {
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += ReturnQuery
	}
	cp.ReturnURL = u.String()
	return nil
}

// Validate checks the configuration for values the service cannot start without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database host and name are required for postgres"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	if c.Server.APIKey == "" {
		errs = append(errs, errors.New("server api_key is required"))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis addr is required when redis is enabled"))
	}

	cp := c.ConcordPay
	if cp.MerchantID == "" {
		errs = append(errs, errors.New("concordpay merchant_id is required"))
	}
	if cp.SecretKey == "" {
		errs = append(errs, errors.New("concordpay secret_key is required"))
	}
	if cp.APIURL == "" {
		errs = append(errs, errors.New("concordpay api_url is required"))
	}
	if cp.CallbackURL == "" {
		errs = append(errs, errors.New("concordpay callback_url or base_url is required"))
	}
	if cp.ReturnURL == "" {
		errs = append(errs, errors.New("concordpay return_url or site_url is required"))
	}
	if !slices.Contains(domain.AllowedLanguages, cp.Language) {
		errs = append(errs, fmt.Errorf("concordpay language %q is not one of %v", cp.Language, domain.AllowedLanguages))
	}
	if !slices.Contains(domain.AllowedCurrencies, cp.Currency) {
		errs = append(errs, fmt.Errorf("concordpay currency %q is not one of %v", cp.Currency, domain.AllowedCurrencies))
	}
	for name, status := range map[string]string{
		"approved": cp.Statuses.Approved,
		"declined": cp.Statuses.Declined,
		"refunded": cp.Statuses.Refunded,
	} {
		if !domain.OrderStatus(status).Valid() {
			errs = append(errs, fmt.Errorf("concordpay %s status %q is not a known order status", name, status))
		}
	}

	return errors.Join(errs...)
}

// MerchantConfig returns the settings the payment service is built with.
func (c *Config) MerchantConfig() domain.MerchantConfig {
	cp := c.ConcordPay
	return domain.MerchantConfig{
		MerchantID:  cp.MerchantID,
		SecretKey:   cp.SecretKey,
		APIURL:      cp.APIURL,
		SiteURL:     cp.SiteURL,
		CallbackURL: cp.CallbackURL,
		ReturnURL:   cp.ReturnURL,
		Language:    cp.Language,
		Currency:    cp.Currency,
		Statuses: domain.StatusMapping{
			Approved: domain.OrderStatus(cp.Statuses.Approved),
			Declined: domain.OrderStatus(cp.Statuses.Declined),
			Refunded: domain.OrderStatus(cp.Statuses.Refunded),
		},
	}
}

// GetDatabaseDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

// String implements fmt.Stringer with secrets redacted.
func (c ConcordPayConfig) String() string {
	return fmt.Sprintf("merchant_id=%s secret_key=%s api_url=%s callback_url=%s return_url=%s language=%s currency=%s",
		c.MerchantID, redact(c.SecretKey), c.APIURL, c.CallbackURL, c.ReturnURL, c.Language, c.Currency)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
