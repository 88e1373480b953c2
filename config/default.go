package config

import (
	"time"

	"github.com/fitstack/concordpay-gateway/internal/adapters/concordpay"
	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

func SetDefaultConfig() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "debug",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logger: LoggerConfig{
			Level:        "info",
			Format:       "json",
			Output:       "stdout",
			EnableColors: false,
			FilePath:     "",
			MaxSize:      100,
			MaxBackups:   3,
			MaxAge:       28,
			Compress:     false,
		},
		Database: DatabaseConfig{
			Driver:            DriverMemory,
			Host:              "localhost",
			Port:              5432,
			User:              "postgres",
			Password:          "",
			Name:              "concordpay",
			SSLMode:           "disable",
			MaxOpenConns:      10,
			MaxIdleConns:      5,
			ConnMaxLifetime:   1 * time.Hour,
			ConnMaxIdleTime:   15 * time.Minute,
			HealthCheckPeriod: 1 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			CartTTL: 24 * time.Hour,
		},
		ConcordPay: ConcordPayConfig{
			APIURL:   concordpay.DefaultAPIURL,
			Language: "uk",
			Currency: "UAH",
			Statuses: StatusesConfig{
				Approved: string(domain.OrderStatusPublish),
				Declined: string(domain.OrderStatusFailed),
				Refunded: string(domain.OrderStatusRefunded),
			},
		},
	}
}
