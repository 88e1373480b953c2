// ConcordPay Gateway
//
// This is the main entry point for the payment gateway service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fitstack/concordpay-gateway/config"
	"github.com/fitstack/concordpay-gateway/internal/adapters/concordpay"
	"github.com/fitstack/concordpay-gateway/internal/adapters/memory"
	"github.com/fitstack/concordpay-gateway/internal/adapters/postgres"
	"github.com/fitstack/concordpay-gateway/internal/adapters/redis"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
	"github.com/fitstack/concordpay-gateway/internal/core/service"
	"github.com/fitstack/concordpay-gateway/internal/handlers"
	"github.com/fitstack/concordpay-gateway/internal/logger"
	"github.com/fitstack/concordpay-gateway/internal/metrics"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting concordpay gateway",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Stringer("concordpay", cfg.ConcordPay),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	checks := make(map[string]handlers.HealthChecker)

	var orders ports.LockingOrderStore
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, &cfg.Database, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		store := postgres.NewOrderStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal("failed to prepare database schema", zap.Error(err))
		}
		orders = store
		checks["database"] = store
	default:
		log.Warn("using in-memory order store, orders are lost on restart")
		store := memory.NewOrderStore()
		orders = store
		checks["database"] = store
	}

	var cart ports.CartStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(cfg.Redis)
		defer func() { _ = client.Close() }()

		store := redis.NewCartStore(client, cfg.Redis.CartTTL)
		cart = store
		checks["redis"] = store
	} else {
		cart = memory.NewCartStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Service Layer
	paymentService := service.NewPaymentService(
		cfg.MerchantConfig(),
		concordpay.NewSigner(cfg.ConcordPay.SecretKey),
		orders,
		cart,
		log,
		service.WithRecorder(m),
	)

	// API Layer
	handler := handlers.NewPaymentHandler(paymentService, log, checks)
	router := handlers.SetupRouter(handler, handlers.RouterConfig{
		GinMode:  cfg.Server.GinMode,
		APIKey:   cfg.Server.APIKey,
		Logger:   log,
		Metrics:  m,
		Gatherer: registry,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
