// Package handlers contains the HTTP handlers and routing.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitstack/concordpay-gateway/internal/adapters/concordpay"
	"github.com/fitstack/concordpay-gateway/internal/logger"
	"github.com/fitstack/concordpay-gateway/internal/metrics"
)

// CallbackPath is where the processor posts payment notifications.
const CallbackPath = "/callback"

// RouterConfig holds what the router needs besides the handler.
type RouterConfig struct {
	GinMode  string
	APIKey   string
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // /metrics is not served when nil
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(handler *PaymentHandler, cfg RouterConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(cfg.Logger, cfg.Metrics))
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	router.SetHTMLTemplate(concordpay.FormTemplate)

	// Health check (public)
	router.GET("/health", handler.Health)

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes (requires Bearer auth)
	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		payments.Use(ServiceAuthMiddleware(cfg.APIKey))
		{
			payments.POST("/checkout", handler.CreateCheckout)
		}
	}

	// Processor callback (public, validated by merchantSignature)
	router.POST(CallbackPath, handler.HandleCallback)

	return router
}
