// Package handlers contains the HTTP handlers for the gateway service.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fitstack/concordpay-gateway/internal/adapters/concordpay"
	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/service"
	"github.com/fitstack/concordpay-gateway/internal/logger"
)

// HealthChecker is a dependency whose connectivity /health reports.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CheckoutResponse carries the signed request for clients that post the form themselves.
type CheckoutResponse struct {
	Success        bool                `json:"success"`
	OrderID        int64               `json:"order_id"`
	OrderReference string              `json:"order_reference"`
	Action         string              `json:"action"`
	Fields         map[string][]string `json:"fields"`
}

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	service *service.PaymentService
	log     logger.Logger
	checks  map[string]HealthChecker
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(svc *service.PaymentService, log logger.Logger, checks map[string]HealthChecker) *PaymentHandler {
	return &PaymentHandler{service: svc, log: log, checks: checks}
}

// CreateCheckout handles POST /api/v1/payments/checkout
// Creates the order and returns the auto-submitting payment form, or its
// fields as JSON when the client does not ask for HTML.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var details domain.OrderDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	checkout, err := h.service.HandleCheckout(c.Request.Context(), details)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	form := concordpay.NewForm(checkout.Action, checkout.Request)

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.HTML(http.StatusOK, concordpay.FormTemplateName, form)
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		Success:        true,
		OrderID:        checkout.OrderID,
		OrderReference: checkout.Request.OrderReference,
		Action:         form.Action,
		Fields:         form.Values(),
	})
}

// HandleCallback handles POST /callback
// The processor only learns whether the callback was accepted: the body is
// always empty and every rejection looks the same.
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	var notification domain.CallbackNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		h.log.Warn("callback body rejected",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.Status(http.StatusBadRequest)
		return
	}

	outcome, err := h.service.HandleCallback(c.Request.Context(), notification)
	if err != nil {
		// 500 makes the processor retry later.
		c.Status(http.StatusInternalServerError)
		return
	}

	if !outcome.Accepted() {
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)
}

// Health handles GET /health
func (h *PaymentHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			deps[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":       status,
		"service":      "concordpay-gateway",
		"version":      "1.0.0",
		"dependencies": deps,
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(svcErr.Err, domain.ErrInvalidRequest),
			errors.Is(svcErr.Err, domain.ErrInvalidOrder),
			errors.Is(svcErr.Err, domain.ErrUnsupportedCurrency):
			statusCode = http.StatusBadRequest
		case errors.Is(svcErr.Err, domain.ErrOrderNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(svcErr.Err, domain.ErrMerchantNotConfigured):
			statusCode = http.StatusServiceUnavailable
		case errors.Is(svcErr.Err, domain.ErrOrderStore):
			statusCode = http.StatusInternalServerError
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   svcErr.Message,
			Code:    svcErr.Code,
		})
		return
	}

	// Generic error
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}
