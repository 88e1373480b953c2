// Package domain contains the core business entities for the ConcordPay gateway.
package domain

import "errors"

// Domain errors - represent business rule violations.
var (
	// ErrInvalidRequest is returned for malformed requests.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidOrder is returned when order details fail checkout validation.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrUnsupportedCurrency is returned when checkout is attempted in a currency
	// outside the configured allow-list.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrMerchantNotConfigured is returned when merchant id or secret key are missing.
	ErrMerchantNotConfigured = errors.New("merchant settings are not configured")

	// ErrOrderNotFound is returned by order stores for unknown order ids.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderStore is returned when the order store cannot be reached or fails.
	ErrOrderStore = errors.New("order store error")
)

// ServiceError wraps errors with additional context.
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(err error, message, code string) *ServiceError {
	return &ServiceError{Err: err, Message: message, Code: code}
}
