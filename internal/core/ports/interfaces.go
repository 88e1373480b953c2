// Package ports defines the interfaces (ports) for the gateway service.
// These are contracts that adapters must implement.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

// OrderStore is the merchant's order persistence, owned outside the core.
// Lookups for unknown ids return domain.ErrOrderNotFound.
type OrderStore interface {
	// CreateOrder inserts a pending order and returns its id.
	CreateOrder(ctx context.Context, order domain.PaymentOrder) (int64, error)

	GetStatus(ctx context.Context, orderID int64) (domain.OrderStatus, error)
	GetGateway(ctx context.Context, orderID int64) (string, error)
	GetTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
	SetStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
	AddNote(ctx context.Context, orderID int64, note string) error
}

// OrderLocker serializes concurrent work on a single order. Callback
// deliveries for the same order run one at a time inside fn, against a
// store bound to the lock.
type OrderLocker interface {
	WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context, store OrderStore) error) error
}

// LockingOrderStore is an order store that can also lock single orders.
type LockingOrderStore interface {
	OrderStore
	OrderLocker
}

// CartStore keeps the customer's cart snapshot between checkout and payment.
type CartStore interface {
	// Save stores the cart lines for an order.
	Save(ctx context.Context, orderID int64, items []domain.CartItem) error

	// Clear empties the cart after a successful payment.
	Clear(ctx context.Context, orderID int64) error
}

// Signer computes and verifies ConcordPay message signatures.
type Signer interface {
	RequestSignature(req domain.PaymentRequest) string
	ResponseSignature(n domain.CallbackNotification) string
	VerifyResponse(n domain.CallbackNotification) bool
}

// Recorder receives business events for metrics.
type Recorder interface {
	CheckoutCreated(currency string)
	CheckoutFailed(code string)
	CallbackHandled(outcome domain.Outcome)
}
