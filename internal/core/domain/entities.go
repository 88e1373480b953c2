// Package domain contains the core business entities for the ConcordPay gateway.
// This is the innermost layer - no framework or infrastructure dependencies.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayName is recorded on every order paid through ConcordPay.
const GatewayName = "concordpay"

// OrderSeparator splits an order reference into the internal order id and
// the uniqueness token appended at checkout.
const OrderSeparator = "#"

// OperationPurchase is the only operation the hosted payment page is asked to perform.
const OperationPurchase = "Purchase"

// Phone numbers shorter or longer than this are not sent to the payment page.
const (
	PhoneLengthMin = 10
	PhoneLengthMax = 11
)

var (
	// AllowedLanguages are the payment page languages the processor supports.
	AllowedLanguages = []string{"ru", "uk", "en"}

	// AllowedCurrencies is the currency allow-list for checkout.
	AllowedCurrencies = []string{"UAH"}
)

// OrderStatus is the merchant-side state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPublish   OrderStatus = "publish"
	OrderStatusComplete  OrderStatus = "complete"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusAbandoned OrderStatus = "abandoned"
	OrderStatusRevoked   OrderStatus = "revoked"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPublish, OrderStatusComplete, OrderStatusRefunded,
		OrderStatusFailed, OrderStatusAbandoned, OrderStatusRevoked:
		return true
	}
	return false
}

// TransactionStatus is the processor-reported outcome of a transaction.
type TransactionStatus string

const (
	TransactionApproved TransactionStatus = "Approved"
	TransactionDeclined TransactionStatus = "Declined"
)

// OperationType distinguishes ordinary payments from refunds in callbacks.
type OperationType string

const (
	OperationPayment OperationType = "payment"
	OperationReverse OperationType = "reverse"
)

// StatusMapping maps processor outcomes to merchant order statuses.
type StatusMapping struct {
	Approved OrderStatus
	Declined OrderStatus
	Refunded OrderStatus
}

// MerchantConfig is the read-only merchant configuration the orchestrator is built with.
type MerchantConfig struct {
	MerchantID  string
	SecretKey   string
	APIURL      string
	SiteURL     string
	CallbackURL string
	ReturnURL   string
	Language    string
	Currency    string
	Statuses    StatusMapping
}

// CartItem is a single line of the customer's shopping cart.
type CartItem struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
}

// OrderDetails is what the storefront knows about a purchase at checkout time.
type OrderDetails struct {
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name" binding:"required"`
	Email     string          `json:"email" binding:"required,email"`
	Phone     string          `json:"phone"`
	Price     decimal.Decimal `json:"price"` // gross, tax included
	Tax       decimal.Decimal `json:"tax"`
	Currency  string          `json:"currency" binding:"required"`
	Cart      []CartItem      `json:"cart"`
}

// NetAmount is the amount actually charged: gross price minus tax.
func (d OrderDetails) NetAmount() decimal.Decimal {
	return d.Price.Sub(d.Tax)
}

// PaymentOrder is the merchant-side order under payment.
type PaymentOrder struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    OrderStatus     `json:"status"`
	Gateway   string          `json:"gateway"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOrderReference builds the per-attempt reference "<order id>#<unix ts>".
func NewOrderReference(orderID int64, now time.Time) string {
	return strconv.FormatInt(orderID, 10) + OrderSeparator + strconv.FormatInt(now.Unix(), 10)
}

// ParseOrderReference returns the internal order id encoded in a reference.
// A reference without a separator is treated as a bare order id.
func ParseOrderReference(reference string) (int64, bool) {
	idPart, _, _ := strings.Cut(reference, OrderSeparator)
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// OutcomeKind classifies the result of handling a callback.
type OutcomeKind string

const (
	OutcomeTransitioned OutcomeKind = "transitioned"
	OutcomeNoOp         OutcomeKind = "no_op"
	OutcomeRejected     OutcomeKind = "rejected"
)

// Reasons attached to no-op and rejected outcomes. They are logged and counted,
// never sent back to the processor.
const (
	ReasonMerchantMismatch = "merchant_mismatch"
	ReasonInvalidSignature = "invalid_signature"
	ReasonBadReference     = "bad_reference"
	ReasonOrderNotFound    = "order_not_found"
	ReasonDuplicate        = "duplicate"
	ReasonGatewayMismatch  = "gateway_mismatch"
	ReasonAmountMismatch   = "amount_mismatch"
	ReasonUnhandledStatus  = "unhandled_status"
	ReasonAlreadyInStatus  = "already_in_status"
)

// Outcome is what the orchestrator decided about one callback.
type Outcome struct {
	Kind    OutcomeKind
	Reason  string
	OrderID int64
	Status  OrderStatus // status the order was moved to, if transitioned
}

// Accepted reports whether the processor should see a successful response.
// Guard failures on an authentic callback are not accepted, same as rejections.
func (o Outcome) Accepted() bool {
	switch o.Kind {
	case OutcomeTransitioned:
		return true
	case OutcomeNoOp:
		switch o.Reason {
		case ReasonDuplicate, ReasonAlreadyInStatus, ReasonUnhandledStatus:
			return true
		}
	}
	return false
}

// Checkout is a created order together with its signed payment request.
type Checkout struct {
	OrderID int64
	Action  string
	Request PaymentRequest
}
