// Package service implements the core business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
	"github.com/fitstack/concordpay-gateway/internal/logger"
)

// PaymentService builds payment requests and handles processor callbacks.
type PaymentService struct {
	cfg      domain.MerchantConfig
	signer   ports.Signer
	orders   ports.LockingOrderStore
	cart     ports.CartStore
	recorder ports.Recorder
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a PaymentService.
type Option func(*PaymentService)

// WithClock overrides the time source used for order references.
func WithClock(now func() time.Time) Option {
	return func(s *PaymentService) { s.now = now }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r ports.Recorder) Option {
	return func(s *PaymentService) { s.recorder = r }
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	cfg domain.MerchantConfig,
	signer ports.Signer,
	orders ports.LockingOrderStore,
	cart ports.CartStore,
	log logger.Logger,
	opts ...Option,
) *PaymentService {
	s := &PaymentService{
		cfg:      cfg,
		signer:   signer,
		orders:   orders,
		cart:     cart,
		recorder: nopRecorder{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleCheckout validates the order at the boundary, creates the pending
// order and returns its signed payment request.
func (s *PaymentService) HandleCheckout(ctx context.Context, details domain.OrderDetails) (*domain.Checkout, error) {
	if err := s.validateCheckout(details); err != nil {
		var svcErr *domain.ServiceError
		if errors.As(err, &svcErr) {
			s.recorder.CheckoutFailed(svcErr.Code)
		}
		return nil, err
	}

	amount := details.NetAmount()
	orderID, err := s.orders.CreateOrder(ctx, domain.PaymentOrder{
		Amount:    amount,
		Currency:  details.Currency,
		Status:    domain.OrderStatusPending,
		Gateway:   domain.GatewayName,
		Email:     details.Email,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.log.Error("failed to create order", zap.Error(err))
		s.recorder.CheckoutFailed("ORDER_STORE_ERROR")
		return nil, domain.NewServiceError(domain.ErrOrderStore,
			"failed to create order", "ORDER_STORE_ERROR")
	}

	if len(details.Cart) > 0 {
		if err := s.cart.Save(ctx, orderID, details.Cart); err != nil {
			s.log.Warn("failed to save cart snapshot", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}

	req := s.BuildPaymentRequest(orderID, details)

	s.log.Info("payment request created",
		zap.Int64("order_id", orderID),
		zap.String("order_reference", req.OrderReference),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency),
	)
	s.recorder.CheckoutCreated(req.Currency)

	return &domain.Checkout{
		OrderID: orderID,
		Action:  s.cfg.APIURL,
		Request: req,
	}, nil
}

// BuildPaymentRequest fills and signs the payment request for an order.
// Inputs are expected to be validated already; nothing is re-checked here.
func (s *PaymentService) BuildPaymentRequest(orderID int64, details domain.OrderDetails) domain.PaymentRequest {
	req := domain.PaymentRequest{
		Operation:       domain.OperationPurchase,
		MerchantID:      s.cfg.MerchantID,
		Amount:          details.NetAmount(),
		OrderReference:  domain.NewOrderReference(orderID, s.now()),
		Currency:        details.Currency,
		Description:     s.describe(details),
		ApproveURL:      s.cfg.ReturnURL,
		DeclineURL:      s.cfg.ReturnURL,
		CancelURL:       s.cfg.ReturnURL,
		CallbackURL:     s.cfg.CallbackURL,
		Language:        s.cfg.Language,
		ClientFirstName: details.FirstName,
		ClientLastName:  details.LastName,
		Email:           details.Email,
		Phone:           normalizePhone(details.Phone),
	}

	for _, item := range details.Cart {
		req.ProductNames = append(req.ProductNames, item.Name)
		req.ProductPrices = append(req.ProductPrices, item.Price.String())
		req.ProductCounts = append(req.ProductCounts, strconv.Itoa(item.Quantity))
	}

	req.Signature = s.signer.RequestSignature(req)
	return req
}

// ValidateCallback reports whether a callback comes from the processor for
// this merchant. It has no side effects.
func (s *PaymentService) ValidateCallback(n domain.CallbackNotification) bool {
	return s.checkCallback(n) == ""
}

// HandleCallback validates a callback and, if authentic, applies it to the
// order while holding the order lock.
func (s *PaymentService) HandleCallback(ctx context.Context, n domain.CallbackNotification) (domain.Outcome, error) {
	if reason := s.checkCallback(n); reason != "" {
		outcome := domain.Outcome{Kind: domain.OutcomeRejected, Reason: reason}
		s.finish(n, outcome)
		return outcome, nil
	}

	orderID, ok := domain.ParseOrderReference(n.OrderReference)
	if !ok {
		outcome := domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonBadReference}
		s.finish(n, outcome)
		return outcome, nil
	}

	var outcome domain.Outcome
	err := s.orders.WithOrderLock(ctx, orderID, func(ctx context.Context, store ports.OrderStore) error {
		var err error
		outcome, err = s.process(ctx, store, orderID, n)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			outcome = domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonOrderNotFound, OrderID: orderID}
			s.finish(n, outcome)
			return outcome, nil
		}
		s.log.Error("callback processing failed",
			zap.Int64("order_id", orderID),
			zap.String("transaction_id", n.TransactionID),
			zap.Error(err),
		)
		return domain.Outcome{}, domain.NewServiceError(domain.ErrOrderStore,
			"failed to apply callback", "ORDER_STORE_ERROR")
	}

	s.clearPaidCart(ctx, n, outcome)
	s.finish(n, outcome)
	return outcome, nil
}

// ProcessCallback applies an already validated callback to its order without
// taking the order lock. Callers that may race on the same order should use
// HandleCallback instead.
func (s *PaymentService) ProcessCallback(ctx context.Context, n domain.CallbackNotification) (domain.Outcome, error) {
	orderID, ok := domain.ParseOrderReference(n.OrderReference)
	if !ok {
		return domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonBadReference}, nil
	}
	outcome, err := s.process(ctx, s.orders, orderID, n)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonOrderNotFound, OrderID: orderID}, nil
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	s.clearPaidCart(ctx, n, outcome)
	return outcome, nil
}

// clearPaidCart empties the customer's cart once a payment transition has
// been stored. Failures are logged only.
func (s *PaymentService) clearPaidCart(ctx context.Context, n domain.CallbackNotification, outcome domain.Outcome) {
	if outcome.Kind != domain.OutcomeTransitioned ||
		n.TransactionStatus != domain.TransactionApproved || n.Type != domain.OperationPayment {
		return
	}
	if err := s.cart.Clear(ctx, outcome.OrderID); err != nil {
		s.log.Warn("failed to clear cart", zap.Int64("order_id", outcome.OrderID), zap.Error(err))
	}
}

// process runs the guards and the status transition for one order.
func (s *PaymentService) process(ctx context.Context, store ports.OrderStore, orderID int64, n domain.CallbackNotification) (domain.Outcome, error) {
	noop := func(reason string) domain.Outcome {
		return domain.Outcome{Kind: domain.OutcomeNoOp, Reason: reason, OrderID: orderID}
	}

	status, err := store.GetStatus(ctx, orderID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("get status: %w", err)
	}

	// Repeated delivery of a payment that is already settled.
	if s.isPaid(status) && n.Type != domain.OperationReverse {
		return noop(domain.ReasonDuplicate), nil
	}

	gateway, err := store.GetGateway(ctx, orderID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("get gateway: %w", err)
	}
	if gateway != domain.GatewayName {
		return noop(domain.ReasonGatewayMismatch), nil
	}

	total, err := store.GetTotal(ctx, orderID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("get total: %w", err)
	}
	if !n.Amount.Valid || !n.Amount.Decimal.Equal(total) {
		return noop(domain.ReasonAmountMismatch), nil
	}

	target, ok := s.targetStatus(n)
	if !ok {
		return noop(domain.ReasonUnhandledStatus), nil
	}
	if status == target {
		return noop(domain.ReasonAlreadyInStatus), nil
	}

	if err := store.SetStatus(ctx, orderID, target); err != nil {
		return domain.Outcome{}, fmt.Errorf("set status: %w", err)
	}

	if n.TransactionStatus == domain.TransactionApproved {
		notes := []string{
			"Payment ID: " + strconv.FormatInt(orderID, 10),
			"ConcordPay transaction ID: " + n.TransactionID,
		}
		for _, note := range notes {
			if err := store.AddNote(ctx, orderID, note); err != nil {
				return domain.Outcome{}, fmt.Errorf("add note: %w", err)
			}
		}
	}

	return domain.Outcome{
		Kind:    domain.OutcomeTransitioned,
		OrderID: orderID,
		Status:  target,
	}, nil
}

// targetStatus maps a callback to the order status it should produce.
// Declined is handled for any operation type.
func (s *PaymentService) targetStatus(n domain.CallbackNotification) (domain.OrderStatus, bool) {
	switch n.TransactionStatus {
	case domain.TransactionApproved:
		switch n.Type {
		case domain.OperationPayment:
			return s.cfg.Statuses.Approved, true
		case domain.OperationReverse:
			return s.cfg.Statuses.Refunded, true
		}
	case domain.TransactionDeclined:
		return s.cfg.Statuses.Declined, true
	}
	return "", false
}

// isPaid reports whether status means the order has already been paid for.
func (s *PaymentService) isPaid(status domain.OrderStatus) bool {
	return status == domain.OrderStatusComplete || status == s.cfg.Statuses.Approved
}

// checkCallback returns the rejection reason for a callback, or "" if it is authentic.
func (s *PaymentService) checkCallback(n domain.CallbackNotification) string {
	if s.cfg.MerchantID == "" || n.MerchantAccount != s.cfg.MerchantID {
		return domain.ReasonMerchantMismatch
	}
	if !s.signer.VerifyResponse(n) {
		return domain.ReasonInvalidSignature
	}
	return ""
}

// finish logs and records a callback outcome. The processor only ever sees
// accepted or not accepted.
func (s *PaymentService) finish(n domain.CallbackNotification, outcome domain.Outcome) {
	fields := []logger.Field{
		zap.String("order_reference", n.OrderReference),
		zap.String("transaction_id", n.TransactionID),
		zap.String("transaction_status", string(n.TransactionStatus)),
		zap.String("type", string(n.Type)),
		zap.String("outcome", string(outcome.Kind)),
	}
	if outcome.Reason != "" {
		fields = append(fields, zap.String("reason", outcome.Reason))
	}

	switch {
	case outcome.Kind == domain.OutcomeTransitioned:
		s.log.Info("order status updated", append(fields, zap.String("status", string(outcome.Status)))...)
	case outcome.Accepted():
		s.log.Info("callback ignored", fields...)
	default:
		s.log.Warn("callback discarded", fields...)
	}
	s.recorder.CallbackHandled(outcome)
}

func (s *PaymentService) validateCheckout(details domain.OrderDetails) error {
	if s.cfg.MerchantID == "" || s.cfg.SecretKey == "" {
		return domain.NewServiceError(domain.ErrMerchantNotConfigured,
			"merchant id and secret key must be configured", "MERCHANT_NOT_CONFIGURED")
	}
	if details.Currency == "" || details.Currency != s.cfg.Currency ||
		!slices.Contains(domain.AllowedCurrencies, details.Currency) {
		return domain.NewServiceError(domain.ErrUnsupportedCurrency,
			fmt.Sprintf("currency %q is not accepted", details.Currency), "UNSUPPORTED_CURRENCY")
	}
	if !details.NetAmount().IsPositive() {
		return domain.NewServiceError(domain.ErrInvalidOrder,
			"amount must be greater than 0", "VALIDATION_ERROR")
	}
	for _, item := range details.Cart {
		if item.Price.IsNegative() {
			return domain.NewServiceError(domain.ErrInvalidOrder,
				"cart item price must not be negative", "VALIDATION_ERROR")
		}
	}
	return nil
}

// describe builds the payment description shown on the hosted page.
func (s *PaymentService) describe(details domain.OrderDetails) string {
	var b strings.Builder
	b.WriteString("Payment by card on the site")
	if s.cfg.SiteURL != "" {
		b.WriteString(" " + s.cfg.SiteURL)
	}
	b.WriteString(", " + strings.TrimSpace(details.FirstName+" "+details.LastName))
	if phone := normalizePhone(details.Phone); phone != "" {
		b.WriteString(", " + phone)
	}
	return b.String()
}

// normalizePhone keeps the digits of a phone number and drops numbers of the wrong length.
func normalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < domain.PhoneLengthMin || len(digits) > domain.PhoneLengthMax {
		return ""
	}
	return digits
}

type nopRecorder struct{}

func (nopRecorder) CheckoutCreated(string)         {}
func (nopRecorder) CheckoutFailed(string)          {}
func (nopRecorder) CallbackHandled(domain.Outcome) {}
