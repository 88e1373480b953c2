// Package memory provides in-process stores for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
)

type orderRecord struct {
	order domain.PaymentOrder
	notes []string
}

// OrderStore keeps orders in a map. It is safe for concurrent use.
type OrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*orderRecord
	locks  map[int64]*sync.Mutex
}

var _ ports.LockingOrderStore = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[int64]*orderRecord),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (s *OrderStore) CreateOrder(_ context.Context, order domain.PaymentOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	order.ID = s.nextID
	s.orders[order.ID] = &orderRecord{order: order}
	return order.ID, nil
}

// Put stores an order under its own id, replacing any existing one.
func (s *OrderStore) Put(order domain.PaymentOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = &orderRecord{order: order}
	if order.ID > s.nextID {
		s.nextID = order.ID
	}
}

func (s *OrderStore) GetStatus(_ context.Context, orderID int64) (domain.OrderStatus, error) {
	rec, err := s.get(orderID)
	if err != nil {
		return "", err
	}
	return rec.order.Status, nil
}

func (s *OrderStore) GetGateway(_ context.Context, orderID int64) (string, error) {
	rec, err := s.get(orderID)
	if err != nil {
		return "", err
	}
	return rec.order.Gateway, nil
}

func (s *OrderStore) GetTotal(_ context.Context, orderID int64) (decimal.Decimal, error) {
	rec, err := s.get(orderID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rec.order.Amount, nil
}

func (s *OrderStore) SetStatus(_ context.Context, orderID int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	rec.order.Status = status
	return nil
}

func (s *OrderStore) AddNote(_ context.Context, orderID int64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	rec.notes = append(rec.notes, note)
	return nil
}

// WithOrderLock runs fn while holding the order's own mutex. Other orders are not blocked.
func (s *OrderStore) WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context, store ports.OrderStore) error) error {
	s.mu.Lock()
	if _, ok := s.orders[orderID]; !ok {
		s.mu.Unlock()
		return domain.ErrOrderNotFound
	}
	lock, ok := s.locks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[orderID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx, s)
}

// Order returns a copy of the stored order.
func (s *OrderStore) Order(orderID int64) (domain.PaymentOrder, bool) {
	rec, err := s.get(orderID)
	if err != nil {
		return domain.PaymentOrder{}, false
	}
	return rec.order, true
}

// Notes returns the notes attached to an order, oldest first.
func (s *OrderStore) Notes(orderID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[orderID]
	if !ok {
		return nil
	}
	return append([]string(nil), rec.notes...)
}

func (s *OrderStore) HealthCheck(context.Context) error {
	return nil
}

// get returns a snapshot of the record.
func (s *OrderStore) get(orderID int64) (orderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[orderID]
	if !ok {
		return orderRecord{}, domain.ErrOrderNotFound
	}
	return *rec, nil
}
