package memory

import (
	"context"
	"sync"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
)

// CartStore keeps cart snapshots in a map.
type CartStore struct {
	mu    sync.RWMutex
	carts map[int64][]domain.CartItem
}

var _ ports.CartStore = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[int64][]domain.CartItem)}
}

func (c *CartStore) Save(_ context.Context, orderID int64, items []domain.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carts[orderID] = append([]domain.CartItem(nil), items...)
	return nil
}

func (c *CartStore) Clear(_ context.Context, orderID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, orderID)
	return nil
}

// Items returns the saved cart of an order.
func (c *CartStore) Items(orderID int64) ([]domain.CartItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.carts[orderID]
	return items, ok
}
