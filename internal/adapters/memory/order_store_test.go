package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
)

func TestOrderStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	id, err := s.CreateOrder(ctx, domain.PaymentOrder{
		Amount:  decimal.RequireFromString("100.00"),
		Status:  domain.OrderStatusPending,
		Gateway: domain.GatewayName,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	second, err := s.CreateOrder(ctx, domain.PaymentOrder{Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	status, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, status)

	gateway, err := s.GetGateway(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayName, gateway)

	total, err := s.GetTotal(ctx, id)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(100)))

	require.NoError(t, s.SetStatus(ctx, id, domain.OrderStatusPublish))
	require.NoError(t, s.AddNote(ctx, id, "first"))
	require.NoError(t, s.AddNote(ctx, id, "second"))

	order, ok := s.Order(id)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPublish, order.Status)
	assert.Equal(t, []string{"first", "second"}, s.Notes(id))
}

func TestOrderStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	_, err := s.GetStatus(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = s.GetTotal(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, 9, domain.OrderStatusFailed), domain.ErrOrderNotFound)
	assert.ErrorIs(t, s.AddNote(ctx, 9, "x"), domain.ErrOrderNotFound)

	called := false
	err = s.WithOrderLock(ctx, 9, func(context.Context, ports.OrderStore) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.False(t, called)
}

func TestOrderStore_WithOrderLock(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	s.Put(domain.PaymentOrder{ID: 5, Status: domain.OrderStatusPending})

	boom := errors.New("boom")
	err := s.WithOrderLock(ctx, 5, func(ctx context.Context, store ports.OrderStore) error {
		return store.SetStatus(ctx, 5, domain.OrderStatusFailed)
	})
	require.NoError(t, err)

	err = s.WithOrderLock(ctx, 5, func(context.Context, ports.OrderStore) error { return boom })
	assert.ErrorIs(t, err, boom)

	id, err := s.CreateOrder(ctx, domain.PaymentOrder{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), id, "ids continue after Put")
}

func TestCartStore(t *testing.T) {
	ctx := context.Background()
	c := NewCartStore()

	items := []domain.CartItem{{Name: "Socks", Price: decimal.NewFromInt(10), Quantity: 2}}
	require.NoError(t, c.Save(ctx, 1, items))

	got, ok := c.Items(1)
	require.True(t, ok)
	assert.Equal(t, items, got)

	require.NoError(t, c.Clear(ctx, 1))
	_, ok = c.Items(1)
	assert.False(t, ok)
}
