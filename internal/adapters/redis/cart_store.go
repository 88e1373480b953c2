// Package redis keeps cart snapshots in Redis between checkout and payment.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fitstack/concordpay-gateway/config"
	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
)

const cartKeyPrefix = "concordpay:cart:"

// CartStore stores each cart as a JSON value with a TTL.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.CartStore = (*CartStore)(nil)

// NewClient creates a Redis client from configuration.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// CartKey is the Redis key of an order's cart.
func CartKey(orderID int64) string {
	return cartKeyPrefix + strconv.FormatInt(orderID, 10)
}

func (c *CartStore) Save(ctx context.Context, orderID int64, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := c.client.Set(ctx, CartKey(orderID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (c *CartStore) Clear(ctx context.Context, orderID int64) error {
	if err := c.client.Del(ctx, CartKey(orderID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Items loads a saved cart. A missing cart is not an error.
func (c *CartStore) Items(ctx context.Context, orderID int64) ([]domain.CartItem, bool, error) {
	data, err := c.client.Get(ctx, CartKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cart: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, true, nil
}

// HealthCheck pings Redis.
func (c *CartStore) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
