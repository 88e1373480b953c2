package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
	"github.com/fitstack/concordpay-gateway/internal/core/ports"
)

// Schema creates the tables the order store needs.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         BIGSERIAL PRIMARY KEY,
	amount     NUMERIC     NOT NULL,
	currency   TEXT        NOT NULL,
	status     TEXT        NOT NULL,
	gateway    TEXT        NOT NULL,
	email      TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_notes (
	id         BIGSERIAL PRIMARY KEY,
	order_id   BIGINT      NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
	note       TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS order_notes_order_id_idx ON order_notes (order_id);
`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OrderStore keeps orders in PostgreSQL.
type OrderStore struct {
	pool *Pool
	db   querier
}

var _ ports.LockingOrderStore = (*OrderStore)(nil)

// NewOrderStore creates an order store on the pool.
func NewOrderStore(pool *Pool) *OrderStore {
	return &OrderStore{pool: pool, db: pool}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *OrderStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *OrderStore) CreateOrder(ctx context.Context, order domain.PaymentOrder) (int64, error) {
	const q = `
		INSERT INTO orders (amount, currency, status, gateway, email, created_at, updated_at)
		VALUES ($1::numeric, $2, $3, $4, $5, $6, $6)
		RETURNING id`

	var id int64
	err := s.db.QueryRow(ctx, q,
		order.Amount.String(), order.Currency, string(order.Status), order.Gateway, order.Email, order.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (s *OrderStore) GetStatus(ctx context.Context, orderID int64) (domain.OrderStatus, error) {
	var status string
	if err := s.scanColumn(ctx, "status", orderID, &status); err != nil {
		return "", err
	}
	return domain.OrderStatus(status), nil
}

func (s *OrderStore) GetGateway(ctx context.Context, orderID int64) (string, error) {
	var gateway string
	if err := s.scanColumn(ctx, "gateway", orderID, &gateway); err != nil {
		return "", err
	}
	return gateway, nil
}

// GetTotal reads the amount as text so no precision is lost on the way.
func (s *OrderStore) GetTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var raw string
	if err := s.scanColumn(ctx, "amount::text", orderID, &raw); err != nil {
		return decimal.Decimal{}, err
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse order total %q: %w", raw, err)
	}
	return total, nil
}

func (s *OrderStore) SetStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (s *OrderStore) AddNote(ctx context.Context, orderID int64, note string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO order_notes (order_id, note) VALUES ($1, $2)`,
		orderID, note,
	)
	if err != nil {
		return fmt.Errorf("insert order note: %w", err)
	}
	return nil
}

// WithOrderLock runs fn in a transaction holding a row lock on the order.
// fn's store works inside that transaction; returning an error rolls it back.
func (s *OrderStore) WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context, store ports.OrderStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}

	if err := fn(ctx, &OrderStore{pool: s.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HealthCheck pings the database.
func (s *OrderStore) HealthCheck(ctx context.Context) error {
	return s.pool.HealthCheck(ctx)
}

// scanColumn reads a single column of one order. column is never user input.
func (s *OrderStore) scanColumn(ctx context.Context, column string, orderID int64, dest any) error {
	err := s.db.QueryRow(ctx, `SELECT `+column+` FROM orders WHERE id = $1`, orderID).Scan(dest)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("select order %s: %w", column, err)
	}
	return nil
}
