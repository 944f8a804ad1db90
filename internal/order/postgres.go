package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore wires a Store backed by the provided pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

// GetOrder loads a snapshot of the order row.
func (s *PostgresStore) GetOrder(ctx context.Context, id string) (Snapshot, error) {
	if s == nil || s.Pool == nil {
		return Snapshot{}, errors.New("order store not configured")
	}
	const query = `
		SELECT id, amount::text, currency, status, billing_email
		FROM orders
		WHERE id = $1`
	var snap Snapshot
	var status string
	err := s.Pool.QueryRow(ctx, query, id).Scan(&snap.ID, &snap.Amount, &snap.Currency, &status, &snap.BillingEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get order %s: %w", id, err)
	}
	snap.Status = Status(status)
	return snap, nil
}

// SetStatus applies a guarded status transition and records the note. The
// WHERE clause re-checks the current status so a concurrent writer cannot
// move a terminal order, independent of what the caller read.
func (s *PostgresStore) SetStatus(ctx context.Context, id string, status Status, note string) error {
	if s == nil || s.Pool == nil {
		return errors.New("order store not configured")
	}
	if !status.Valid() {
		return fmt.Errorf("invalid order status %q", status)
	}
	const query = `
		UPDATE orders
		SET status = $2, note = $3, updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('completed', 'cancelled')
		  AND status <> $2`
	tag, err := s.Pool.Exec(ctx, query, id, string(status), strings.TrimSpace(note))
	if err != nil {
		return fmt.Errorf("set status %s on order %s: %w", status, id, err)
	}
	if tag.RowsAffected() == 0 {
		current, getErr := s.GetOrder(ctx, id)
		if getErr != nil {
			return getErr
		}
		if current.Status == status {
			return nil
		}
		return fmt.Errorf("order %s: transition %s -> %s refused", id, current.Status, status)
	}
	return nil
}

// MarkPaid records the payment-completion side effect. Guarding on
// paid_at rather than status makes the call idempotent even when the
// status column was flipped to completed first: the timestamp is set
// exactly once per order.
func (s *PostgresStore) MarkPaid(ctx context.Context, id string) error {
	if s == nil || s.Pool == nil {
		return errors.New("order store not configured")
	}
	const query = `
		UPDATE orders
		SET status = 'completed', paid_at = now(), updated_at = now()
		WHERE id = $1 AND paid_at IS NULL`
	tag, err := s.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark order %s paid: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetOrder(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// CancelURL returns the merchant page the buyer lands on after refusing or
// failing payment.
func (s *PostgresStore) CancelURL(ctx context.Context, id string) (string, error) {
	if s == nil || s.Pool == nil {
		return "", errors.New("order store not configured")
	}
	var cancelURL string
	err := s.Pool.QueryRow(ctx, `SELECT cancel_url FROM orders WHERE id = $1`, id).Scan(&cancelURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("cancel url for order %s: %w", id, err)
	}
	return cancelURL, nil
}
