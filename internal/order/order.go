package order

import (
	"context"
	"errors"
)

// Status enumerates the order lifecycle states. Transitions only move
// forward; Completed and Cancelled are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// ErrNotFound is returned when the referenced order does not exist.
var ErrNotFound = errors.New("order not found")

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

var rank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
	StatusCancelled:  2,
}

// CanTransition reports whether moving from one status to another respects
// the monotonic forward-only rule.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from.Terminal() {
		return false
	}
	if from == to {
		return false
	}
	return rank[to] > rank[from]
}

// Snapshot is an immutable read of an order taken at call time. Amount is
// carried as the raw decimal string the store holds; callers normalise it
// before signing.
type Snapshot struct {
	ID           string
	Amount       string
	Currency     string
	Status       Status
	BillingEmail string
}

// Store is the collaborator owning order persistence. Implementations must
// provide read-after-write consistency on status so the completion
// idempotency check is reliable, and must guard mutations so terminal
// orders are never rewritten.
type Store interface {
	GetOrder(ctx context.Context, id string) (Snapshot, error)
	SetStatus(ctx context.Context, id string, status Status, note string) error
	MarkPaid(ctx context.Context, id string) error
	CancelURL(ctx context.Context, id string) (string, error)
}
