package callback_test

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/payop-gateway/internal/order"
)

// fakeStore is an in-memory order.Store recording mutations for assertions.
// MarkPaid mirrors the production guard: the side effect applies only while
// the order is unpaid, and failMarkPaid injects transient failures.
type fakeStore struct {
	mu           sync.Mutex
	orders       map[string]order.Snapshot
	cancelURLs   map[string]string
	notes        []string
	paid         map[string]bool
	markPaid     int
	failMarkPaid int
}

func newFakeStore(snaps ...order.Snapshot) *fakeStore {
	store := &fakeStore{
		orders:     map[string]order.Snapshot{},
		cancelURLs: map[string]string{},
		paid:       map[string]bool{},
	}
	for _, snap := range snaps {
		store.orders[snap.ID] = snap
		store.cancelURLs[snap.ID] = "https://shop.example/cart?cancel=" + snap.ID
	}
	return store
}

func (s *fakeStore) GetOrder(_ context.Context, id string) (order.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.orders[id]
	if !ok {
		return order.Snapshot{}, order.ErrNotFound
	}
	return snap, nil
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status order.Status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	snap.Status = status
	s.orders[id] = snap
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeStore) MarkPaid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if s.failMarkPaid > 0 {
		s.failMarkPaid--
		return errors.New("store temporarily unavailable")
	}
	if s.paid[id] {
		return nil
	}
	snap.Status = order.StatusCompleted
	s.orders[id] = snap
	s.paid[id] = true
	s.markPaid++
	return nil
}

func (s *fakeStore) CancelURL(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return "", order.ErrNotFound
	}
	return s.cancelURLs[id], nil
}

func (s *fakeStore) status(id string) order.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

func (s *fakeStore) markPaidCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markPaid
}

func (s *fakeStore) markAlreadyPaid(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paid[id] = true
}

func (s *fakeStore) failNextMarkPaid(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMarkPaid = n
}
