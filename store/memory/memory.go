// Package memory provides an in-memory Store implementation for tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
)

// Memory implements store.Store with maps. Safe for concurrent use; the
// single mutex makes UpdateClient's read-modify-write atomic, matching the
// serialization contract.
type Memory struct {
	mu       sync.RWMutex
	clients  map[string]store.Client
	payments map[string]schedule.PaymentRecord
}

func New() *Memory {
	return &Memory{
		clients:  make(map[string]store.Client),
		payments: make(map[string]schedule.PaymentRecord),
	}
}

// =============================================================================
// CLIENT STORE
// =============================================================================

func (m *Memory) SaveClient(_ context.Context, c store.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.clients[c.ID] = cloneClient(c)
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*store.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}
	out := cloneClient(c)
	return &out, nil
}

func (m *Memory) ListClients(_ context.Context) ([]store.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[id]; !ok {
		return store.ErrClientNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *Memory) UpdateClient(_ context.Context, id string, fn func(*store.Client) error) (*store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}
	working := cloneClient(c)
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	m.clients[id] = cloneClient(working)
	return &working, nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (m *Memory) SavePayment(_ context.Context, p schedule.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*schedule.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, store.ErrPaymentNotFound
	}
	out := p
	return &out, nil
}

func (m *Memory) ListPayments(_ context.Context, clientID string) ([]schedule.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []schedule.PaymentRecord
	for _, p := range m.payments {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[id]; !ok {
		return store.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

func cloneClient(c store.Client) store.Client {
	out := c
	out.Schedule = schedule.CloneSchedule(c.Schedule)
	if c.Terms.CustomSchedule != nil {
		out.Terms.CustomSchedule = append([]schedule.CustomEntry(nil), c.Terms.CustomSchedule...)
	}
	return out
}
