/*
Package store defines the persistence boundary for the scheduling engine.

PURPOSE:
  The engine consumes plain client and payment records and produces plain
  schedule records; it knows nothing about persistence. This package holds
  the record shapes the document store exchanges and the interfaces the
  API layer talks to.

WRITE SERIALIZATION:
  Two schedule mutations racing on the same client record is a hazard the
  engine does not resolve. UpdateClient is the contract that closes it:
  implementations must run the read-modify-write callback with writes to
  that client serialized (a store-wide lock in the bundled
  implementations; optimistic concurrency would serve for a networked
  document store).

IMPLEMENTATIONS:
  - store/sqlite: production SQLite, schedule carried as a JSON field on
    the client row (the schedule is derived state, not a first-class table)
  - store/memory: in-memory for tests
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dealerpay/schedule-engine/schedule"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrPaymentNotFound is returned when a referenced payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) || errors.Is(err, ErrPaymentNotFound)
}

// =============================================================================
// CLIENT RECORD - Loan terms plus the derived schedule and counters
// =============================================================================

// Client is the stored client record. Schedule and Counters are derived
// from Terms and the payment history; they ride on the record so list
// screens never recompute from scratch, but the engine is the only thing
// that writes them.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`

	Terms    schedule.LoanTerms    `json:"terms"`
	Schedule []schedule.Obligation `json:"schedule"`
	Counters schedule.Counters     `json:"counters"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ClientStore persists client records.
type ClientStore interface {
	// SaveClient inserts or overwrites a client record.
	SaveClient(ctx context.Context, c Client) error

	// GetClient returns a client by id, or ErrClientNotFound.
	GetClient(ctx context.Context, id string) (*Client, error)

	// ListClients returns all clients ordered by name.
	ListClients(ctx context.Context) ([]Client, error)

	// DeleteClient removes a client, or ErrClientNotFound.
	DeleteClient(ctx context.Context, id string) error

	// UpdateClient runs a read-modify-write on one client with writes to
	// that client serialized. The callback receives the current record and
	// mutates it in place; a callback error aborts the write.
	UpdateClient(ctx context.Context, id string, fn func(*Client) error) (*Client, error)
}

// PaymentStore persists payment records.
type PaymentStore interface {
	// SavePayment inserts or overwrites a payment record.
	SavePayment(ctx context.Context, p schedule.PaymentRecord) error

	// GetPayment returns a payment by id, or ErrPaymentNotFound.
	GetPayment(ctx context.Context, id string) (*schedule.PaymentRecord, error)

	// ListPayments returns a client's payments, newest date first.
	ListPayments(ctx context.Context, clientID string) ([]schedule.PaymentRecord, error)

	// DeletePayment removes a payment, or ErrPaymentNotFound.
	DeletePayment(ctx context.Context, id string) error
}

// Store is the full persistence surface the API layer depends on.
type Store interface {
	ClientStore
	PaymentStore
}
