/*
Package sqlite provides the SQLite-backed Store implementation.

PURPOSE:
  Persists client records (loan terms, derived schedule, denormalized
  counters) and payment records. The schedule is not a first-class table:
  it is derived state regenerated from terms, so it rides on the client
  row as a JSON document, the same shape the engine exchanges.

KEY TABLES:
  clients:   one row per client; terms_json / schedule_json / counters_json
  payments:  one row per payment record

WRITE SERIALIZATION:
  UpdateClient holds the store's write lock across the read-modify-write,
  satisfying the per-client serialization the engine requires of its
  persistence collaborator. SQLite's single-writer WAL mode backs this at
  the database level.

USAGE:
  st, err := sqlite.New("./data/dealer.db")   // ":memory:" for tests
  defer st.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		vehicle TEXT,
		terms_json TEXT NOT NULL,
		schedule_json TEXT NOT NULL,
		counters_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		method TEXT,
		pay_type TEXT NOT NULL,
		applied_to TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_client ON payments(client_id);
	CREATE INDEX IF NOT EXISTS idx_payments_client_date ON payments(client_id, paid_on DESC);
	`

	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// CLIENT STORE
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, c store.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveClientLocked(ctx, c)
}

func (s *Store) saveClientLocked(ctx context.Context, c store.Client) error {
	termsJSON, err := json.Marshal(c.Terms)
	if err != nil {
		return fmt.Errorf("failed to encode terms: %w", err)
	}
	scheduleJSON, err := json.Marshal(c.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	countersJSON, err := json.Marshal(c.Counters)
	if err != nil {
		return fmt.Errorf("failed to encode counters: %w", err)
	}

	query := `
		INSERT INTO clients (id, name, phone, vehicle, terms_json, schedule_json, counters_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			vehicle = excluded.vehicle,
			terms_json = excluded.terms_json,
			schedule_json = excluded.schedule_json,
			counters_json = excluded.counters_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Phone, c.Vehicle,
		string(termsJSON), string(scheduleJSON), string(countersJSON),
		createdAt.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*store.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getClientLocked(ctx, id)
}

func (s *Store) getClientLocked(ctx context.Context, id string) (*store.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, vehicle, terms_json, schedule_json, counters_json, created_at, updated_at
		FROM clients WHERE id = ?
	`, id)

	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]store.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, vehicle, terms_json, schedule_json, counters_json, created_at, updated_at
		FROM clients ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []store.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrClientNotFound
	}
	return nil
}

// UpdateClient runs fn on the current record and writes the result back
// while holding the store's write lock, so concurrent schedule mutations
// on the same client cannot interleave.
func (s *Store) UpdateClient(ctx context.Context, id string, fn func(*store.Client) error) (*store.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClientLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.saveClientLocked(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*store.Client, error) {
	var (
		c                                     store.Client
		phone, vehicle                        sql.NullString
		termsJSON, scheduleJSON, countersJSON string
		createdAt, updatedAt                  string
	)

	err := row.Scan(&c.ID, &c.Name, &phone, &vehicle,
		&termsJSON, &scheduleJSON, &countersJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.Phone = phone.String
	c.Vehicle = vehicle.String

	if err := json.Unmarshal([]byte(termsJSON), &c.Terms); err != nil {
		return nil, fmt.Errorf("failed to decode terms for client %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(scheduleJSON), &c.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule for client %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(countersJSON), &c.Counters); err != nil {
		return nil, fmt.Errorf("failed to decode counters for client %s: %w", c.ID, err)
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (s *Store) SavePayment(ctx context.Context, p schedule.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payments (id, client_id, amount, paid_on, method, pay_type, applied_to, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			paid_on = excluded.paid_on,
			method = excluded.method,
			pay_type = excluded.pay_type,
			applied_to = excluded.applied_to,
			notes = excluded.notes
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.ClientID, p.Amount.String(), p.Date.String(),
		nullString(p.Method), string(p.Type), nullString(p.AppliedTo), nullString(p.Notes),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*schedule.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, amount, paid_on, method, pay_type, applied_to, notes
		FROM payments WHERE id = ?
	`, id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, clientID string) ([]schedule.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, amount, paid_on, method, pay_type, applied_to, notes
		FROM payments
		WHERE client_id = ?
		ORDER BY paid_on DESC, id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []schedule.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row scanner) (*schedule.PaymentRecord, error) {
	var (
		p                        schedule.PaymentRecord
		amount, paidOn, payType  string
		method, appliedTo, notes sql.NullString
	)

	err := row.Scan(&p.ID, &p.ClientID, &amount, &paidOn, &method, &payType, &appliedTo, &notes)
	if err != nil {
		return nil, err
	}

	p.Amount = schedule.MustParseMoney(amount)
	p.Date, err = schedule.ParseDate(paidOn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment date for %s: %w", p.ID, err)
	}
	p.Method = method.String
	p.Type = schedule.PaymentType(payType)
	p.AppliedTo = appliedTo.String
	p.Notes = notes.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
