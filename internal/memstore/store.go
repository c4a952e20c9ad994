// Package memstore is an in-memory stand-in for the Postgres repositories.
// Transactions serialize on a single lock, which gives the same isolation
// the row locks give in Postgres, and roll back to a snapshot.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/microearn/backend/internal/models"
)

type state struct {
	accounts      map[uuid.UUID]models.Account
	tasks         map[uuid.UUID]models.Task
	submissions   map[uuid.UUID]models.Submission
	payments      map[uuid.UUID]models.Payment
	withdrawals   map[uuid.UUID]models.Withdrawal
	notifications map[uuid.UUID]models.Notification
	ledger        []models.LedgerEntry
}

func newState() state {
	return state{
		accounts:      make(map[uuid.UUID]models.Account),
		tasks:         make(map[uuid.UUID]models.Task),
		submissions:   make(map[uuid.UUID]models.Submission),
		payments:      make(map[uuid.UUID]models.Payment),
		withdrawals:   make(map[uuid.UUID]models.Withdrawal),
		notifications: make(map[uuid.UUID]models.Notification),
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		accounts:      cloneMap(s.accounts),
		tasks:         cloneMap(s.tasks),
		submissions:   cloneMap(s.submissions),
		payments:      cloneMap(s.payments),
		withdrawals:   cloneMap(s.withdrawals),
		notifications: cloneMap(s.notifications),
		ledger:        append([]models.LedgerEntry(nil), s.ledger...),
	}
}

// Store holds all entities. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex

	mu     sync.Mutex
	data   state
	clock  time.Time
	faults map[string]error
}

func New() *Store {
	return &Store{
		data:   newState(),
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		faults: make(map[string]error),
	}
}

// InjectFault makes the named repository operation (e.g. "tasks.CreateTx")
// fail with err until cleared with a nil err.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// fault must be called with s.mu held.
func (s *Store) fault(op string) error {
	return s.faults[op]
}

// now returns a strictly increasing timestamp so listings order stably.
// Must be called with s.mu held.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// Begin starts a transaction, blocking until any other transaction ends.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.mu.Lock()
	snap := s.data.clone()
	s.mu.Unlock()
	return &Tx{store: s, snapshot: snap}, nil
}

// SeedAccount stores a copy of a, filling in timestamps.
func (s *Store) SeedAccount(a models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
		a.UpdatedAt = a.CreatedAt
	}
	s.data.accounts[a.ID] = a
}

// Account returns a copy of the stored account.
func (s *Store) Account(id uuid.UUID) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[id]
	return a, ok
}

// TaskCount reports how many tasks exist.
func (s *Store) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.tasks)
}

// LedgerEntries returns the journal entries for one account, oldest first.
func (s *Store) LedgerEntries(accountID uuid.UUID) []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range s.data.ledger {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

// Tx implements pgx.Tx over the store. Only Commit and Rollback do anything.
type Tx struct {
	store    *Store
	snapshot state
	done     bool
}

var _ pgx.Tx = (*Tx)(nil)

func (t *Tx) finish() {
	t.done = true
	t.store.txMu.Unlock()
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.finish()
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	t.store.data = t.snapshot
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *Tx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *Tx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *Tx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *Tx) Conn() *pgx.Conn { return nil }
