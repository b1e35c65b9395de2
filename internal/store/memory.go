// Package store holds the records the conciliation engine works over. The
// engine only needs scope-filtered reads and run persistence, so the
// interface stays small; the in-memory implementation backs the CLI, where
// one invocation is one isolated scope.
package store

import (
	"sync"

	"conciliador/internal/models"

	"github.com/google/uuid"
)

// Store is the persistence boundary required by the conciliation engine.
type Store interface {
	AddReceivables(receivables []*models.Receivable)
	AddPayments(payments []*models.Payment)

	// PendingReceivables returns the receivables in scope still awaiting
	// conciliation.
	PendingReceivables(scope models.Scope) []*models.Receivable

	// UnmatchedPayments returns the payments in scope not yet linked to a
	// receivable.
	UnmatchedPayments(scope models.Scope) []*models.Payment

	ReceivablesByScope(scope models.Scope) []*models.Receivable
	PaymentsByScope(scope models.Scope) []*models.Payment

	SaveRun(run *models.ConciliationRun)
	GetRun(id uuid.UUID) (*models.ConciliationRun, bool)
}

// MemoryStore is a mutex-guarded in-memory Store. Records are kept in
// insertion order so engine runs over the same contents stay deterministic.
type MemoryStore struct {
	mu          sync.RWMutex
	receivables []*models.Receivable
	payments    []*models.Payment
	runs        map[uuid.UUID]*models.ConciliationRun
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[uuid.UUID]*models.ConciliationRun),
	}
}

// AddReceivables appends receivables to the store.
func (ms *MemoryStore) AddReceivables(receivables []*models.Receivable) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.receivables = append(ms.receivables, receivables...)
}

// AddPayments appends payments to the store.
func (ms *MemoryStore) AddPayments(payments []*models.Payment) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.payments = append(ms.payments, payments...)
}

// PendingReceivables returns the in-scope receivables with status pending,
// in insertion order.
func (ms *MemoryStore) PendingReceivables(scope models.Scope) []*models.Receivable {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*models.Receivable
	for _, r := range ms.receivables {
		if r.Scope == scope && r.Status == models.ReceivablePending {
			out = append(out, r)
		}
	}
	return out
}

// UnmatchedPayments returns the in-scope payments with status unmatched, in
// insertion order.
func (ms *MemoryStore) UnmatchedPayments(scope models.Scope) []*models.Payment {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*models.Payment
	for _, p := range ms.payments {
		if p.Scope == scope && p.MatchStatus == models.MatchUnmatched {
			out = append(out, p)
		}
	}
	return out
}

// ReceivablesByScope returns every in-scope receivable regardless of status.
func (ms *MemoryStore) ReceivablesByScope(scope models.Scope) []*models.Receivable {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*models.Receivable
	for _, r := range ms.receivables {
		if r.Scope == scope {
			out = append(out, r)
		}
	}
	return out
}

// PaymentsByScope returns every in-scope payment regardless of status.
func (ms *MemoryStore) PaymentsByScope(scope models.Scope) []*models.Payment {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*models.Payment
	for _, p := range ms.payments {
		if p.Scope == scope {
			out = append(out, p)
		}
	}
	return out
}

// SaveRun inserts or updates a conciliation run.
func (ms *MemoryStore) SaveRun(run *models.ConciliationRun) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.runs[run.ID] = run
}

// GetRun looks up a conciliation run by id.
func (ms *MemoryStore) GetRun(id uuid.UUID) (*models.ConciliationRun, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	run, ok := ms.runs[id]
	return run, ok
}
