// Package memory implements every repository over process memory. It backs
// tests and the storage.backend=memory deployment.
package memory

import (
	"context"
	"sync"

	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

type txKey struct{}

// Store holds all tables behind one lock. A transaction holds the write lock
// for its whole duration, so readers never observe a half-applied change.
type Store struct {
	mu sync.RWMutex

	vendors   map[uuid.UUID]model.Vendor
	invoices  map[uuid.UUID]model.Invoice
	schedules map[uuid.UUID]model.PaymentSchedule
	audits    []model.AuditLog
	users     map[uuid.UUID]model.User
}

func NewStore() *Store {
	return &Store{
		vendors:   map[uuid.UUID]model.Vendor{},
		invoices:  map[uuid.UUID]model.Invoice{},
		schedules: map[uuid.UUID]model.PaymentSchedule{},
		users:     map[uuid.UUID]model.User{},
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type snapshot struct {
	vendors   map[uuid.UUID]model.Vendor
	invoices  map[uuid.UUID]model.Invoice
	schedules map[uuid.UUID]model.PaymentSchedule
	audits    []model.AuditLog
	users     map[uuid.UUID]model.User
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		vendors:   cloneMap(s.vendors),
		invoices:  cloneMap(s.invoices),
		schedules: cloneMap(s.schedules),
		audits:    append([]model.AuditLog(nil), s.audits...),
		users:     cloneMap(s.users),
	}
}

func (s *Store) restore(snap snapshot) {
	s.vendors = snap.vendors
	s.invoices = snap.invoices
	s.schedules = snap.schedules
	s.audits = snap.audits
	s.users = snap.users
}

// RunInTx implements repository.TransactionManager. Changes made by fn are
// rolled back when it returns an error.
func (s *Store) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() repository.Set {
	return repository.Set{
		Tx:        s,
		Vendors:   &vendorRepository{s: s},
		Invoices:  &invoiceRepository{s: s},
		Schedules: &scheduleRepository{s: s},
		Audit:     &auditRepository{s: s},
		Users:     &userRepository{s: s},
	}
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
