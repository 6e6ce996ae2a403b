package memory

import (
	"context"
	"time"

	"aptracker/internal/model"

	"github.com/google/uuid"
)

type auditRepository struct {
	s *Store
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	defer r.s.lock(ctx)()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

// List returns newest entries first.
func (r *auditRepository) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	defer r.s.rlock(ctx)()
	out := make([]model.AuditLog, 0, len(r.s.audits))
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		entry := r.s.audits[i]
		if entry.UserID != nil {
			if u, ok := r.s.users[*entry.UserID]; ok {
				entry.User = &u
			}
		}
		out = append(out, entry)
	}
	return paginate(out, page, limit), int64(len(out)), nil
}
