package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

type scheduleRepository struct {
	s *Store
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.PaymentSchedule) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.schedules[schedule.InvoiceID]; ok {
		return fmt.Errorf("%w: payment_schedules.invoice_id %s", repository.ErrDuplicate, schedule.InvoiceID)
	}
	now := time.Now()
	schedule.CreatedAt, schedule.UpdatedAt = now, now
	r.s.schedules[schedule.InvoiceID] = *schedule
	return nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.PaymentSchedule) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.schedules[schedule.InvoiceID]; !ok {
		return apperr.ErrNotFound
	}
	schedule.UpdatedAt = time.Now()
	r.s.schedules[schedule.InvoiceID] = *schedule
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	defer r.s.lock(ctx)()
	delete(r.s.schedules, invoiceID)
	return nil
}

func (r *scheduleRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentSchedule, error) {
	defer r.s.rlock(ctx)()
	ps, ok := r.s.schedules[invoiceID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &ps, nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]model.PaymentSchedule, error) {
	defer r.s.rlock(ctx)()
	out := make([]model.PaymentSchedule, 0, len(r.s.schedules))
	for _, ps := range r.s.schedules {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlannedPaymentDate.Equal(out[j].PlannedPaymentDate) {
			return out[i].PlannedPaymentDate.Before(out[j].PlannedPaymentDate)
		}
		return out[i].InvoiceID.String() < out[j].InvoiceID.String()
	})
	return out, nil
}
