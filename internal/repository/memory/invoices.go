package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

type invoiceRepository struct {
	s *Store
}

func (r *invoiceRepository) unique(inv *model.Invoice) error {
	for id, other := range r.s.invoices {
		if id != inv.ID && other.InvoiceNumber == inv.InvoiceNumber {
			return fmt.Errorf("%w: invoices.invoice_number %s", repository.ErrDuplicate, inv.InvoiceNumber)
		}
	}
	return nil
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	defer r.s.lock(ctx)()
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if err := r.unique(invoice); err != nil {
		return err
	}
	now := time.Now()
	invoice.CreatedAt, invoice.UpdatedAt = now, now
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.invoices[invoice.ID]; !ok {
		return apperr.ErrNotFound
	}
	if err := r.unique(invoice); err != nil {
		return err
	}
	invoice.UpdatedAt = time.Now()
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	delete(r.s.invoices, id)
	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	defer r.s.rlock(ctx)()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &inv, nil
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	defer r.s.rlock(ctx)()
	for _, inv := range r.s.invoices {
		if inv.InvoiceNumber == number {
			inv := inv
			return &inv, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *invoiceRepository) matches(inv model.Invoice, f repository.InvoiceFilter) bool {
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		vendorName := strings.ToLower(r.s.vendors[inv.VendorID].Name)
		if !strings.Contains(strings.ToLower(inv.InvoiceNumber), search) &&
			!strings.Contains(strings.ToLower(inv.PONumber), search) &&
			!strings.Contains(vendorName, search) {
			return false
		}
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.VendorID != nil && inv.VendorID != *f.VendorID {
		return false
	}
	if f.From != nil && calendar.Truncate(inv.InvoiceDate).Before(calendar.Truncate(*f.From)) {
		return false
	}
	if f.To != nil && calendar.Truncate(inv.InvoiceDate).After(calendar.Truncate(*f.To)) {
		return false
	}
	return true
}

func (r *invoiceRepository) sorted(f repository.InvoiceFilter) []model.Invoice {
	out := make([]model.Invoice, 0, len(r.s.invoices))
	for _, inv := range r.s.invoices {
		if r.matches(inv, f) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].InvoiceNumber < out[j].InvoiceNumber
	})
	return out
}

func (r *invoiceRepository) List(ctx context.Context, filter repository.InvoiceFilter, page, limit int) ([]model.Invoice, int64, error) {
	defer r.s.rlock(ctx)()
	all := r.sorted(filter)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *invoiceRepository) All(ctx context.Context, filter repository.InvoiceFilter) ([]model.Invoice, error) {
	defer r.s.rlock(ctx)()
	return r.sorted(filter), nil
}

func (r *invoiceRepository) CountByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	defer r.s.rlock(ctx)()
	var n int64
	for _, inv := range r.s.invoices {
		if inv.VendorID == vendorID {
			n++
		}
	}
	return n, nil
}
