package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

type vendorRepository struct {
	s *Store
}

func (r *vendorRepository) unique(v *model.Vendor) error {
	for id, other := range r.s.vendors {
		if id == v.ID {
			continue
		}
		if other.TaxID == v.TaxID {
			return &repository.DuplicateError{Field: "tax_id", Value: v.TaxID}
		}
		if other.Code == v.Code {
			return &repository.DuplicateError{Field: "code", Value: v.Code}
		}
	}
	return nil
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	defer r.s.lock(ctx)()
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	if err := r.unique(vendor); err != nil {
		return err
	}
	now := time.Now()
	vendor.CreatedAt, vendor.UpdatedAt = now, now
	r.s.vendors[vendor.ID] = *vendor
	return nil
}

func (r *vendorRepository) Update(ctx context.Context, vendor *model.Vendor) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.vendors[vendor.ID]; !ok {
		return apperr.ErrNotFound
	}
	if err := r.unique(vendor); err != nil {
		return err
	}
	vendor.UpdatedAt = time.Now()
	r.s.vendors[vendor.ID] = *vendor
	return nil
}

func (r *vendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	delete(r.s.vendors, id)
	return nil
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	defer r.s.rlock(ctx)()
	v, ok := r.s.vendors[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &v, nil
}

func (r *vendorRepository) find(ctx context.Context, match func(model.Vendor) bool) (*model.Vendor, error) {
	defer r.s.rlock(ctx)()
	for _, v := range r.s.vendors {
		if match(v) {
			v := v
			return &v, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *vendorRepository) FindByTaxID(ctx context.Context, taxID string) (*model.Vendor, error) {
	return r.find(ctx, func(v model.Vendor) bool { return v.TaxID == taxID })
}

func (r *vendorRepository) FindByCode(ctx context.Context, code string) (*model.Vendor, error) {
	return r.find(ctx, func(v model.Vendor) bool { return v.Code == code })
}

func (r *vendorRepository) FindByName(ctx context.Context, name string) (*model.Vendor, error) {
	name = strings.TrimSpace(name)
	return r.find(ctx, func(v model.Vendor) bool { return strings.EqualFold(v.Name, name) })
}

func (r *vendorRepository) sorted(filter repository.VendorFilter) []model.Vendor {
	search := strings.ToLower(filter.Search)
	out := make([]model.Vendor, 0, len(r.s.vendors))
	for _, v := range r.s.vendors {
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Name), search) &&
			!strings.Contains(strings.ToLower(v.Code), search) &&
			!strings.Contains(strings.ToLower(v.TaxID), search) {
			continue
		}
		if filter.Active != nil && v.IsActive != *filter.Active {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *vendorRepository) List(ctx context.Context, filter repository.VendorFilter, page, limit int) ([]model.Vendor, int64, error) {
	defer r.s.rlock(ctx)()
	all := r.sorted(filter)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *vendorRepository) All(ctx context.Context) ([]model.Vendor, error) {
	defer r.s.rlock(ctx)()
	return r.sorted(repository.VendorFilter{}), nil
}
