package service_test

import (
	"context"
	"errors"
	"testing"

	"aptracker/internal/apperr"
	"aptracker/internal/model"
	"aptracker/internal/repository"
	"aptracker/internal/service"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVendor(t *testing.T) {
	e := newEnv(t)

	v, err := e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code:     " ACM ",
		TaxID:    "01.234.567.8-901.000",
		Name:     "Acme",
		Email:    "ap@acme.example",
		Currency: "usd",
		Legality: service.LegalityPayload{NIB: "912000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ACM", v.Code)
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, 30, v.PaymentTermDays, "term defaults to 30")
	assert.True(t, v.CycleTerm)
	assert.True(t, v.IsActive)
	assert.Equal(t, "912000", v.Legality.NIB)

	tests := []struct {
		name string
		req  service.CreateVendorRequest
	}{
		{"duplicate tax id", service.CreateVendorRequest{Code: "X1", TaxID: "01.234.567.8-901.000", Name: "Other"}},
		{"duplicate code", service.CreateVendorRequest{Code: "ACM", TaxID: "99", Name: "Other"}},
		{"bad email", service.CreateVendorRequest{Code: "X2", TaxID: "98", Name: "Other", Email: "not-an-email"}},
		{"unsupported currency", service.CreateVendorRequest{Code: "X3", TaxID: "97", Name: "Other", Currency: "JPY"}},
		{"missing name", service.CreateVendorRequest{Code: "X4", TaxID: "96", Name: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.vendors.CreateVendor(e.ctx, staff, tt.req)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestInactiveVendorStillHoldsTaxID(t *testing.T) {
	e := newEnv(t)
	inactive := false
	_, err := e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code: "OLD", TaxID: "01.000", Name: "Old Co", IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code: "NEW", TaxID: "01.000", Name: "New Co",
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateVendor(t *testing.T) {
	e := newEnv(t)
	a := e.vendor(t, "Acme", "01.000", 30)
	b := e.vendor(t, "Beta", "02.000", 30)

	term := 45
	name := "Acme Indonesia"
	res, err := e.vendors.UpdateVendor(e.ctx, staff, a.ID.String(), service.UpdateVendorRequest{
		Name:            &name,
		PaymentTermDays: &term,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Indonesia", res.Name)
	assert.Equal(t, 45, res.PaymentTermDays)
	assert.False(t, res.CycleTerm)

	taken := "01.000"
	_, err = e.vendors.UpdateVendor(e.ctx, staff, b.ID.String(), service.UpdateVendorRequest{TaxID: &taken})
	assert.True(t, apperr.IsValidation(err))

	_, err = e.vendors.UpdateVendor(e.ctx, staff, "5d1a4c0e-4b5e-4c0e-9a0f-000000000000", service.UpdateVendorRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVendorTermChangeKeepsExistingDueDates(t *testing.T) {
	e := newEnv(t)
	vendor := e.vendor(t, "Acme", "01.000", 30)
	inv := e.invoice(t, vendor, "INV-1", "2024-03-10", "100")
	require.Equal(t, "2024-04-25", inv.DueDate)

	term := 7
	_, err := e.vendors.UpdateVendor(e.ctx, staff, vendor.ID.String(), service.UpdateVendorRequest{PaymentTermDays: &term})
	require.NoError(t, err)

	got, err := e.invoices.GetInvoice(e.ctx, inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-25", got.DueDate)
}

func TestDeleteVendor(t *testing.T) {
	e := newEnv(t)
	used := e.vendor(t, "Acme", "01.000", 30)
	unused := e.vendor(t, "Beta", "02.000", 30)
	e.invoice(t, used, "INV-1", "2024-03-01", "100")

	err := e.vendors.DeleteVendor(e.ctx, staff, used.ID.String())
	assert.True(t, apperr.IsReferential(err), "got %v", err)

	require.NoError(t, e.vendors.DeleteVendor(e.ctx, staff, unused.ID.String()))
	_, err = e.vendors.GetVendor(e.ctx, unused.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.vendors.GetVendor(e.ctx, "nope")
	assert.True(t, apperr.IsValidation(err))
}

func TestListVendors(t *testing.T) {
	e := newEnv(t)
	e.vendor(t, "Acme", "01.000", 30)
	e.vendor(t, "Beta", "02.000", 30)
	inactive := false
	_, err := e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code: "GAM", TaxID: "03.000", Name: "Gamma", IsActive: &inactive,
	})
	require.NoError(t, err)

	all, total, err := e.vendors.ListVendors(e.ctx, service.VendorListFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	active := true
	list, total, err := e.vendors.ListVendors(e.ctx, service.VendorListFilter{Active: &active}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, _, err = e.vendors.ListVendors(e.ctx, service.VendorListFilter{Search: "gam"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Gamma", list[0].Name)
}

// racyVendors hides existing vendors from lookups so the write itself hits
// the unique constraint, as it would under concurrent creates.
type racyVendors struct {
	repository.VendorRepository
}

func (racyVendors) FindByTaxID(context.Context, string) (*model.Vendor, error) {
	return nil, apperr.ErrNotFound
}

func (racyVendors) FindByCode(context.Context, string) (*model.Vendor, error) {
	return nil, apperr.ErrNotFound
}

func TestCreateVendorReportsRepositoryDuplicateField(t *testing.T) {
	e := newEnv(t)
	existing := e.vendor(t, "Acme", "01.000", 30)

	repos := e.repos
	repos.Vendors = racyVendors{e.repos.Vendors}
	vendors := service.NewVendorService(repos, service.DefaultRules(), zerolog.Nop())

	_, err := vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code:  existing.Code,
		TaxID: "02.000",
		Name:  "Acme Two",
	})
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "code", verr.Field)

	_, err = vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code:  "V-NEW",
		TaxID: "01.000",
		Name:  "Acme Three",
	})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "tax_id", verr.Field)
}
