package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVendor(t *testing.T, repos repository.Set, name, taxID string) *model.Vendor {
	t.Helper()
	v := &model.Vendor{Code: "V-" + taxID, TaxID: taxID, Name: name, Currency: "IDR", IsActive: true}
	require.NoError(t, repos.Vendors.Create(context.Background(), v))
	return v
}

func seedInvoice(ctx context.Context, t *testing.T, repos repository.Set, vendor *model.Vendor, number string, entry time.Time) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		VendorID:      vendor.ID,
		InvoiceNumber: number,
		InvoiceDate:   entry,
		EntryDate:     entry,
		DueDate:       calendar.AddDays(entry, 30),
		Amount:        decimal.NewFromInt(100),
		Currency:      "IDR",
		Status:        lifecycle.StatusDraft,
	}
	require.NoError(t, repos.Invoices.Create(ctx, inv))
	return inv
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	vendor := seedVendor(t, repos, "Acme", "01.000")

	boom := errors.New("boom")
	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		inv := &model.Invoice{VendorID: vendor.ID, InvoiceNumber: "INV-1", Status: lifecycle.StatusDraft}
		require.NoError(t, repos.Invoices.Create(txCtx, inv))
		require.NoError(t, repos.Schedules.Create(txCtx, &model.PaymentSchedule{InvoiceID: inv.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := repos.Invoices.All(ctx, repository.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	schedules, err := repos.Schedules.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestRunInTxCommits(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	vendor := seedVendor(t, repos, "Acme", "01.000")

	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		// nested calls join the outer transaction instead of deadlocking
		return repos.Tx.RunInTx(txCtx, func(inner context.Context) error {
			seedInvoice(inner, t, repos, vendor, "INV-1", calendar.Date(2024, time.March, 1))
			return nil
		})
	})
	require.NoError(t, err)

	n, err := repos.Invoices.CountByVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUniqueConstraints(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	vendor := seedVendor(t, repos, "Acme", "01.000")

	dup := &model.Vendor{Code: "OTHER", TaxID: "01.000", Name: "Acme 2"}
	err := repos.Vendors.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	var dupErr *repository.DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "tax_id", dupErr.Field)

	sameCode := &model.Vendor{Code: vendor.Code, TaxID: "02.000", Name: "Acme 3"}
	err = repos.Vendors.Create(ctx, sameCode)
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "code", dupErr.Field)
	assert.Equal(t, vendor.Code, dupErr.Value)

	seedInvoice(ctx, t, repos, vendor, "INV-1", calendar.Date(2024, time.March, 1))
	second := seedInvoice(ctx, t, repos, vendor, "INV-2", calendar.Date(2024, time.March, 2))
	second.InvoiceNumber = "INV-1"
	assert.ErrorIs(t, repos.Invoices.Update(ctx, second), repository.ErrDuplicate)
}

func TestNotFound(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()

	_, err := repos.Vendors.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repos.Invoices.FindByNumber(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repos.Schedules.FindByInvoiceID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repos.Users.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInvoiceFilterAndPagination(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	acme := seedVendor(t, repos, "Acme Supplies", "01.000")
	globex := seedVendor(t, repos, "Globex", "02.000")

	seedInvoice(ctx, t, repos, acme, "INV-1", calendar.Date(2024, time.March, 1))
	seedInvoice(ctx, t, repos, acme, "INV-2", calendar.Date(2024, time.March, 5))
	seedInvoice(ctx, t, repos, globex, "GLX-1", calendar.Date(2024, time.March, 10))

	all, total, err := repos.Invoices.List(ctx, repository.InvoiceFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 2)
	assert.Equal(t, "GLX-1", all[0].InvoiceNumber, "newest entry first")

	bySearch, err := repos.Invoices.All(ctx, repository.InvoiceFilter{Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)

	from := calendar.Date(2024, time.March, 5)
	byDate, err := repos.Invoices.All(ctx, repository.InvoiceFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byVendor, err := repos.Invoices.All(ctx, repository.InvoiceFilter{VendorID: &globex.ID})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)

	found, err := repos.Vendors.FindByName(ctx, "  GLOBEX ")
	require.NoError(t, err)
	assert.Equal(t, globex.ID, found.ID)
}
