package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/checklist"
	"aptracker/internal/lifecycle"
	"aptracker/internal/repository"
	"aptracker/internal/repository/memory"
	"aptracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testToday = calendar.Date(2024, time.March, 15)

func testClock() time.Time { return testToday.Add(9 * time.Hour) }

var (
	staff   = service.Actor{Name: "staff", Role: lifecycle.RoleAPStaff}
	manager = service.Actor{Name: "manager", Role: lifecycle.RoleFinanceManager}
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type env struct {
	ctx      context.Context
	repos    repository.Set
	vendors  service.VendorService
	invoices service.InvoiceService
	forecast service.ForecastService
	reports  service.ReportService
	audit    service.AuditService
	events   *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := memory.NewStore().Repositories()
	rules := service.DefaultRules()
	log := zerolog.Nop()
	events := &recorder{}
	return &env{
		ctx:      context.Background(),
		repos:    repos,
		vendors:  service.NewVendorService(repos, rules, log),
		invoices: service.NewInvoiceService(repos, rules, nil, events, testClock, log),
		forecast: service.NewForecastService(repos, rules, testClock, log),
		reports:  service.NewReportService(repos, testClock),
		audit:    service.NewAuditService(repos.Audit),
		events:   events,
	}
}

func (e *env) vendor(t *testing.T, name, taxID string, term int) service.VendorResponse {
	t.Helper()
	v, err := e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code:            "V-" + taxID,
		TaxID:           taxID,
		Name:            name,
		PaymentTermDays: &term,
		Currency:        "IDR",
	})
	require.NoError(t, err)
	return v
}

func strPtr(s string) *string { return &s }

func allAttested() checklist.Attestations {
	return checklist.Attestations{
		Signature:    true,
		UnitPrice:    true,
		Quantity:     true,
		GLAccount:    true,
		GoodsReceipt: true,
	}
}

// invoice creates a DRAFT invoice with every attestation ticked.
func (e *env) invoice(t *testing.T, vendor service.VendorResponse, number, entry, amount string) service.InvoiceResponse {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(e.ctx, staff, service.CreateInvoiceRequest{
		VendorID:      vendor.ID.String(),
		InvoiceNumber: number,
		EntryDate:     strPtr(entry),
		Amount:        amount,
		Attestations:  allAttested(),
	})
	require.NoError(t, err)
	return inv
}

// advance applies each action in turn as the finance manager.
func (e *env) advance(t *testing.T, id string, actions ...lifecycle.Action) service.InvoiceResponse {
	t.Helper()
	var (
		res service.InvoiceResponse
		err error
	)
	for _, a := range actions {
		res, err = e.invoices.ApplyAction(e.ctx, manager, id, service.ActionRequest{Action: string(a)})
		require.NoError(t, err, "action %s", a)
	}
	return res
}

func (e *env) vendorByName(t *testing.T, name string) service.VendorResponse {
	t.Helper()
	list, _, err := e.vendors.ListVendors(e.ctx, service.VendorListFilter{Search: name}, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}
