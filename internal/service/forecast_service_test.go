package service_test

import (
	"testing"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forecastFixture: two APPROVED/SCHEDULED invoices that count, plus a draft,
// a submitted and a paid one that do not.
func forecastFixture(t *testing.T) (*env, service.VendorResponse) {
	t.Helper()
	e := newEnv(t)
	idr := e.vendor(t, "Acme", "01.000", 14)
	usd, err := e.vendors.CreateVendor(e.ctx, staff, service.CreateVendorRequest{
		Code: "USD1", TaxID: "02.000", Name: "Global Inc", Currency: "USD", PaymentTermDays: intPtr(30),
	})
	require.NoError(t, err)

	a := e.invoice(t, idr, "A", "2024-03-20", "1000000") // due 2024-04-03
	e.advance(t, a.ID, lifecycle.ActionSubmit, lifecycle.ActionApprove)

	b := e.invoice(t, usd, "B", "2024-03-10", "100") // due 2024-04-25
	e.advance(t, b.ID, lifecycle.ActionSubmit, lifecycle.ActionApprove, lifecycle.ActionSchedule)

	e.invoice(t, idr, "DRAFT", "2024-02-20", "5") // due 2024-03-05
	sub := e.invoice(t, idr, "SUB", "2024-02-20", "7")
	e.advance(t, sub.ID, lifecycle.ActionSubmit)
	paid := e.invoice(t, idr, "PAID", "2024-02-20", "9")
	e.advance(t, paid.ID, lifecycle.ActionSubmit, lifecycle.ActionApprove, lifecycle.ActionSchedule, lifecycle.ActionPay)

	return e, usd
}

func intPtr(n int) *int { return &n }

func TestForecast(t *testing.T) {
	e, usd := forecastFixture(t)

	base, err := e.forecast.Forecast(e.ctx, service.ForecastRequest{})
	require.NoError(t, err)
	assert.Equal(t, "IDR", base.ReportingCurrency)
	assert.Equal(t, 2, base.Count)
	// 1,000,000 IDR + 100 USD * 15,000
	assert.Equal(t, "2500000", base.Total)
	require.Len(t, base.Daily, 2)
	assert.Equal(t, "2024-04-03", base.Daily[0].Date)
	assert.Equal(t, "2024-04-25", base.Daily[1].Date)
	require.Len(t, base.Daily[1].Invoices, 1)
	assert.Equal(t, "100", base.Daily[1].Invoices[0].OriginalAmount)
	assert.Equal(t, "USD", base.Daily[1].Invoices[0].Currency)

	require.Len(t, base.Monthly, 3)
	assert.Equal(t, "April 2024", base.Monthly[0].Label)
	assert.Equal(t, "2500000", base.Monthly[0].Amount)
	assert.Equal(t, 2, base.Monthly[0].Count)
	assert.Equal(t, "0", base.Monthly[2].Amount)

	delayed, err := e.forecast.Forecast(e.ctx, service.ForecastRequest{DelayDays: 7})
	require.NoError(t, err)
	assert.Equal(t, base.Total, delayed.Total, "delay conserves the total")
	require.Len(t, delayed.Daily, len(base.Daily))
	for i := range base.Daily {
		d, err := calendar.Parse(base.Daily[i].Date)
		require.NoError(t, err)
		assert.Equal(t, calendar.Format(calendar.AddDays(d, 7)), delayed.Daily[i].Date)
	}
	assert.Equal(t, "1000000", delayed.Monthly[0].Amount, "B moved into May")
	assert.Equal(t, "1500000", delayed.Monthly[1].Amount)

	only, err := e.forecast.Forecast(e.ctx, service.ForecastRequest{VendorID: usd.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, only.Count)
	require.NotNil(t, only.VendorID)

	_, err = e.forecast.Forecast(e.ctx, service.ForecastRequest{VendorID: "x"})
	assert.True(t, apperr.IsValidation(err))
}

func TestForecastDoesNotPersistScenario(t *testing.T) {
	e, _ := forecastFixture(t)
	before, err := e.repos.Schedules.List(e.ctx)
	require.NoError(t, err)

	_, err = e.forecast.Forecast(e.ctx, service.ForecastRequest{DelayDays: -3})
	require.NoError(t, err)

	after, err := e.repos.Schedules.List(e.ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}

func TestForecastFailsOnMissingVendor(t *testing.T) {
	e, usd := forecastFixture(t)
	require.NoError(t, e.repos.Vendors.Delete(e.ctx, usd.ID))

	_, err := e.forecast.Forecast(e.ctx, service.ForecastRequest{})
	assert.True(t, apperr.IsReferential(err), "got %v", err)
}

func TestDashboard(t *testing.T) {
	e, _ := forecastFixture(t)

	d, err := e.forecast.Dashboard(e.ctx)
	require.NoError(t, err)
	// SUB 7 + A 1,000,000 + B 100 USD
	assert.Equal(t, "2500007", d.Outstanding)
	assert.Equal(t, 3, d.OutstandingCount)
	assert.Equal(t, 2, d.OverdueCount, "DRAFT and SUB; PAID is settled")
	assert.Equal(t, 1, d.ScheduledCount)
	assert.True(t, decimal.RequireFromString(d.ScheduledAmount).Equal(decimal.NewFromInt(1500000)))
	require.Len(t, d.Upcoming, 14)
	assert.Equal(t, "2024-03-15", d.Upcoming[0].Date)
}
