package forecast

import (
	"testing"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = calendar.Date(2024, time.March, 15)

type fixture struct {
	vendorA, vendorB model.Vendor
	snap             Snapshot
}

func newInvoice(vendor model.Vendor, number string, status lifecycle.Status, due time.Time, amount, tax int64, currency string) model.Invoice {
	return model.Invoice{
		ID:            uuid.New(),
		VendorID:      vendor.ID,
		InvoiceNumber: number,
		Status:        status,
		EntryDate:     calendar.AddDays(due, -30),
		DueDate:       due,
		Amount:        decimal.NewFromInt(amount),
		TaxAmount:     decimal.NewFromInt(tax),
		Currency:      currency,
	}
}

func newFixture() fixture {
	a := model.Vendor{ID: uuid.New(), Name: "PT Sumber Makmur"}
	b := model.Vendor{ID: uuid.New(), Name: "Acme Pte Ltd"}

	invoices := []model.Invoice{
		newInvoice(a, "INV-1", lifecycle.StatusApproved, calendar.Date(2024, time.April, 25), 1_000_000, 110_000, money.IDR),
		newInvoice(a, "INV-2", lifecycle.StatusScheduled, calendar.Date(2024, time.April, 25), 2_000_000, 0, money.IDR),
		newInvoice(b, "INV-3", lifecycle.StatusApproved, calendar.Date(2024, time.May, 10), 100, 10, money.USD),
		newInvoice(b, "INV-4", lifecycle.StatusApproved, calendar.Date(2024, time.September, 1), 500_000, 0, money.SGD),
		// ineligible
		newInvoice(a, "INV-5", lifecycle.StatusDraft, calendar.Date(2024, time.April, 1), 9_000_000, 0, money.IDR),
		newInvoice(a, "INV-6", lifecycle.StatusSubmitted, calendar.Date(2024, time.April, 1), 9_000_000, 0, money.IDR),
		newInvoice(a, "INV-7", lifecycle.StatusPaid, calendar.Date(2024, time.April, 1), 9_000_000, 0, money.IDR),
		newInvoice(a, "INV-8", lifecycle.StatusRejected, calendar.Date(2024, time.April, 1), 9_000_000, 0, money.IDR),
	}

	schedules := make([]model.PaymentSchedule, 0, len(invoices))
	for i := range invoices {
		if invoices[i].InvoiceNumber == "INV-3" {
			continue // falls back to the due date
		}
		planned := invoices[i].DueDate
		if invoices[i].InvoiceNumber == "INV-2" {
			planned = calendar.Date(2024, time.April, 20)
		}
		status := model.PaymentPending
		if invoices[i].Status == lifecycle.StatusPaid {
			status = model.PaymentPaid
		}
		schedules = append(schedules, model.PaymentSchedule{InvoiceID: invoices[i].ID, PlannedPaymentDate: planned, PaymentStatus: status})
	}

	return fixture{
		vendorA: a,
		vendorB: b,
		snap:    Snapshot{Invoices: invoices, Schedules: schedules, Vendors: []model.Vendor{a, b}},
	}
}

func expectedTotal(snap Snapshot, n *money.Normalizer) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range snap.Invoices {
		if Eligible(inv.Status) {
			total = total.Add(n.Normalize(inv.Amount.Add(inv.TaxAmount), inv.Currency))
		}
	}
	return total
}

func TestAggregateTotalMatchesEligibleInvoices(t *testing.T) {
	f := newFixture()
	engine := NewEngine(money.DefaultNormalizer(), 0)

	res, err := engine.Aggregate(f.snap, Scenario{}, today)
	require.NoError(t, err)

	// SGD has no rate and passes through unchanged.
	assert.True(t, res.Total.Equal(expectedTotal(f.snap, money.DefaultNormalizer())))
	assert.True(t, res.Total.Equal(decimal.NewFromInt(1_110_000+2_000_000+110*15_000+500_000)), res.Total.String())
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, money.IDR, res.ReportingCurrency)
}

func TestAggregateDailyBuckets(t *testing.T) {
	f := newFixture()
	res, err := NewEngine(nil, 0).Aggregate(f.snap, Scenario{}, today)
	require.NoError(t, err)

	require.Len(t, res.Daily, 4)
	dates := []string{}
	for _, b := range res.Daily {
		dates = append(dates, calendar.Format(b.Date))
	}
	assert.Equal(t, []string{"2024-04-20", "2024-04-25", "2024-05-10", "2024-09-01"}, dates)

	usd := res.Daily[2]
	require.Len(t, usd.Invoices, 1)
	d := usd.Invoices[0]
	assert.Equal(t, "INV-3", d.InvoiceNumber)
	assert.Equal(t, "Acme Pte Ltd", d.VendorName)
	assert.Equal(t, money.USD, d.Currency)
	assert.True(t, d.OriginalAmount.Equal(decimal.NewFromInt(110)))
	assert.True(t, d.Amount.Equal(decimal.NewFromInt(1_650_000)))
}

func TestAggregateMonthlyWindow(t *testing.T) {
	f := newFixture()
	res, err := NewEngine(nil, 0).Aggregate(f.snap, Scenario{}, today)
	require.NoError(t, err)

	require.Len(t, res.Monthly, 3)
	assert.Equal(t, "April 2024", res.Monthly[0].Label)
	assert.Equal(t, "May 2024", res.Monthly[1].Label)
	assert.Equal(t, "June 2024", res.Monthly[2].Label)

	assert.Equal(t, 2, res.Monthly[0].Count)
	assert.True(t, res.Monthly[0].Amount.Equal(decimal.NewFromInt(3_110_000)))
	assert.Equal(t, 1, res.Monthly[1].Count)
	assert.Equal(t, 0, res.Monthly[2].Count, "empty months still appear")
	assert.True(t, res.Monthly[2].Amount.IsZero())
}

func TestAggregateMonthlyWindowCrossesYear(t *testing.T) {
	res, err := NewEngine(nil, 3).Aggregate(Snapshot{}, Scenario{}, calendar.Date(2024, time.November, 30))
	require.NoError(t, err)

	labels := []string{}
	for _, m := range res.Monthly {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"December 2024", "January 2025", "February 2025"}, labels)
	assert.Empty(t, res.Daily)
	assert.True(t, res.Total.IsZero())
}

func TestScenarioDelayShiftsEveryBucket(t *testing.T) {
	f := newFixture()
	engine := NewEngine(nil, 0)

	base, err := engine.Aggregate(f.snap, Scenario{}, today)
	require.NoError(t, err)
	shifted, err := engine.Aggregate(f.snap, Scenario{DelayDays: 7}, today)
	require.NoError(t, err)

	require.Len(t, shifted.Daily, len(base.Daily))
	for i := range base.Daily {
		assert.Equal(t, calendar.AddDays(base.Daily[i].Date, 7), shifted.Daily[i].Date)
		assert.True(t, base.Daily[i].Amount.Equal(shifted.Daily[i].Amount))
	}
	assert.True(t, base.Total.Equal(shifted.Total))

	// schedules are untouched by the simulation
	assert.Equal(t, calendar.Date(2024, time.April, 20), f.snap.Schedules[1].PlannedPaymentDate)
}

func TestScenarioAcceleration(t *testing.T) {
	f := newFixture()
	res, err := NewEngine(nil, 0).Aggregate(f.snap, Scenario{DelayDays: -20}, today)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-31", calendar.Format(res.Daily[0].Date))
	assert.Equal(t, 2, res.Monthly[0].Count, "INV-1 and INV-3 move into April")
}

func TestScenarioVendorFilter(t *testing.T) {
	f := newFixture()
	res, err := NewEngine(nil, 0).Aggregate(f.snap, Scenario{VendorID: &f.vendorB.ID}, today)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	for _, b := range res.Daily {
		for _, d := range b.Invoices {
			assert.Equal(t, f.vendorB.ID, d.VendorID)
		}
	}
}

func TestAggregateMissingVendor(t *testing.T) {
	f := newFixture()
	f.snap.Vendors = []model.Vendor{f.vendorA}

	_, err := NewEngine(nil, 0).Aggregate(f.snap, Scenario{}, today)
	var ref *apperr.ReferentialError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, f.vendorB.ID.String(), ref.ID)
}

func TestSummarize(t *testing.T) {
	f := newFixture()
	now := calendar.Date(2024, time.April, 15)

	sum := NewEngine(nil, 0).Summarize(f.snap, now, 14)

	// SUBMITTED + APPROVED + SCHEDULED, tax-exclusive
	assert.True(t, sum.Outstanding.Equal(decimal.NewFromInt(9_000_000+1_000_000+2_000_000+100*15_000+500_000)), sum.Outstanding.String())
	assert.Equal(t, 5, sum.OutstandingCount)
	assert.True(t, sum.ScheduledAmount.Equal(decimal.NewFromInt(2_000_000)))
	assert.Equal(t, 1, sum.ScheduledCount)
	// INV-5, INV-6 and the rejected INV-8 are due 2024-04-01 and unpaid
	assert.Equal(t, 3, sum.OverdueCount)

	require.Len(t, sum.Upcoming, 14)
	assert.Equal(t, now, sum.Upcoming[0].Date)
	// INV-2 planned on 04-20 (offset 5)
	assert.Equal(t, 1, sum.Upcoming[5].Count)
	assert.True(t, sum.Upcoming[5].Amount.Equal(decimal.NewFromInt(2_000_000)))
	// INV-1 planned on 04-25 (offset 10)
	assert.Equal(t, 1, sum.Upcoming[10].Count)
}

func TestSummarizeCountsRejectedAsOverdue(t *testing.T) {
	v := model.Vendor{ID: uuid.New(), Name: "Vendor"}
	snap := Snapshot{
		Vendors:  []model.Vendor{v},
		Invoices: []model.Invoice{newInvoice(v, "INV-R", lifecycle.StatusRejected, calendar.Date(2024, time.March, 1), 1_000, 0, money.IDR)},
	}

	sum := NewEngine(nil, 0).Summarize(snap, calendar.Date(2024, time.March, 2), 14)
	assert.Equal(t, 1, sum.OverdueCount)
	assert.Equal(t, 0, sum.OutstandingCount)
}
