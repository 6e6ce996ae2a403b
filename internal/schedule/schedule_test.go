package schedule

import (
	"testing"
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoice(status lifecycle.Status, entry, due time.Time) *model.Invoice {
	return &model.Invoice{ID: uuid.New(), Status: status, EntryDate: entry, DueDate: due}
}

func TestNew(t *testing.T) {
	due := calendar.Date(2024, time.April, 25)

	ps := New(invoice(lifecycle.StatusDraft, calendar.Date(2024, time.March, 10), due))
	assert.Equal(t, due, ps.PlannedPaymentDate)
	assert.Equal(t, model.PaymentPending, ps.PaymentStatus)
	assert.Nil(t, ps.ActualPaymentDate)

	paid := New(invoice(lifecycle.StatusPaid, calendar.Date(2024, time.March, 10), due))
	assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
}

func TestStatusFor(t *testing.T) {
	for _, s := range lifecycle.Statuses {
		want := model.PaymentPending
		if s == lifecycle.StatusPaid {
			want = model.PaymentPaid
		}
		assert.Equal(t, want, StatusFor(s), "status %s", s)
	}
}

func TestSyncFollowsDueDateAndKeepsActual(t *testing.T) {
	inv := invoice(lifecycle.StatusSubmitted, calendar.Date(2024, time.March, 10), calendar.Date(2024, time.April, 25))
	ps := New(inv)
	actual := calendar.Date(2024, time.April, 1)
	ps.ActualPaymentDate = &actual

	assert.False(t, Sync(ps, inv), "no-op edit must not report a change")

	inv.DueDate = calendar.Date(2024, time.May, 25)
	require.True(t, Sync(ps, inv))
	assert.Equal(t, inv.DueDate, ps.PlannedPaymentDate)
	assert.Equal(t, &actual, ps.ActualPaymentDate)
}

func TestMarkPaidAndReschedule(t *testing.T) {
	inv := invoice(lifecycle.StatusApproved, calendar.Date(2024, time.March, 10), calendar.Date(2024, time.April, 25))
	ps := New(inv)

	Reschedule(ps, calendar.Date(2024, time.April, 20), "batch 12")
	assert.Equal(t, calendar.Date(2024, time.April, 20), ps.PlannedPaymentDate)
	assert.Equal(t, "batch 12", ps.Remarks)

	MarkPaid(ps, time.Date(2024, time.April, 21, 15, 4, 0, 0, time.UTC), "")
	require.NotNil(t, ps.ActualPaymentDate)
	assert.Equal(t, calendar.Date(2024, time.April, 21), *ps.ActualPaymentDate)
	assert.Equal(t, model.PaymentPaid, ps.PaymentStatus)
	assert.Equal(t, "batch 12", ps.Remarks)
}

func TestAgingActive(t *testing.T) {
	today := calendar.Date(2024, time.March, 20)
	inv := invoice(lifecycle.StatusSubmitted, calendar.Date(2024, time.March, 10), today)

	a := AgingOf(inv, New(inv), today)
	assert.Equal(t, 10, a.Days)
	assert.False(t, a.Closed)
	assert.Equal(t, "10 Days Active", a.String())
	assert.Equal(t, SeverityNormal, a.Severity)
}

func TestAgingSeverity(t *testing.T) {
	today := calendar.Date(2024, time.June, 1)
	tests := []struct {
		daysAgo  int
		expected Severity
	}{
		{30, SeverityNormal},
		{31, SeverityWarning},
		{60, SeverityWarning},
		{61, SeverityCritical},
	}
	for _, tc := range tests {
		inv := invoice(lifecycle.StatusApproved, calendar.AddDays(today, -tc.daysAgo), today)
		assert.Equal(t, tc.expected, AgingOf(inv, nil, today).Severity, "%d days", tc.daysAgo)
	}
}

func TestAgingClosed(t *testing.T) {
	today := calendar.Date(2024, time.June, 1)
	inv := invoice(lifecycle.StatusPaid, calendar.Date(2024, time.March, 1), today)
	ps := New(inv)
	MarkPaid(ps, calendar.Date(2024, time.March, 31), "")

	a := AgingOf(inv, ps, today)
	assert.Equal(t, 30, a.Days)
	assert.True(t, a.Closed)
	assert.False(t, a.Estimated)
	assert.Equal(t, "30 Days (Closed)", a.String())
}

func TestAgingPaidWithoutActualDate(t *testing.T) {
	today := calendar.Date(2024, time.March, 15)
	inv := invoice(lifecycle.StatusPaid, calendar.Date(2024, time.March, 1), today)

	a := AgingOf(inv, New(inv), today)
	assert.Equal(t, 14, a.Days)
	assert.True(t, a.Closed)
	assert.True(t, a.Estimated)
}
