package duedate

import (
	"testing"
	"time"

	"aptracker/internal/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) *time.Time {
	t, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestDueDateStandardTerms(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		entry    *time.Time
		invoice  *time.Time
		term     int
		expected string
	}{
		{"14 days from invoice date", d("2024-03-05"), d("2024-03-01"), 14, "2024-03-15"},
		{"7 days across month end", d("2024-03-28"), d("2024-03-27"), 7, "2024-04-03"},
		{"45 days across leap february", nil, d("2024-01-20"), 45, "2024-03-05"},
		{"falls back to entry date", d("2024-03-01"), nil, 14, "2024-03-15"},
		{"zero term is due on invoice date", d("2024-03-02"), d("2024-03-01"), 0, "2024-03-01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rules.DueDate(tc.entry, tc.invoice, tc.term)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, calendar.Format(got))
		})
	}
}

func TestDueDateCycleTerms(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		entry    string
		term     int
		expected string
	}{
		{"n30 received before cutoff", "2024-03-10", 30, "2024-04-25"},
		{"n30 received on cutoff", "2024-03-25", 30, "2024-04-25"},
		{"n30 received after cutoff", "2024-03-28", 30, "2024-05-25"},
		{"n60 received before cutoff", "2024-03-10", 60, "2024-05-25"},
		{"n60 received after cutoff", "2024-03-28", 60, "2024-06-25"},
		{"n90 rolls into next year", "2024-11-26", 90, "2025-03-25"},
		{"n30 december rolls into january", "2024-12-01", 30, "2025-01-25"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// invoice date must not influence cycle terms
			got, err := rules.DueDate(d(tc.entry), d("2020-01-01"), tc.term)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, calendar.Format(got))
		})
	}
}

func TestDueDateCycleFallsBackToInvoiceDate(t *testing.T) {
	got, err := DefaultRules().DueDate(nil, d("2024-03-10"), 30)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-25", calendar.Format(got))
}

func TestDueDateNoAnchor(t *testing.T) {
	_, err := DefaultRules().DueDate(nil, nil, 30)
	assert.ErrorIs(t, err, ErrNoAnchorDate)
}

func TestDueDateIsIdempotent(t *testing.T) {
	rules := DefaultRules()
	entry, invoice := d("2024-03-28"), d("2024-03-20")

	for _, term := range []int{7, 30, 60, 90} {
		first, err := rules.DueDate(entry, invoice, term)
		require.NoError(t, err)
		second, err := rules.DueDate(entry, invoice, term)
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "term %d", term)
	}
}

func TestDueDateIgnoresTimeOfDay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	entry := time.Date(2024, time.March, 10, 23, 59, 0, 0, wib)

	got, err := DefaultRules().DueDate(&entry, &entry, 14)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, time.March, 24), got)
}

func TestCustomRules(t *testing.T) {
	rules := Rules{CycleCodes: []int{30}, CycleLength: 30, CutoffDay: 20}

	got, err := rules.DueDate(d("2024-03-21"), nil, 30)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", calendar.Format(got))

	got, err = rules.DueDate(d("2024-03-21"), d("2024-03-21"), 60)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", calendar.Format(got), "60 is a plain day count under these rules")
}
