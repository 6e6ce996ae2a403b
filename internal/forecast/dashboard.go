package forecast

import (
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultHorizonDays is the length of the upcoming-payments series.
const DefaultHorizonDays = 14

// Summary is the dashboard headline view.
type Summary struct {
	ReportingCurrency string
	Outstanding       decimal.Decimal // tax-exclusive, normalized
	OutstandingCount  int
	OverdueCount      int
	ScheduledAmount   decimal.Decimal
	ScheduledCount    int
	// Upcoming has one entry per day from today, zero-filled.
	Upcoming []DailyBucket
}

func outstanding(s lifecycle.Status) bool {
	switch s {
	case lifecycle.StatusSubmitted, lifecycle.StatusApproved, lifecycle.StatusScheduled:
		return true
	}
	return false
}

// Summarize computes dashboard figures as of today.
func (e *Engine) Summarize(snap Snapshot, today time.Time, horizonDays int) Summary {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today = calendar.Truncate(today)

	sum := Summary{
		ReportingCurrency: e.normalizer.ReportingCurrency(),
		Outstanding:       decimal.Zero,
		ScheduledAmount:   decimal.Zero,
		Upcoming:          make([]DailyBucket, horizonDays),
	}
	for i := range sum.Upcoming {
		sum.Upcoming[i] = DailyBucket{Date: calendar.AddDays(today, i), Amount: decimal.Zero}
	}

	invoices := make(map[uuid.UUID]model.Invoice, len(snap.Invoices))
	for _, inv := range snap.Invoices {
		invoices[inv.ID] = inv

		if outstanding(inv.Status) {
			sum.Outstanding = sum.Outstanding.Add(e.normalizer.Normalize(inv.Amount, inv.Currency))
			sum.OutstandingCount++
		}
		if inv.Status == lifecycle.StatusScheduled {
			sum.ScheduledAmount = sum.ScheduledAmount.Add(e.normalizer.Normalize(inv.Amount, inv.Currency))
			sum.ScheduledCount++
		}
		if inv.Status != lifecycle.StatusPaid && calendar.Truncate(inv.DueDate).Before(today) {
			sum.OverdueCount++
		}
	}

	for _, ps := range snap.Schedules {
		if ps.PaymentStatus != model.PaymentPending {
			continue
		}
		inv, ok := invoices[ps.InvoiceID]
		if !ok || inv.Status == lifecycle.StatusRejected {
			continue
		}
		offset := calendar.DaysBetween(today, ps.PlannedPaymentDate)
		if offset < 0 || offset >= horizonDays {
			continue
		}
		b := &sum.Upcoming[offset]
		value := e.normalizer.Normalize(inv.Gross(), inv.Currency)
		b.Amount = b.Amount.Add(value)
		b.Count++
		b.Invoices = append(b.Invoices, Detail{
			InvoiceID:      inv.ID,
			InvoiceNumber:  inv.InvoiceNumber,
			VendorID:       inv.VendorID,
			OriginalAmount: inv.Gross(),
			Currency:       inv.Currency,
			Amount:         value,
		})
	}
	return sum
}
