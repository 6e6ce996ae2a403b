// Package schedule derives an invoice's payment schedule and its aging.
package schedule

import (
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
)

// New builds the schedule for a freshly created invoice.
func New(inv *model.Invoice) *model.PaymentSchedule {
	ps := &model.PaymentSchedule{
		InvoiceID:          inv.ID,
		PlannedPaymentDate: calendar.Truncate(inv.DueDate),
		PaymentStatus:      StatusFor(inv.Status),
	}
	return ps
}

// StatusFor is PAID iff the invoice is PAID.
func StatusFor(s lifecycle.Status) string {
	if s == lifecycle.StatusPaid {
		return model.PaymentPaid
	}
	return model.PaymentPending
}

// Sync brings ps in line with inv after an edit and reports whether anything
// changed. The actual payment date is never touched.
func Sync(ps *model.PaymentSchedule, inv *model.Invoice) bool {
	changed := false
	due := calendar.Truncate(inv.DueDate)
	if !ps.PlannedPaymentDate.Equal(due) {
		ps.PlannedPaymentDate = due
		changed = true
	}
	if status := StatusFor(inv.Status); ps.PaymentStatus != status {
		ps.PaymentStatus = status
		changed = true
	}
	return changed
}

// Reschedule moves the planned date, used when an invoice is scheduled for a
// date other than its due date.
func Reschedule(ps *model.PaymentSchedule, planned time.Time, remarks string) {
	ps.PlannedPaymentDate = calendar.Truncate(planned)
	if remarks != "" {
		ps.Remarks = remarks
	}
}

// MarkPaid settles the schedule on the given date.
func MarkPaid(ps *model.PaymentSchedule, paidOn time.Time, remarks string) {
	d := calendar.Truncate(paidOn)
	ps.ActualPaymentDate = &d
	ps.PaymentStatus = model.PaymentPaid
	if remarks != "" {
		ps.Remarks = remarks
	}
}
