// Package duedate derives an invoice's payment due date from the vendor's
// payment-term code.
//
// Term codes listed in Rules.CycleCodes are processed in monthly batches: the
// invoice is paid on the cutoff day of a later month, counted from the entry
// (received) date, and receipts after the cutoff roll into the next cycle.
// Any other code is a plain day count added to the invoice date.
package duedate

import (
	"errors"
	"time"

	"aptracker/internal/calendar"
)

// ErrNoAnchorDate is returned when neither an entry date nor an invoice date
// is available. The engine never guesses a date.
var ErrNoAnchorDate = errors.New("due date unknown: no entry or invoice date")

// Rules holds the business constants of the engine.
type Rules struct {
	CycleCodes  []int // term codes processed in monthly cycles
	CycleLength int   // days represented by one cycle (code / CycleLength = months)
	CutoffDay   int   // day of month payments are batched on
}

// DefaultRules are the 30/60/90 codes paid on the 25th.
func DefaultRules() Rules {
	return Rules{
		CycleCodes:  []int{30, 60, 90},
		CycleLength: 30,
		CutoffDay:   25,
	}
}

// IsCycleCode reports whether termCode is handled by cycle logic.
func (r Rules) IsCycleCode(termCode int) bool {
	for _, c := range r.CycleCodes {
		if c == termCode {
			return true
		}
	}
	return false
}

// DueDate computes the due date. Either date may be nil. The result is a
// civil date with no time component.
func (r Rules) DueDate(entryDate, invoiceDate *time.Time, termCode int) (time.Time, error) {
	if entryDate == nil && invoiceDate == nil {
		return time.Time{}, ErrNoAnchorDate
	}

	if !r.IsCycleCode(termCode) {
		basis := invoiceDate
		if basis == nil {
			basis = entryDate
		}
		return calendar.AddDays(*basis, termCode), nil
	}

	anchor := entryDate
	if anchor == nil {
		anchor = invoiceDate
	}
	entry := calendar.Truncate(*anchor)

	cycle := r.CycleLength
	if cycle <= 0 {
		cycle = 30
	}
	monthsToAdd := termCode / cycle
	if entry.Day() > r.CutoffDay {
		monthsToAdd++
	}

	return calendar.Date(entry.Year(), entry.Month()+time.Month(monthsToAdd), r.CutoffDay), nil
}
