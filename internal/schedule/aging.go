package schedule

import (
	"fmt"
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
)

// Severity grades active aging for display.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Aging thresholds in days.
const (
	WarningAfterDays  = 30
	CriticalAfterDays = 60
)

// Aging is the number of days an invoice has been outstanding.
type Aging struct {
	Days   int  `json:"days"`
	Closed bool `json:"closed"`
	// Estimated marks a PAID invoice with no recorded payment date, measured
	// up to today.
	Estimated bool     `json:"estimated,omitempty"`
	Severity  Severity `json:"severity"`
}

func (a Aging) String() string {
	if a.Closed {
		return fmt.Sprintf("%d Days (Closed)", a.Days)
	}
	return fmt.Sprintf("%d Days Active", a.Days)
}

// AgingOf computes aging as of today. ps may be nil.
func AgingOf(inv *model.Invoice, ps *model.PaymentSchedule, today time.Time) Aging {
	if inv.Status == lifecycle.StatusPaid {
		if ps != nil && ps.ActualPaymentDate != nil {
			return Aging{
				Days:     calendar.DaysBetween(inv.EntryDate, *ps.ActualPaymentDate),
				Closed:   true,
				Severity: SeverityNormal,
			}
		}
		return Aging{
			Days:      calendar.DaysBetween(inv.EntryDate, today),
			Closed:    true,
			Estimated: true,
			Severity:  SeverityNormal,
		}
	}

	days := calendar.DaysBetween(inv.EntryDate, today)
	return Aging{Days: days, Severity: severityFor(days)}
}

func severityFor(days int) Severity {
	switch {
	case days > CriticalAfterDays:
		return SeverityCritical
	case days > WarningAfterDays:
		return SeverityWarning
	}
	return SeverityNormal
}
