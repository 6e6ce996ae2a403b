// Package forecast projects cash outflows from approved and scheduled
// invoices, bucketed by payment day and by month, under a what-if scenario.
//
// The engine works on snapshots passed in by the caller and never mutates
// them: a scenario is a view-time transform only.
package forecast

import (
	"sort"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMonthsAhead is the number of forward months in the monthly summary.
const DefaultMonthsAhead = 3

// Scenario shifts every eligible payment date by DelayDays (negative values
// accelerate) and optionally restricts the projection to one vendor.
type Scenario struct {
	DelayDays int
	VendorID  *uuid.UUID
}

// Snapshot is the data the engine aggregates over.
type Snapshot struct {
	Invoices  []model.Invoice
	Schedules []model.PaymentSchedule
	Vendors   []model.Vendor
}

// Detail is one invoice inside a daily bucket.
type Detail struct {
	InvoiceID      uuid.UUID
	InvoiceNumber  string
	VendorID       uuid.UUID
	VendorName     string
	OriginalAmount decimal.Decimal // amount + tax in the invoice currency
	Currency       string
	Amount         decimal.Decimal // normalized
}

type DailyBucket struct {
	Date     time.Time
	Amount   decimal.Decimal
	Count    int
	Invoices []Detail
}

type MonthlyBucket struct {
	Year   int
	Month  time.Month
	Label  string
	Amount decimal.Decimal
	Count  int
}

// Result is the full projection. Daily is sorted by date; Monthly always has
// one entry per tracked month, zero-filled.
type Result struct {
	ReportingCurrency string
	Scenario          Scenario
	Daily             []DailyBucket
	Monthly           []MonthlyBucket
	Total             decimal.Decimal
	Count             int
}

// Engine aggregates forecasts.
type Engine struct {
	normalizer  *money.Normalizer
	monthsAhead int
}

func NewEngine(normalizer *money.Normalizer, monthsAhead int) *Engine {
	if normalizer == nil {
		normalizer = money.DefaultNormalizer()
	}
	if monthsAhead <= 0 {
		monthsAhead = DefaultMonthsAhead
	}
	return &Engine{normalizer: normalizer, monthsAhead: monthsAhead}
}

// Eligible reports whether an invoice takes part in the forecast.
func Eligible(s lifecycle.Status) bool {
	return s == lifecycle.StatusApproved || s == lifecycle.StatusScheduled
}

// Aggregate builds the projection as seen from today. An eligible invoice
// whose vendor is unknown fails the whole aggregation.
func (e *Engine) Aggregate(snap Snapshot, sc Scenario, today time.Time) (*Result, error) {
	vendors := indexVendors(snap.Vendors)
	planned := make(map[uuid.UUID]time.Time, len(snap.Schedules))
	for _, ps := range snap.Schedules {
		planned[ps.InvoiceID] = ps.PlannedPaymentDate
	}

	res := &Result{
		ReportingCurrency: e.normalizer.ReportingCurrency(),
		Scenario:          sc,
		Total:             decimal.Zero,
		Monthly:           e.monthWindow(today),
	}
	months := make(map[[2]int]*MonthlyBucket, len(res.Monthly))
	for i := range res.Monthly {
		m := &res.Monthly[i]
		months[[2]int{m.Year, int(m.Month)}] = m
	}
	daily := map[time.Time]*DailyBucket{}

	for _, inv := range snap.Invoices {
		if !Eligible(inv.Status) {
			continue
		}
		if sc.VendorID != nil && inv.VendorID != *sc.VendorID {
			continue
		}
		vendor, ok := vendors[inv.VendorID]
		if !ok {
			return nil, apperr.MissingVendor(inv.VendorID.String())
		}

		base, ok := planned[inv.ID]
		if !ok {
			base = inv.DueDate
		}
		date := calendar.AddDays(base, sc.DelayDays)
		value := e.normalizer.Normalize(inv.Gross(), inv.Currency)

		bucket, ok := daily[date]
		if !ok {
			bucket = &DailyBucket{Date: date, Amount: decimal.Zero}
			daily[date] = bucket
		}
		bucket.Amount = bucket.Amount.Add(value)
		bucket.Count++
		bucket.Invoices = append(bucket.Invoices, Detail{
			InvoiceID:      inv.ID,
			InvoiceNumber:  inv.InvoiceNumber,
			VendorID:       vendor.ID,
			VendorName:     vendor.Name,
			OriginalAmount: inv.Gross(),
			Currency:       inv.Currency,
			Amount:         value,
		})

		if m, ok := months[[2]int{date.Year(), int(date.Month())}]; ok {
			m.Amount = m.Amount.Add(value)
			m.Count++
		}

		res.Total = res.Total.Add(value)
		res.Count++
	}

	res.Daily = make([]DailyBucket, 0, len(daily))
	for _, b := range daily {
		res.Daily = append(res.Daily, *b)
	}
	sort.Slice(res.Daily, func(i, j int) bool {
		return res.Daily[i].Date.Before(res.Daily[j].Date)
	})
	return res, nil
}

// monthWindow returns zeroed buckets for the months after today's month.
func (e *Engine) monthWindow(today time.Time) []MonthlyBucket {
	out := make([]MonthlyBucket, 0, e.monthsAhead)
	for i := 1; i <= e.monthsAhead; i++ {
		start := calendar.MonthStart(today, i)
		out = append(out, MonthlyBucket{
			Year:   start.Year(),
			Month:  start.Month(),
			Label:  start.Format("January 2006"),
			Amount: decimal.Zero,
		})
	}
	return out
}

func indexVendors(vendors []model.Vendor) map[uuid.UUID]model.Vendor {
	idx := make(map[uuid.UUID]model.Vendor, len(vendors))
	for _, v := range vendors {
		idx[v.ID] = v
	}
	return idx
}
