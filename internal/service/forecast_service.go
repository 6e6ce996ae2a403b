package service

import (
	"context"
	"fmt"

	"aptracker/internal/calendar"
	"aptracker/internal/forecast"
	"aptracker/internal/metrics"
	"aptracker/internal/repository"

	"github.com/rs/zerolog"
)

// --- DTOs ---

type ForecastRequest struct {
	DelayDays int    `form:"delay_days"`
	VendorID  string `form:"vendor_id"`
}

type ForecastDetailResponse struct {
	InvoiceID      string `json:"invoice_id"`
	InvoiceNumber  string `json:"invoice_number"`
	VendorName     string `json:"vendor_name"`
	OriginalAmount string `json:"original_amount"`
	Currency       string `json:"currency"`
	Amount         string `json:"amount"`
}

type DailyBucketResponse struct {
	Date     string                   `json:"date"`
	Amount   string                   `json:"amount"`
	Count    int                      `json:"count"`
	Invoices []ForecastDetailResponse `json:"invoices,omitempty"`
}

type MonthlyBucketResponse struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
	Count  int    `json:"count"`
}

type ForecastResponse struct {
	ReportingCurrency string                  `json:"reporting_currency"`
	DelayDays         int                     `json:"delay_days"`
	VendorID          *string                 `json:"vendor_id"`
	Daily             []DailyBucketResponse   `json:"daily"`
	Monthly           []MonthlyBucketResponse `json:"monthly"`
	Total             string                  `json:"total"`
	Count             int                     `json:"count"`
}

type DashboardResponse struct {
	ReportingCurrency string                `json:"reporting_currency"`
	Outstanding       string                `json:"outstanding"`
	OutstandingCount  int                   `json:"outstanding_count"`
	OverdueCount      int                   `json:"overdue_count"`
	ScheduledAmount   string                `json:"scheduled_amount"`
	ScheduledCount    int                   `json:"scheduled_count"`
	Upcoming          []DailyBucketResponse `json:"upcoming"`
}

// --- Interface ---

type ForecastService interface {
	Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error)
	Dashboard(ctx context.Context) (DashboardResponse, error)
}

// --- Implementation ---

type forecastService struct {
	repos  repository.Set
	rules  Rules
	engine *forecast.Engine
	clock  calendar.Clock
	log    zerolog.Logger
}

func NewForecastService(repos repository.Set, rules Rules, clock calendar.Clock, log zerolog.Logger) ForecastService {
	if clock == nil {
		clock = calendar.SystemClock
	}
	return &forecastService{
		repos:  repos,
		rules:  rules,
		engine: forecast.NewEngine(rules.Normalizer, rules.ForecastMonths),
		clock:  clock,
		log:    log,
	}
}

// snapshot reads a consistent view of invoices, schedules and vendors.
func (s *forecastService) snapshot(ctx context.Context) (forecast.Snapshot, error) {
	var snap forecast.Snapshot
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if snap.Invoices, err = s.repos.Invoices.All(txCtx, repository.InvoiceFilter{}); err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}
		if snap.Schedules, err = s.repos.Schedules.List(txCtx); err != nil {
			return fmt.Errorf("failed to load schedules: %w", err)
		}
		if snap.Vendors, err = s.repos.Vendors.All(txCtx); err != nil {
			return fmt.Errorf("failed to load vendors: %w", err)
		}
		return nil
	})
	return snap, err
}

func (s *forecastService) Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error) {
	sc := forecast.Scenario{DelayDays: req.DelayDays}
	if req.VendorID != "" {
		vid, err := parseID("vendor_id", req.VendorID)
		if err != nil {
			return ForecastResponse{}, err
		}
		sc.VendorID = &vid
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return ForecastResponse{}, err
	}
	result, err := s.engine.Aggregate(snap, sc, calendar.Today(s.clock))
	if err != nil {
		return ForecastResponse{}, fmt.Errorf("failed to aggregate forecast: %w", err)
	}

	metrics.ForecastRuns.Inc()
	if sc.DelayDays == 0 && sc.VendorID == nil {
		total, _ := result.Total.Float64()
		metrics.ForecastOutflow.Set(total)
	}
	s.log.Debug().Int("delay_days", sc.DelayDays).Int("invoices", result.Count).Msg("forecast aggregated")

	res := ForecastResponse{
		ReportingCurrency: result.ReportingCurrency,
		DelayDays:         sc.DelayDays,
		Daily:             toDailyResponses(result.Daily, true),
		Monthly:           make([]MonthlyBucketResponse, 0, len(result.Monthly)),
		Total:             result.Total.String(),
		Count:             result.Count,
	}
	if sc.VendorID != nil {
		id := sc.VendorID.String()
		res.VendorID = &id
	}
	for _, m := range result.Monthly {
		res.Monthly = append(res.Monthly, MonthlyBucketResponse{
			Year:   m.Year,
			Month:  int(m.Month),
			Label:  m.Label,
			Amount: m.Amount.String(),
			Count:  m.Count,
		})
	}
	return res, nil
}

func (s *forecastService) Dashboard(ctx context.Context) (DashboardResponse, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}
	sum := s.engine.Summarize(snap, calendar.Today(s.clock), s.rules.DashboardHorizon)
	return DashboardResponse{
		ReportingCurrency: sum.ReportingCurrency,
		Outstanding:       sum.Outstanding.String(),
		OutstandingCount:  sum.OutstandingCount,
		OverdueCount:      sum.OverdueCount,
		ScheduledAmount:   sum.ScheduledAmount.String(),
		ScheduledCount:    sum.ScheduledCount,
		Upcoming:          toDailyResponses(sum.Upcoming, false),
	}, nil
}

func toDailyResponses(buckets []forecast.DailyBucket, details bool) []DailyBucketResponse {
	out := make([]DailyBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		row := DailyBucketResponse{
			Date:   calendar.Format(b.Date),
			Amount: b.Amount.String(),
			Count:  b.Count,
		}
		if details {
			for _, d := range b.Invoices {
				row.Invoices = append(row.Invoices, ForecastDetailResponse{
					InvoiceID:      d.InvoiceID.String(),
					InvoiceNumber:  d.InvoiceNumber,
					VendorName:     d.VendorName,
					OriginalAmount: d.OriginalAmount.String(),
					Currency:       d.Currency,
					Amount:         d.Amount.String(),
				})
			}
		}
		out = append(out, row)
	}
	return out
}
