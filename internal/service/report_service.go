package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/report"
	"aptracker/internal/repository"
	"aptracker/internal/schedule"

	"github.com/google/uuid"
)

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	FileName    string
	ContentType string
	Body        []byte
}

type ReportService interface {
	ExportRows(ctx context.Context, filter InvoiceListFilter) ([]report.ExportRow, error)
	ExportCSV(ctx context.Context, filter InvoiceListFilter) (ExportFile, error)
	ExportPDF(ctx context.Context, filter InvoiceListFilter) (ExportFile, error)
}

type reportService struct {
	repos repository.Set
	clock calendar.Clock
}

func NewReportService(repos repository.Set, clock calendar.Clock) ReportService {
	if clock == nil {
		clock = calendar.SystemClock
	}
	return &reportService{repos: repos, clock: clock}
}

// ExportRows produces one row per filtered invoice, newest entry first. A row
// whose vendor no longer exists fails the export.
func (s *reportService) ExportRows(ctx context.Context, filter InvoiceListFilter) ([]report.ExportRow, error) {
	rf, err := toRepositoryFilter(filter)
	if err != nil {
		return nil, err
	}

	var rows []report.ExportRow
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		invoices, err := s.repos.Invoices.All(txCtx, rf)
		if err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}
		vendors, err := s.repos.Vendors.All(txCtx)
		if err != nil {
			return fmt.Errorf("failed to load vendors: %w", err)
		}
		schedules, err := s.repos.Schedules.List(txCtx)
		if err != nil {
			return fmt.Errorf("failed to load schedules: %w", err)
		}

		names := make(map[uuid.UUID]string, len(vendors))
		for _, v := range vendors {
			names[v.ID] = v.Name
		}
		byInvoice := make(map[uuid.UUID]int, len(schedules))
		for i, ps := range schedules {
			byInvoice[ps.InvoiceID] = i
		}

		today := calendar.Today(s.clock)
		rows = make([]report.ExportRow, 0, len(invoices))
		for i := range invoices {
			inv := &invoices[i]
			name, ok := names[inv.VendorID]
			if !ok {
				return apperr.MissingVendor(inv.VendorID.String())
			}
			aging := schedule.AgingOf(inv, nil, today)
			if idx, ok := byInvoice[inv.ID]; ok {
				aging = schedule.AgingOf(inv, &schedules[idx], today)
			}
			rows = append(rows, report.ExportRow{
				InvoiceNumber: inv.InvoiceNumber,
				PONumber:      inv.PONumber,
				VendorName:    name,
				EntryDate:     inv.EntryDate,
				DueDate:       inv.DueDate,
				Amount:        inv.Amount,
				Currency:      inv.Currency,
				Status:        string(inv.Status),
				Aging:         aging.String(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export invoices: %w", err)
	}
	return rows, nil
}

func (s *reportService) ExportCSV(ctx context.Context, filter InvoiceListFilter) (ExportFile, error) {
	return s.render(ctx, filter, "csv", "text/csv", func(w io.Writer, rows []report.ExportRow) error {
		return report.WriteCSV(w, rows)
	})
}

func (s *reportService) ExportPDF(ctx context.Context, filter InvoiceListFilter) (ExportFile, error) {
	return s.render(ctx, filter, "pdf", "application/pdf", func(w io.Writer, rows []report.ExportRow) error {
		return report.WritePDF(w, "Invoice Register", s.clock(), rows)
	})
}

func (s *reportService) render(ctx context.Context, filter InvoiceListFilter, ext, contentType string, write func(io.Writer, []report.ExportRow) error) (ExportFile, error) {
	rows, err := s.ExportRows(ctx, filter)
	if err != nil {
		return ExportFile{}, err
	}
	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		return ExportFile{}, fmt.Errorf("failed to render %s export: %w", ext, err)
	}
	return ExportFile{
		FileName:    report.FileName(calendar.Today(s.clock), ext),
		ContentType: contentType,
		Body:        buf.Bytes(),
	}, nil
}
