package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"aptracker/internal/apperr"
	"aptracker/internal/metrics"
	"aptracker/internal/model"
	"aptracker/internal/report"
)

// ImportInvoices creates one DRAFT invoice per row through the same path as
// manual entry. Each row commits on its own; failures are collected per line.
func (s *invoiceService) ImportInvoices(ctx context.Context, actor Actor, rows []report.ImportRow) (ImportResult, error) {
	res := ImportResult{
		Invoices: make([]InvoiceResponse, 0, len(rows)),
		Errors:   []report.RowError{},
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		inv, err := s.importRow(ctx, actor, row)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, report.RowError{
				Line:          row.Line,
				InvoiceNumber: row.InvoiceNumber,
				Err:           err,
				Message:       err.Error(),
			})
			metrics.InvoicesImported.WithLabelValues("failed").Inc()
			continue
		}
		res.Created++
		res.Invoices = append(res.Invoices, inv)
		metrics.InvoicesImported.WithLabelValues("created").Inc()
		s.notifier.Publish(EventInvoiceCreated, inv)
	}

	s.log.Info().
		Int("rows", len(rows)).
		Int("created", res.Created).
		Int("failed", res.Failed).
		Msg("invoice import finished")
	return res, nil
}

func (s *invoiceService) importRow(ctx context.Context, actor Actor, row report.ImportRow) (InvoiceResponse, error) {
	vendor, err := s.repos.Vendors.FindByName(ctx, row.VendorName)
	if errors.Is(err, apperr.ErrNotFound) {
		return InvoiceResponse{}, &apperr.ReferentialError{
			Entity:  "vendor",
			ID:      row.VendorName,
			Message: "no vendor with this name",
		}
	}
	if err != nil {
		return InvoiceResponse{}, err
	}

	entry := row.EntryDate
	inv, v, ps, err := s.create(ctx, actor, invoiceDraft{
		VendorID:      vendor.ID,
		InvoiceNumber: row.InvoiceNumber,
		PONumber:      row.PONumber,
		EntryDate:     &entry,
		InvoiceDate:   &entry,
		Amount:        row.Amount,
		Currency:      row.Currency,
		AuditAction:   model.ActionImportInvoice,
	})
	if err != nil {
		return InvoiceResponse{}, err
	}
	return s.toInvoiceResponse(inv, v, ps, actor.Role), nil
}

// ImportCSV parses an import file and imports every well-formed row.
// Lines that fail to parse are reported alongside import failures.
func (s *invoiceService) ImportCSV(ctx context.Context, actor Actor, r io.Reader) (ImportResult, error) {
	rows, parseErrs, err := report.ParseImport(r)
	if err != nil {
		return ImportResult{}, apperr.Validation("file", "%v", err)
	}

	res, err := s.ImportInvoices(ctx, actor, rows)
	if err != nil {
		return res, fmt.Errorf("failed to import invoices: %w", err)
	}
	if len(parseErrs) > 0 {
		metrics.InvoicesImported.WithLabelValues("failed").Add(float64(len(parseErrs)))
		res.Failed += len(parseErrs)
		res.Errors = append(parseErrs, res.Errors...)
	}
	return res, nil
}
