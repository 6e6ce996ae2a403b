// Package report renders invoice exports (CSV, PDF) and parses bulk-import
// CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"aptracker/internal/calendar"

	"github.com/shopspring/decimal"
)

// ExportHeader is the column order consumed by downstream tools. Do not reorder.
var ExportHeader = []string{
	"Invoice Number", "PO Number", "Vendor Name", "Entry Date", "Due Date",
	"Amount", "Currency", "Status", "Aging",
}

// ExportRow is one exported invoice.
type ExportRow struct {
	InvoiceNumber string
	PONumber      string
	VendorName    string
	EntryDate     time.Time
	DueDate       time.Time
	Amount        decimal.Decimal
	Currency      string
	Status        string
	Aging         string
}

// Record renders the row in ExportHeader order. Commas are stripped from the
// vendor name; consumers split on commas without honoring quotes.
func (r ExportRow) Record() []string {
	return []string{
		r.InvoiceNumber,
		r.PONumber,
		strings.ReplaceAll(r.VendorName, ",", ""),
		calendar.Format(r.EntryDate),
		calendar.Format(r.DueDate),
		r.Amount.String(),
		r.Currency,
		r.Status,
		r.Aging,
	}
}

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("write %s: %w", row.InvoiceNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the suggested download name for an export made on day.
func FileName(day time.Time, ext string) string {
	return fmt.Sprintf("invoice_export_%s.%s", calendar.Format(day), ext)
}
