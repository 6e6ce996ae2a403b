package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"aptracker/internal/calendar"

	"github.com/shopspring/decimal"
)

// ImportRow is one parsed line of a bulk-import file. The due date column is
// read but ignored: imported invoices always go through the due-date engine.
type ImportRow struct {
	Line          int
	InvoiceNumber string
	PONumber      string
	VendorName    string
	EntryDate     time.Time
	Amount        decimal.Decimal
	Currency      string // empty means the vendor's currency
}

// RowError reports a line that could not be parsed or imported.
type RowError struct {
	Line          int    `json:"line"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Err           error  `json:"-"`
	Message       string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func newRowError(line int, invoiceNumber string, err error) RowError {
	return RowError{Line: line, InvoiceNumber: invoiceNumber, Err: err, Message: err.Error()}
}

const minImportColumns = 6

// ParseImport reads the export layout back: invoice no, PO no, vendor name,
// entry date, due date, amount, currency. The first line is a header.
// Malformed lines are returned as RowErrors; the error result is reserved
// for an unreadable file.
func ParseImport(r io.Reader) ([]ImportRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows   []ImportRow
		failed []RowError
		line   int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				failed = append(failed, newRowError(parseErr.StartLine, "", parseErr.Err))
				continue
			}
			return nil, nil, fmt.Errorf("read import file: %w", err)
		}
		if line == 1 {
			continue
		}
		if blank(record) {
			continue
		}
		lineNo, _ := cr.FieldPos(0)

		row, err := parseRecord(record)
		if err != nil {
			failed = append(failed, newRowError(lineNo, strings.TrimSpace(record[0]), err))
			continue
		}
		row.Line = lineNo
		rows = append(rows, row)
	}
	return rows, failed, nil
}

func parseRecord(record []string) (ImportRow, error) {
	if len(record) < minImportColumns {
		return ImportRow{}, fmt.Errorf("expected at least %d columns, got %d", minImportColumns, len(record))
	}
	col := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := ImportRow{
		InvoiceNumber: col(0),
		PONumber:      col(1),
		VendorName:    col(2),
		Currency:      strings.ToUpper(col(6)),
	}
	if row.InvoiceNumber == "" {
		return row, errors.New("invoice number is empty")
	}

	entry, err := calendar.Parse(col(3))
	if err != nil {
		return row, fmt.Errorf("entry date: %w", err)
	}
	row.EntryDate = entry

	amount, err := decimal.NewFromString(col(5))
	if err != nil {
		return row, fmt.Errorf("amount %q is not a number", col(5))
	}
	row.Amount = amount
	return row, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
