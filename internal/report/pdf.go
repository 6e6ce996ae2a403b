package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
)

// landscape A4 usable width is 277mm with 10mm margins
var pdfColumnWidths = []float64{35, 30, 55, 24, 24, 35, 18, 24, 32}

// WritePDF renders the export as a landscape table.
func WritePDF(w io.Writer, title string, generated time.Time, rows []ExportRow) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", generated.Format("02-Jan-2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(200, 200, 200)
		for i, h := range ExportHeader {
			pdf.CellFormat(pdfColumnWidths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	align := []string{"L", "L", "L", "C", "C", "R", "C", "C", "L"}
	for _, row := range rows {
		cells := row.Record()
		cells[5] = row.Amount.StringFixed(2)
		for i, cell := range cells {
			pdf.CellFormat(pdfColumnWidths[i], 6, truncate(pdf, cell, pdfColumnWidths[i]-2), "1", 0, align[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(277, 7, fmt.Sprintf("Invoices: %d", len(rows)), "", 1, "L", false, 0, "")
	for _, t := range totalsByCurrency(rows) {
		pdf.CellFormat(277, 6, fmt.Sprintf("Total %s: %s", t.currency, t.amount.StringFixed(2)), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

type currencyTotal struct {
	currency string
	amount   decimal.Decimal
}

// totalsByCurrency sums amounts per currency in first-seen order.
func totalsByCurrency(rows []ExportRow) []currencyTotal {
	var out []currencyTotal
	idx := map[string]int{}
	for _, r := range rows {
		i, ok := idx[r.Currency]
		if !ok {
			i = len(out)
			idx[r.Currency] = i
			out = append(out, currencyTotal{currency: r.Currency, amount: decimal.Zero})
		}
		out[i].amount = out[i].amount.Add(r.Amount)
	}
	return out
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
