// Package checklist evaluates the verification checklist that gates the
// DRAFT -> SUBMITTED move.
package checklist

import (
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"

	"github.com/shopspring/decimal"
)

// Check names.
const (
	CheckPositiveAmount      = "amount_positive"
	CheckPOBeforeDelivery    = "po_date_before_delivery"
	CheckDeliveryBeforeInv   = "delivery_before_invoice_date"
	CheckTaxInvoiceDateMatch = "tax_invoice_date_matches"
)

// Attestation names.
const (
	AttestSignature    = "signature_stamp"
	AttestUnitPrice    = "unit_price_match"
	AttestQuantity     = "quantity_match"
	AttestGLAccount    = "gl_account_valid"
	AttestGoodsReceipt = "goods_receipt_created"
	AttestStampDuty    = "stamp_duty"
)

// Document is a named attachment slot.
type Document string

const (
	DocInvoice        Document = "invoice_doc"
	DocTaxInvoice     Document = "faktur_pajak"
	DocDeliveryNote   Document = "bast_surat_jalan"
	DocAttendanceList Document = "attendance_list"
	DocOtherEvidence  Document = "other_evidence"
)

// Documents lists every slot in display order.
var Documents = []Document{DocInvoice, DocTaxInvoice, DocDeliveryNote, DocAttendanceList, DocOtherEvidence}

func (d Document) IsValid() bool {
	for _, known := range Documents {
		if d == known {
			return true
		}
	}
	return false
}

// Config carries the jurisdiction-specific constants.
type Config struct {
	StampDutyThreshold decimal.Decimal

	CheckPOBeforeDelivery      bool
	CheckDeliveryBeforeInvoice bool
	CheckTaxInvoiceDateMatch   bool

	// EnforceDocuments makes missing required documents block submission.
	// When off they are only reported.
	EnforceDocuments bool
}

func DefaultConfig() Config {
	return Config{
		StampDutyThreshold:         decimal.NewFromInt(5_000_000),
		CheckPOBeforeDelivery:      true,
		CheckDeliveryBeforeInvoice: true,
		CheckTaxInvoiceDateMatch:   true,
	}
}

// Attestations are the operator-confirmed manual checks.
type Attestations struct {
	Signature    bool `json:"signature"`
	UnitPrice    bool `json:"unit_price_match"`
	Quantity     bool `json:"quantity_match"`
	GLAccount    bool `json:"gl_account"`
	GoodsReceipt bool `json:"goods_receipt"`
	StampDuty    bool `json:"stamp_duty"`
}

// Input is the subset of an invoice the checklist looks at.
type Input struct {
	Amount         decimal.Decimal
	TaxRate        decimal.Decimal
	PODate         *time.Time
	DeliveryDate   *time.Time
	InvoiceDate    *time.Time
	TaxInvoiceDate *time.Time
	Attestations   Attestations
	Documents      map[Document]bool
}

type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Result is the outcome of one evaluation.
type Result struct {
	SystemChecks        []Check    `json:"system_checks"`
	RequiresStampDuty   bool       `json:"requires_stamp_duty"`
	RequiredDocuments   []Document `json:"required_documents"`
	MissingAttestations []string   `json:"missing_attestations"`
	MissingDocuments    []Document `json:"missing_documents"`
	CanSubmit           bool       `json:"can_submit"`
}

// FailedChecks returns the names of system checks that did not pass.
func (r Result) FailedChecks() []string {
	var failed []string
	for _, c := range r.SystemChecks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}

// Err returns nil when submission is allowed, otherwise a ValidationError
// naming every failing item.
func (r Result) Err() error {
	if r.CanSubmit {
		return nil
	}
	failures := r.FailedChecks()
	for _, a := range r.MissingAttestations {
		failures = append(failures, "missing attestation "+a)
	}
	for _, d := range r.MissingDocuments {
		failures = append(failures, "missing document "+string(d))
	}
	return &apperr.ValidationError{
		Field:    "checklist",
		Message:  "invoice cannot be submitted",
		Failures: failures,
	}
}

// RequiresStampDuty is true when the tax-exclusive amount exceeds the threshold.
func (c Config) RequiresStampDuty(amount decimal.Decimal) bool {
	return amount.GreaterThan(c.StampDutyThreshold)
}

// RequiredDocuments lists the slots that must be filled for an invoice.
func RequiredDocuments(taxRate decimal.Decimal) []Document {
	docs := []Document{DocInvoice}
	if taxRate.GreaterThan(decimal.Zero) {
		docs = append(docs, DocTaxInvoice)
	}
	return append(docs, DocDeliveryNote)
}

// Evaluate runs every check.
func (c Config) Evaluate(in Input) Result {
	res := Result{
		SystemChecks: []Check{
			{Name: CheckPositiveAmount, Passed: in.Amount.GreaterThan(decimal.Zero)},
		},
		RequiresStampDuty: c.RequiresStampDuty(in.Amount),
		RequiredDocuments: RequiredDocuments(in.TaxRate),
	}

	if c.CheckPOBeforeDelivery {
		res.SystemChecks = append(res.SystemChecks, Check{
			Name:   CheckPOBeforeDelivery,
			Passed: notAfter(in.PODate, in.DeliveryDate),
		})
	}
	if c.CheckDeliveryBeforeInvoice {
		res.SystemChecks = append(res.SystemChecks, Check{
			Name:   CheckDeliveryBeforeInv,
			Passed: notAfter(in.DeliveryDate, in.InvoiceDate),
		})
	}
	if c.CheckTaxInvoiceDateMatch {
		res.SystemChecks = append(res.SystemChecks, Check{
			Name:   CheckTaxInvoiceDateMatch,
			Passed: sameDay(in.TaxInvoiceDate, in.InvoiceDate),
		})
	}

	a := in.Attestations
	manual := []struct {
		name string
		ok   bool
	}{
		{AttestSignature, a.Signature},
		{AttestUnitPrice, a.UnitPrice},
		{AttestQuantity, a.Quantity},
		{AttestGLAccount, a.GLAccount},
		{AttestGoodsReceipt, a.GoodsReceipt},
	}
	if res.RequiresStampDuty {
		manual = append(manual, struct {
			name string
			ok   bool
		}{AttestStampDuty, a.StampDuty})
	}
	for _, m := range manual {
		if !m.ok {
			res.MissingAttestations = append(res.MissingAttestations, m.name)
		}
	}

	for _, d := range res.RequiredDocuments {
		if !in.Documents[d] {
			res.MissingDocuments = append(res.MissingDocuments, d)
		}
	}

	res.CanSubmit = len(res.FailedChecks()) == 0 && len(res.MissingAttestations) == 0
	if c.EnforceDocuments && len(res.MissingDocuments) > 0 {
		res.CanSubmit = false
	}
	return res
}

// notAfter holds when either date is absent.
func notAfter(earlier, later *time.Time) bool {
	if earlier == nil || later == nil {
		return true
	}
	return !calendar.Truncate(*earlier).After(calendar.Truncate(*later))
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return true
	}
	return calendar.Equal(*a, *b)
}
