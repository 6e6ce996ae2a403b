package model

import (
	"time"

	"aptracker/internal/checklist"
	"aptracker/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attachments stores one reference per document slot: an object key when an
// object store is configured, otherwise the uploaded file name.
type Attachments struct {
	InvoiceDoc     string `gorm:"type:varchar(512)" json:"invoice_doc,omitempty"`
	FakturPajak    string `gorm:"type:varchar(512)" json:"faktur_pajak,omitempty"`
	BastSuratJalan string `gorm:"type:varchar(512)" json:"bast_surat_jalan,omitempty"`
	AttendanceList string `gorm:"type:varchar(512)" json:"attendance_list,omitempty"`
	OtherEvidence  string `gorm:"type:varchar(512)" json:"other_evidence,omitempty"`
}

func (a *Attachments) slot(doc checklist.Document) *string {
	switch doc {
	case checklist.DocInvoice:
		return &a.InvoiceDoc
	case checklist.DocTaxInvoice:
		return &a.FakturPajak
	case checklist.DocDeliveryNote:
		return &a.BastSuratJalan
	case checklist.DocAttendanceList:
		return &a.AttendanceList
	case checklist.DocOtherEvidence:
		return &a.OtherEvidence
	}
	return nil
}

// Get returns the reference stored for doc.
func (a Attachments) Get(doc checklist.Document) string {
	if p := a.slot(doc); p != nil {
		return *p
	}
	return ""
}

// Set stores ref for doc. Unknown slots are ignored.
func (a *Attachments) Set(doc checklist.Document, ref string) {
	if p := a.slot(doc); p != nil {
		*p = ref
	}
}

// Present reports which slots are filled.
func (a Attachments) Present() map[checklist.Document]bool {
	present := make(map[checklist.Document]bool, len(checklist.Documents))
	for _, doc := range checklist.Documents {
		present[doc] = a.Get(doc) != ""
	}
	return present
}

// Invoice is an obligation owed to a vendor.
// DueDate is always produced by the due-date engine unless supplied on create.
type Invoice struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID         uuid.UUID              `gorm:"type:uuid;not null;index" json:"vendor_id"`
	InvoiceNumber    string                 `gorm:"type:varchar(50);uniqueIndex;not null" json:"invoice_number"`
	PONumber         string                 `gorm:"type:varchar(50);index" json:"po_number"`
	PODate           *time.Time             `gorm:"type:date" json:"po_date"`
	DeliveryDate     *time.Time             `gorm:"type:date" json:"delivery_date"` // goods receipt
	InvoiceDate      time.Time              `gorm:"type:date;not null" json:"invoice_date"`
	EntryDate        time.Time              `gorm:"type:date;not null;index" json:"entry_date"` // received date, anchors cycle terms
	TaxInvoiceNumber string                 `gorm:"type:varchar(50)" json:"tax_invoice_number"` // faktur pajak
	TaxInvoiceDate   *time.Time             `gorm:"type:date" json:"tax_invoice_date"`
	DueDate          time.Time              `gorm:"type:date;not null;index" json:"due_date"`
	Amount           decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"amount"` // tax-exclusive
	TaxRate          decimal.Decimal        `gorm:"type:decimal(9,4);not null;default:0" json:"tax_rate"`
	TaxAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Currency         string                 `gorm:"type:varchar(3);not null" json:"currency"`
	Status           lifecycle.Status       `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Attestations     checklist.Attestations `gorm:"embedded;embeddedPrefix:check_" json:"attestations"`
	Attachments      Attachments            `gorm:"embedded;embeddedPrefix:attachment_" json:"attachments"`
	CreatedBy        string                 `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Gross is amount plus tax in the invoice currency.
func (i Invoice) Gross() decimal.Decimal {
	return i.Amount.Add(i.TaxAmount)
}

// ChecklistInput projects the invoice onto the checklist evaluator.
func (i Invoice) ChecklistInput() checklist.Input {
	invoiceDate := i.InvoiceDate
	return checklist.Input{
		Amount:         i.Amount,
		TaxRate:        i.TaxRate,
		PODate:         i.PODate,
		DeliveryDate:   i.DeliveryDate,
		InvoiceDate:    &invoiceDate,
		TaxInvoiceDate: i.TaxInvoiceDate,
		Attestations:   i.Attestations,
		Documents:      i.Attachments.Present(),
	}
}
