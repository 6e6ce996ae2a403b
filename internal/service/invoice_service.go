package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/checklist"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/report"
	"aptracker/internal/repository"
	"aptracker/internal/schedule"
	"aptracker/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	VendorID         string                 `json:"vendor_id" binding:"required"`
	InvoiceNumber    string                 `json:"invoice_number" binding:"required"`
	PONumber         string                 `json:"po_number"`
	PODate           *string                `json:"po_date"`
	DeliveryDate     *string                `json:"delivery_date"`
	InvoiceDate      *string                `json:"invoice_date"`
	EntryDate        *string                `json:"entry_date"` // defaults to today
	TaxInvoiceNumber string                 `json:"tax_invoice_number"`
	TaxInvoiceDate   *string                `json:"tax_invoice_date"`
	DueDate          *string                `json:"due_date"` // explicit override of the rule engine
	Amount           string                 `json:"amount" binding:"required"`
	TaxRate          string                 `json:"tax_rate"`
	TaxAmount        *string                `json:"tax_amount"`
	Currency         string                 `json:"currency"` // defaults to the vendor currency
	Attestations     checklist.Attestations `json:"attestations"`
	Submit           bool                   `json:"submit"` // create directly in SUBMITTED
}

// UpdateInvoiceRequest carries only the fields being changed.
type UpdateInvoiceRequest struct {
	VendorID         *string                 `json:"vendor_id"`
	InvoiceNumber    *string                 `json:"invoice_number"`
	PONumber         *string                 `json:"po_number"`
	PODate           *string                 `json:"po_date"`
	DeliveryDate     *string                 `json:"delivery_date"`
	InvoiceDate      *string                 `json:"invoice_date"`
	EntryDate        *string                 `json:"entry_date"`
	TaxInvoiceNumber *string                 `json:"tax_invoice_number"`
	TaxInvoiceDate   *string                 `json:"tax_invoice_date"`
	DueDate          *string                 `json:"due_date"`
	Amount           *string                 `json:"amount"`
	TaxRate          *string                 `json:"tax_rate"`
	TaxAmount        *string                 `json:"tax_amount"`
	Currency         *string                 `json:"currency"`
	Attestations     *checklist.Attestations `json:"attestations"`
}

type InvoiceListFilter struct {
	Search   string
	Status   string
	VendorID string
	From     string
	To       string
	Role     string // used for can_approve
}

type AgingResponse struct {
	Days      int    `json:"days"`
	Text      string `json:"text"`
	Closed    bool   `json:"closed"`
	Estimated bool   `json:"estimated"`
	Severity  string `json:"severity"`
}

type InvoiceResponse struct {
	ID                 string                 `json:"id"`
	VendorID           string                 `json:"vendor_id"`
	VendorName         string                 `json:"vendor_name"`
	VendorMissing      bool                   `json:"vendor_missing"`
	InvoiceNumber      string                 `json:"invoice_number"`
	PONumber           string                 `json:"po_number"`
	PODate             *string                `json:"po_date"`
	DeliveryDate       *string                `json:"delivery_date"`
	InvoiceDate        string                 `json:"invoice_date"`
	EntryDate          string                 `json:"entry_date"`
	TaxInvoiceNumber   string                 `json:"tax_invoice_number"`
	TaxInvoiceDate     *string                `json:"tax_invoice_date"`
	DueDate            string                 `json:"due_date"`
	Amount             string                 `json:"amount"`
	TaxRate            string                 `json:"tax_rate"`
	TaxAmount          string                 `json:"tax_amount"`
	TotalAmount        string                 `json:"total_amount"`
	Currency           string                 `json:"currency"`
	Status             lifecycle.Status       `json:"status"`
	Attestations       checklist.Attestations `json:"attestations"`
	Attachments        model.Attachments      `json:"attachments"`
	RequiresStampDuty  bool                   `json:"requires_stamp_duty"`
	PlannedPaymentDate *string                `json:"planned_payment_date"`
	ActualPaymentDate  *string                `json:"actual_payment_date"`
	PaymentStatus      string                 `json:"payment_status"`
	Aging              AgingResponse          `json:"aging"`
	AvailableActions   []lifecycle.Action     `json:"available_actions"`
	CanEdit            bool                   `json:"can_edit"`
	CanApprove         bool                   `json:"can_approve"`
	CreatedBy          string                 `json:"created_by"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

type ActionRequest struct {
	Action  string  `json:"action"`
	Date    *string `json:"date"` // planned date for SCHEDULE, paid date for PAY
	Remarks string  `json:"remarks"`
}

// ChecklistRequest is a draft payload evaluated without persisting anything.
type ChecklistRequest struct {
	Amount         string                 `json:"amount" binding:"required"`
	TaxRate        string                 `json:"tax_rate"`
	PODate         *string                `json:"po_date"`
	DeliveryDate   *string                `json:"delivery_date"`
	InvoiceDate    *string                `json:"invoice_date"`
	TaxInvoiceDate *string                `json:"tax_invoice_date"`
	Attestations   checklist.Attestations `json:"attestations"`
	Documents      []checklist.Document   `json:"documents"`
}

// DueDateRequest previews the rule engine. TermCode wins over VendorID.
type DueDateRequest struct {
	VendorID    string  `json:"vendor_id"`
	TermCode    *int    `json:"term_code"`
	EntryDate   *string `json:"entry_date"`
	InvoiceDate *string `json:"invoice_date"`
}

type DueDateResponse struct {
	TermCode  int     `json:"term_code"`
	CycleTerm bool    `json:"cycle_term"`
	DueDate   *string `json:"due_date"` // null when no anchor date was given
	Reason    string  `json:"reason,omitempty"`
}

type ImportResult struct {
	Created  int               `json:"created"`
	Failed   int               `json:"failed"`
	Invoices []InvoiceResponse `json:"invoices"`
	Errors   []report.RowError `json:"errors"`
}

type ScheduleResponse struct {
	InvoiceID          string        `json:"invoice_id"`
	InvoiceNumber      string        `json:"invoice_number"`
	VendorName         string        `json:"vendor_name"`
	VendorMissing      bool          `json:"vendor_missing"`
	InvoiceStatus      string        `json:"invoice_status"`
	Amount             string        `json:"amount"`
	Currency           string        `json:"currency"`
	PlannedPaymentDate string        `json:"planned_payment_date"`
	ActualPaymentDate  *string       `json:"actual_payment_date"`
	PaymentStatus      string        `json:"payment_status"`
	Remarks            string        `json:"remarks"`
	Aging              AgingResponse `json:"aging"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor Actor, req CreateInvoiceRequest) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, actor Actor, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, actor Actor, id string) error
	GetInvoice(ctx context.Context, id string, role string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceListFilter, page, limit int) ([]InvoiceResponse, int64, error)
	PreviewChecklist(ctx context.Context, req ChecklistRequest) (checklist.Result, error)
	PreviewDueDate(ctx context.Context, req DueDateRequest) (DueDateResponse, error)
	ApplyAction(ctx context.Context, actor Actor, id string, req ActionRequest) (InvoiceResponse, error)
	ImportInvoices(ctx context.Context, actor Actor, rows []report.ImportRow) (ImportResult, error)
	ImportCSV(ctx context.Context, actor Actor, r io.Reader) (ImportResult, error)
	AttachDocument(ctx context.Context, actor Actor, id, kind, fileName string, body io.Reader, contentType string) (InvoiceResponse, error)
	DocumentURL(ctx context.Context, id, kind string) (string, error)
	ListSchedules(ctx context.Context) ([]ScheduleResponse, error)
}

type invoiceService struct {
	repos    repository.Set
	rules    Rules
	store    storage.ObjectStore
	notifier Notifier
	clock    calendar.Clock
	log      zerolog.Logger
}

// NewInvoiceService wires the invoice workflow. store and notifier may be nil.
func NewInvoiceService(
	repos repository.Set,
	rules Rules,
	store storage.ObjectStore,
	notifier Notifier,
	clock calendar.Clock,
	log zerolog.Logger,
) InvoiceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clock == nil {
		clock = calendar.SystemClock
	}
	return &invoiceService{
		repos:    repos,
		rules:    rules,
		store:    store,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// --- Implementation ---

// invoiceDraft is a parsed create request. Manual entry and bulk import both
// end up here so they share one creation path.
type invoiceDraft struct {
	VendorID         uuid.UUID
	InvoiceNumber    string
	PONumber         string
	PODate           *time.Time
	DeliveryDate     *time.Time
	InvoiceDate      *time.Time
	EntryDate        *time.Time
	TaxInvoiceNumber string
	TaxInvoiceDate   *time.Time
	DueDate          *time.Time
	Amount           decimal.Decimal
	TaxRate          decimal.Decimal
	TaxAmount        *decimal.Decimal
	Currency         string
	Attestations     checklist.Attestations
	Submit           bool
	AuditAction      string
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation(field, "invalid number %q", raw)
	}
	return d, nil
}

func taxFor(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

func (s *invoiceService) CreateInvoice(ctx context.Context, actor Actor, req CreateInvoiceRequest) (InvoiceResponse, error) {
	vendorID, err := parseID("vendor_id", req.VendorID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	d := invoiceDraft{
		VendorID:         vendorID,
		InvoiceNumber:    req.InvoiceNumber,
		PONumber:         strings.TrimSpace(req.PONumber),
		TaxInvoiceNumber: strings.TrimSpace(req.TaxInvoiceNumber),
		Currency:         req.Currency,
		Attestations:     req.Attestations,
		Submit:           req.Submit,
		AuditAction:      model.ActionCreateInvoice,
	}
	dates := []struct {
		field string
		raw   *string
		dst   **time.Time
	}{
		{"po_date", req.PODate, &d.PODate},
		{"delivery_date", req.DeliveryDate, &d.DeliveryDate},
		{"invoice_date", req.InvoiceDate, &d.InvoiceDate},
		{"entry_date", req.EntryDate, &d.EntryDate},
		{"tax_invoice_date", req.TaxInvoiceDate, &d.TaxInvoiceDate},
		{"due_date", req.DueDate, &d.DueDate},
	}
	for _, f := range dates {
		if *f.dst, err = optionalDate(f.field, f.raw); err != nil {
			return InvoiceResponse{}, err
		}
	}
	if d.Amount, err = parseAmount("amount", req.Amount); err != nil {
		return InvoiceResponse{}, err
	}
	if d.TaxRate, err = parseAmount("tax_rate", req.TaxRate); err != nil {
		return InvoiceResponse{}, err
	}
	if req.TaxAmount != nil && strings.TrimSpace(*req.TaxAmount) != "" {
		tax, err := parseAmount("tax_amount", *req.TaxAmount)
		if err != nil {
			return InvoiceResponse{}, err
		}
		d.TaxAmount = &tax
	}

	inv, vendor, ps, err := s.create(ctx, actor, d)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	res := s.toInvoiceResponse(inv, vendor, ps, actor.Role)
	s.notifier.Publish(EventInvoiceCreated, res)
	return res, nil
}

// create validates a draft and persists the invoice, its schedule and the
// audit row in one transaction.
func (s *invoiceService) create(ctx context.Context, actor Actor, d invoiceDraft) (*model.Invoice, *model.Vendor, *model.PaymentSchedule, error) {
	d.InvoiceNumber = strings.TrimSpace(d.InvoiceNumber)
	if d.InvoiceNumber == "" {
		return nil, nil, nil, apperr.Validation("invoice_number", "is required")
	}
	if d.Amount.IsNegative() {
		return nil, nil, nil, apperr.Validation("amount", "must not be negative")
	}
	if d.TaxRate.IsNegative() {
		return nil, nil, nil, apperr.Validation("tax_rate", "must not be negative")
	}
	if d.EntryDate == nil {
		today := calendar.Today(s.clock)
		d.EntryDate = &today
	}

	var (
		inv    *model.Invoice
		vendor *model.Vendor
		ps     *model.PaymentSchedule
	)
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		vendor, err = s.resolveVendor(txCtx, d.VendorID)
		if err != nil {
			return err
		}
		if err := s.checkNumber(txCtx, d.InvoiceNumber, uuid.Nil); err != nil {
			return err
		}

		currency := strings.ToUpper(strings.TrimSpace(d.Currency))
		if currency == "" {
			currency = vendor.Currency
		}
		if !s.rules.supportsCurrency(currency) {
			return apperr.Validation("currency", "unsupported currency %q", currency)
		}

		due := d.DueDate
		if due == nil {
			computed, err := s.rules.DueDate.DueDate(d.EntryDate, d.InvoiceDate, vendor.PaymentTermDays)
			if err != nil {
				return apperr.Validation("due_date", "%v", err)
			}
			due = &computed
		}
		invoiceDate := d.EntryDate
		if d.InvoiceDate != nil {
			invoiceDate = d.InvoiceDate
		}
		tax := taxFor(d.Amount, d.TaxRate)
		if d.TaxAmount != nil {
			tax = *d.TaxAmount
		}

		inv = &model.Invoice{
			ID:               uuid.New(),
			VendorID:         vendor.ID,
			InvoiceNumber:    d.InvoiceNumber,
			PONumber:         d.PONumber,
			PODate:           d.PODate,
			DeliveryDate:     d.DeliveryDate,
			InvoiceDate:      calendar.Truncate(*invoiceDate),
			EntryDate:        calendar.Truncate(*d.EntryDate),
			TaxInvoiceNumber: d.TaxInvoiceNumber,
			TaxInvoiceDate:   d.TaxInvoiceDate,
			DueDate:          calendar.Truncate(*due),
			Amount:           d.Amount,
			TaxRate:          d.TaxRate,
			TaxAmount:        tax,
			Currency:         currency,
			Status:           lifecycle.StatusDraft,
			Attestations:     d.Attestations,
			CreatedBy:        actor.Label(),
		}
		if d.Submit {
			if err := s.rules.Checklist.Evaluate(inv.ChecklistInput()).Err(); err != nil {
				return err
			}
			inv.Status = lifecycle.StatusSubmitted
		}

		if err := s.repos.Invoices.Create(txCtx, inv); err != nil {
			return duplicate("invoice_number", err)
		}
		ps = schedule.New(inv)
		if err := s.repos.Schedules.Create(txCtx, ps); err != nil {
			return fmt.Errorf("failed to create payment schedule: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, actor, d.AuditAction, inv.ID.String(), inv.InvoiceNumber, map[string]string{
			"vendor":   vendor.Name,
			"amount":   inv.Amount.String(),
			"currency": inv.Currency,
			"due_date": calendar.Format(inv.DueDate),
			"status":   string(inv.Status),
		})
	})
	if err != nil {
		return nil, nil, nil, err
	}

	s.log.Debug().
		Str("invoice", inv.InvoiceNumber).
		Str("status", string(inv.Status)).
		Str("due_date", calendar.Format(inv.DueDate)).
		Msg("invoice created")
	return inv, vendor, ps, nil
}

func (s *invoiceService) resolveVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, err := s.repos.Vendors.FindByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.MissingVendor(id.String())
	}
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

// checkNumber rejects an invoice number used by any invoice other than self.
func (s *invoiceService) checkNumber(ctx context.Context, number string, self uuid.UUID) error {
	other, err := s.repos.Invoices.FindByNumber(ctx, number)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != self {
		return apperr.Validation("invoice_number", "invoice number %s already exists", number)
	}
	return nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, actor Actor, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var (
		inv    *model.Invoice
		vendor *model.Vendor
		ps     *model.PaymentSchedule
	)
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		inv, err = s.repos.Invoices.FindByID(txCtx, uid)
		if err != nil {
			return notFound("invoice", err)
		}
		if !lifecycle.CanEdit(inv.Status) {
			return apperr.ErrLocked
		}

		dueInputsChanged := false
		if req.VendorID != nil {
			vid, err := parseID("vendor_id", *req.VendorID)
			if err != nil {
				return err
			}
			if vid != inv.VendorID {
				inv.VendorID = vid
				dueInputsChanged = true
			}
		}
		vendor, err = s.resolveVendor(txCtx, inv.VendorID)
		if err != nil {
			return err
		}

		if req.InvoiceNumber != nil {
			number := strings.TrimSpace(*req.InvoiceNumber)
			if number == "" {
				return apperr.Validation("invoice_number", "is required")
			}
			if number != inv.InvoiceNumber {
				if err := s.checkNumber(txCtx, number, inv.ID); err != nil {
					return err
				}
				inv.InvoiceNumber = number
			}
		}
		if req.PONumber != nil {
			inv.PONumber = strings.TrimSpace(*req.PONumber)
		}
		if req.TaxInvoiceNumber != nil {
			inv.TaxInvoiceNumber = strings.TrimSpace(*req.TaxInvoiceNumber)
		}

		optional := []struct {
			field string
			raw   *string
			dst   **time.Time
		}{
			{"po_date", req.PODate, &inv.PODate},
			{"delivery_date", req.DeliveryDate, &inv.DeliveryDate},
			{"tax_invoice_date", req.TaxInvoiceDate, &inv.TaxInvoiceDate},
		}
		for _, f := range optional {
			if f.raw == nil {
				continue
			}
			if *f.dst, err = optionalDate(f.field, f.raw); err != nil {
				return err
			}
		}

		required := []struct {
			field string
			raw   *string
			dst   *time.Time
		}{
			{"invoice_date", req.InvoiceDate, &inv.InvoiceDate},
			{"entry_date", req.EntryDate, &inv.EntryDate},
		}
		for _, f := range required {
			if f.raw == nil {
				continue
			}
			t, err := calendar.Parse(strings.TrimSpace(*f.raw))
			if err != nil {
				return apperr.Validation(f.field, "%v", err)
			}
			if !calendar.Equal(t, *f.dst) {
				*f.dst = t
				dueInputsChanged = true
			}
		}

		amountChanged := false
		if req.Amount != nil {
			amount, err := parseAmount("amount", *req.Amount)
			if err != nil {
				return err
			}
			if amount.IsNegative() {
				return apperr.Validation("amount", "must not be negative")
			}
			amountChanged = !amount.Equal(inv.Amount)
			inv.Amount = amount
		}
		if req.TaxRate != nil {
			rate, err := parseAmount("tax_rate", *req.TaxRate)
			if err != nil {
				return err
			}
			if rate.IsNegative() {
				return apperr.Validation("tax_rate", "must not be negative")
			}
			amountChanged = amountChanged || !rate.Equal(inv.TaxRate)
			inv.TaxRate = rate
		}
		switch {
		case req.TaxAmount != nil && strings.TrimSpace(*req.TaxAmount) != "":
			tax, err := parseAmount("tax_amount", *req.TaxAmount)
			if err != nil {
				return err
			}
			inv.TaxAmount = tax
		case amountChanged:
			inv.TaxAmount = taxFor(inv.Amount, inv.TaxRate)
		}

		if req.Currency != nil {
			currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
			if !s.rules.supportsCurrency(currency) {
				return apperr.Validation("currency", "unsupported currency %q", currency)
			}
			inv.Currency = currency
		}
		if req.Attestations != nil {
			inv.Attestations = *req.Attestations
		}

		// The due date only moves when one of its inputs moved, so a no-op
		// edit keeps whatever was computed or supplied before.
		override, err := optionalDate("due_date", req.DueDate)
		if err != nil {
			return err
		}
		switch {
		case override != nil:
			inv.DueDate = *override
		case dueInputsChanged:
			due, err := s.rules.DueDate.DueDate(&inv.EntryDate, &inv.InvoiceDate, vendor.PaymentTermDays)
			if err != nil {
				return apperr.Validation("due_date", "%v", err)
			}
			inv.DueDate = due
		}

		if inv.Status == lifecycle.StatusSubmitted {
			if err := s.rules.Checklist.Evaluate(inv.ChecklistInput()).Err(); err != nil {
				return err
			}
		}

		if err := s.repos.Invoices.Update(txCtx, inv); err != nil {
			return duplicate("invoice_number", err)
		}
		ps, err = s.syncSchedule(txCtx, inv)
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionUpdateInvoice, inv.ID.String(), inv.InvoiceNumber, req)
	})
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	res := s.toInvoiceResponse(inv, vendor, ps, actor.Role)
	s.notifier.Publish(EventInvoiceUpdated, res)
	return res, nil
}

// loadSchedule returns the invoice's schedule, recreating it if it has gone
// missing.
func (s *invoiceService) loadSchedule(ctx context.Context, inv *model.Invoice) (*model.PaymentSchedule, error) {
	ps, err := s.repos.Schedules.FindByInvoiceID(ctx, inv.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		ps = schedule.New(inv)
		if err := s.repos.Schedules.Create(ctx, ps); err != nil {
			return nil, fmt.Errorf("failed to create payment schedule: %w", err)
		}
		return ps, nil
	}
	return ps, err
}

// syncSchedule keeps the schedule in step with an edited invoice.
func (s *invoiceService) syncSchedule(ctx context.Context, inv *model.Invoice) (*model.PaymentSchedule, error) {
	ps, err := s.loadSchedule(ctx, inv)
	if err != nil {
		return nil, err
	}
	if schedule.Sync(ps, inv) {
		if err := s.repos.Schedules.Update(ctx, ps); err != nil {
			return nil, fmt.Errorf("failed to update payment schedule: %w", err)
		}
	}
	return ps, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, actor Actor, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	var inv *model.Invoice
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		inv, err = s.repos.Invoices.FindByID(txCtx, uid)
		if err != nil {
			return notFound("invoice", err)
		}
		if _, err := lifecycle.Transition(inv.Status, lifecycle.ActionDelete); err != nil {
			return err
		}
		if err := s.repos.Schedules.Delete(txCtx, uid); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("failed to delete payment schedule: %w", err)
		}
		if err := s.repos.Invoices.Delete(txCtx, uid); err != nil {
			return err
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionDeleteInvoice, uid.String(), inv.InvoiceNumber, map[string]string{
			"status": string(inv.Status),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.notifier.Publish(EventInvoiceDeleted, map[string]string{
		"id":             uid.String(),
		"invoice_number": inv.InvoiceNumber,
	})
	return nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string, role string) (InvoiceResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	inv, err := s.repos.Invoices.FindByID(ctx, uid)
	if err != nil {
		return InvoiceResponse{}, notFound("invoice", err)
	}

	vendor, err := s.repos.Vendors.FindByID(ctx, inv.VendorID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return InvoiceResponse{}, err
	}
	ps, err := s.repos.Schedules.FindByInvoiceID(ctx, uid)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return InvoiceResponse{}, err
	}
	return s.toInvoiceResponse(inv, vendor, ps, role), nil
}

func toRepositoryFilter(filter InvoiceListFilter) (repository.InvoiceFilter, error) {
	out := repository.InvoiceFilter{Search: strings.TrimSpace(filter.Search)}
	if filter.Status != "" {
		status, err := lifecycle.ParseStatus(filter.Status)
		if err != nil {
			return out, apperr.Validation("status", "%v", err)
		}
		out.Status = status
	}
	if filter.VendorID != "" {
		vid, err := parseID("vendor_id", filter.VendorID)
		if err != nil {
			return out, err
		}
		out.VendorID = &vid
	}
	var err error
	if out.From, err = optionalDate("from", &filter.From); err != nil {
		return out, err
	}
	if out.To, err = optionalDate("to", &filter.To); err != nil {
		return out, err
	}
	return out, nil
}

// ListInvoices never fails on a dangling vendor reference; such rows come
// back flagged with vendor_missing instead.
func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter, page, limit int) ([]InvoiceResponse, int64, error) {
	rf, err := toRepositoryFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	invoices, total, err := s.repos.Invoices.List(ctx, rf, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	vendors, schedules, err := s.lookups(ctx)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		var vendor *model.Vendor
		if v, ok := vendors[inv.VendorID]; ok {
			vendor = &v
		}
		var ps *model.PaymentSchedule
		if p, ok := schedules[inv.ID]; ok {
			ps = &p
		}
		res = append(res, s.toInvoiceResponse(inv, vendor, ps, filter.Role))
	}
	return res, total, nil
}

func (s *invoiceService) lookups(ctx context.Context) (map[uuid.UUID]model.Vendor, map[uuid.UUID]model.PaymentSchedule, error) {
	vendors, err := s.repos.Vendors.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load vendors: %w", err)
	}
	schedules, err := s.repos.Schedules.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	vm := make(map[uuid.UUID]model.Vendor, len(vendors))
	for _, v := range vendors {
		vm[v.ID] = v
	}
	sm := make(map[uuid.UUID]model.PaymentSchedule, len(schedules))
	for _, ps := range schedules {
		sm[ps.InvoiceID] = ps
	}
	return vm, sm, nil
}

func (s *invoiceService) ListSchedules(ctx context.Context) ([]ScheduleResponse, error) {
	schedules, err := s.repos.Schedules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	invoices, err := s.repos.Invoices.All(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	vendors, _, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Invoice, len(invoices))
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
	}

	today := calendar.Today(s.clock)
	res := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		ps := &schedules[i]
		inv, ok := byID[ps.InvoiceID]
		if !ok {
			continue
		}
		vendor, found := vendors[inv.VendorID]
		row := ScheduleResponse{
			InvoiceID:          inv.ID.String(),
			InvoiceNumber:      inv.InvoiceNumber,
			VendorName:         vendor.Name,
			VendorMissing:      !found,
			InvoiceStatus:      string(inv.Status),
			Amount:             inv.Gross().String(),
			Currency:           inv.Currency,
			PlannedPaymentDate: calendar.Format(ps.PlannedPaymentDate),
			ActualPaymentDate:  calendar.FormatOptional(ps.ActualPaymentDate),
			PaymentStatus:      ps.PaymentStatus,
			Remarks:            ps.Remarks,
			Aging:              toAgingResponse(schedule.AgingOf(inv, ps, today)),
		}
		res = append(res, row)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].PlannedPaymentDate < res[j].PlannedPaymentDate
	})
	return res, nil
}

func toAgingResponse(a schedule.Aging) AgingResponse {
	return AgingResponse{
		Days:      a.Days,
		Text:      a.String(),
		Closed:    a.Closed,
		Estimated: a.Estimated,
		Severity:  string(a.Severity),
	}
}

func (s *invoiceService) toInvoiceResponse(inv *model.Invoice, vendor *model.Vendor, ps *model.PaymentSchedule, role string) InvoiceResponse {
	res := InvoiceResponse{
		ID:                inv.ID.String(),
		VendorID:          inv.VendorID.String(),
		InvoiceNumber:     inv.InvoiceNumber,
		PONumber:          inv.PONumber,
		PODate:            calendar.FormatOptional(inv.PODate),
		DeliveryDate:      calendar.FormatOptional(inv.DeliveryDate),
		InvoiceDate:       calendar.Format(inv.InvoiceDate),
		EntryDate:         calendar.Format(inv.EntryDate),
		TaxInvoiceNumber:  inv.TaxInvoiceNumber,
		TaxInvoiceDate:    calendar.FormatOptional(inv.TaxInvoiceDate),
		DueDate:           calendar.Format(inv.DueDate),
		Amount:            inv.Amount.String(),
		TaxRate:           inv.TaxRate.String(),
		TaxAmount:         inv.TaxAmount.String(),
		TotalAmount:       inv.Gross().String(),
		Currency:          inv.Currency,
		Status:            inv.Status,
		Attestations:      inv.Attestations,
		Attachments:       inv.Attachments,
		RequiresStampDuty: s.rules.Checklist.RequiresStampDuty(inv.Amount),
		AvailableActions:  lifecycle.AvailableActions(inv.Status),
		CanEdit:           lifecycle.CanEdit(inv.Status),
		CanApprove:        s.rules.Policy.CanApprove(inv.Status, role),
		CreatedBy:         inv.CreatedBy,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
	if vendor != nil {
		res.VendorName = vendor.Name
	} else {
		res.VendorMissing = true
	}
	if ps != nil {
		planned := calendar.Format(ps.PlannedPaymentDate)
		res.PlannedPaymentDate = &planned
		res.ActualPaymentDate = calendar.FormatOptional(ps.ActualPaymentDate)
		res.PaymentStatus = ps.PaymentStatus
	}
	res.Aging = toAgingResponse(schedule.AgingOf(inv, ps, calendar.Today(s.clock)))
	return res
}
