package service

import (
	"context"
	"errors"
	"fmt"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/checklist"
	"aptracker/internal/duedate"
	"aptracker/internal/lifecycle"
	"aptracker/internal/metrics"
	"aptracker/internal/model"
	"aptracker/internal/schedule"
)

// PreviewChecklist evaluates a draft payload. A non-positive amount is
// rejected outright instead of being reported as a failing check.
func (s *invoiceService) PreviewChecklist(ctx context.Context, req ChecklistRequest) (checklist.Result, error) {
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return checklist.Result{}, err
	}
	if !amount.IsPositive() {
		return checklist.Result{}, apperr.Validation("amount", "must be greater than zero")
	}
	rate, err := parseAmount("tax_rate", req.TaxRate)
	if err != nil {
		return checklist.Result{}, err
	}

	in := checklist.Input{
		Amount:       amount,
		TaxRate:      rate,
		Attestations: req.Attestations,
		Documents:    make(map[checklist.Document]bool, len(req.Documents)),
	}
	if in.PODate, err = optionalDate("po_date", req.PODate); err != nil {
		return checklist.Result{}, err
	}
	if in.DeliveryDate, err = optionalDate("delivery_date", req.DeliveryDate); err != nil {
		return checklist.Result{}, err
	}
	if in.InvoiceDate, err = optionalDate("invoice_date", req.InvoiceDate); err != nil {
		return checklist.Result{}, err
	}
	if in.TaxInvoiceDate, err = optionalDate("tax_invoice_date", req.TaxInvoiceDate); err != nil {
		return checklist.Result{}, err
	}
	for _, doc := range req.Documents {
		if !doc.IsValid() {
			return checklist.Result{}, apperr.Validation("documents", "unknown document %q", doc)
		}
		in.Documents[doc] = true
	}
	return s.rules.Checklist.Evaluate(in), nil
}

// ApplyAction moves an invoice along the lifecycle. The invoice and its
// schedule are written in the same transaction.
func (s *invoiceService) ApplyAction(ctx context.Context, actor Actor, id string, req ActionRequest) (InvoiceResponse, error) {
	action, err := lifecycle.ParseAction(req.Action)
	if err != nil {
		return InvoiceResponse{}, apperr.Validation("action", "%v", err)
	}
	if s.rules.Policy.RequiresApprover(action) && !s.rules.Policy.IsApprover(actor.Role) {
		return InvoiceResponse{}, fmt.Errorf("%s requires role %s: %w", action, s.rules.Policy.ApproverRole, apperr.ErrForbidden)
	}
	if action == lifecycle.ActionDelete {
		res, err := s.GetInvoice(ctx, id, actor.Role)
		if err != nil {
			return InvoiceResponse{}, err
		}
		return res, s.DeleteInvoice(ctx, actor, id)
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		return InvoiceResponse{}, err
	}
	uid, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var (
		inv    *model.Invoice
		ps     *model.PaymentSchedule
		from   lifecycle.Status
		vendor *model.Vendor
	)
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		inv, err = s.repos.Invoices.FindByID(txCtx, uid)
		if err != nil {
			return notFound("invoice", err)
		}
		from = inv.Status
		next, err := lifecycle.Transition(inv.Status, action)
		if err != nil {
			return err
		}
		vendor, err = s.resolveVendor(txCtx, inv.VendorID)
		if err != nil {
			return err
		}

		if action == lifecycle.ActionSubmit {
			if err := s.rules.Checklist.Evaluate(inv.ChecklistInput()).Err(); err != nil {
				return err
			}
		}

		ps, err = s.loadSchedule(txCtx, inv)
		if err != nil {
			return err
		}
		switch action {
		case lifecycle.ActionSchedule:
			if date != nil {
				schedule.Reschedule(ps, *date, req.Remarks)
			} else if req.Remarks != "" {
				ps.Remarks = req.Remarks
			}
		case lifecycle.ActionPay:
			paidOn := calendar.Today(s.clock)
			if date != nil {
				paidOn = *date
			}
			schedule.MarkPaid(ps, paidOn, req.Remarks)
		}
		inv.Status = next
		ps.PaymentStatus = schedule.StatusFor(next)

		if err := s.repos.Invoices.Update(txCtx, inv); err != nil {
			return err
		}
		if err := s.repos.Schedules.Update(txCtx, ps); err != nil {
			return fmt.Errorf("failed to update payment schedule: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionInvoicePrefix+string(action), inv.ID.String(), inv.InvoiceNumber, map[string]interface{}{
			"from":    from,
			"to":      next,
			"date":    calendar.FormatPtr(date),
			"remarks": req.Remarks,
		})
	})
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to %s invoice: %w", action, err)
	}

	metrics.InvoiceTransitions.WithLabelValues(string(action), string(inv.Status)).Inc()
	s.log.Debug().
		Str("invoice", inv.InvoiceNumber).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(inv.Status)).
		Str("actor", actor.Label()).
		Msg("invoice transitioned")

	res := s.toInvoiceResponse(inv, vendor, ps, actor.Role)
	s.notifier.Publish(EventInvoiceTransitioned, res)
	return res, nil
}

// PreviewDueDate runs the due-date engine without touching any invoice. A
// missing anchor date is reported in the response, not as an error.
func (s *invoiceService) PreviewDueDate(ctx context.Context, req DueDateRequest) (DueDateResponse, error) {
	var term int
	switch {
	case req.TermCode != nil:
		term = *req.TermCode
	case req.VendorID != "":
		vid, err := parseID("vendor_id", req.VendorID)
		if err != nil {
			return DueDateResponse{}, err
		}
		vendor, err := s.resolveVendor(ctx, vid)
		if err != nil {
			return DueDateResponse{}, err
		}
		term = vendor.PaymentTermDays
	default:
		return DueDateResponse{}, apperr.Validation("term_code", "term_code or vendor_id is required")
	}
	if term < 0 {
		return DueDateResponse{}, apperr.Validation("term_code", "must be >= 0")
	}

	entry, err := optionalDate("entry_date", req.EntryDate)
	if err != nil {
		return DueDateResponse{}, err
	}
	invoiceDate, err := optionalDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return DueDateResponse{}, err
	}

	res := DueDateResponse{TermCode: term, CycleTerm: s.rules.DueDate.IsCycleCode(term)}
	due, err := s.rules.DueDate.DueDate(entry, invoiceDate, term)
	if errors.Is(err, duedate.ErrNoAnchorDate) {
		res.Reason = err.Error()
		return res, nil
	}
	if err != nil {
		return DueDateResponse{}, err
	}
	res.DueDate = calendar.FormatOptional(&due)
	return res, nil
}
