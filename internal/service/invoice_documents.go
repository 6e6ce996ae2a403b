package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"aptracker/internal/apperr"
	"aptracker/internal/checklist"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/storage"
)

func parseDocument(kind string) (checklist.Document, error) {
	doc := checklist.Document(strings.ToLower(strings.TrimSpace(kind)))
	if !doc.IsValid() {
		return "", apperr.Validation("kind", "unknown document %q", kind)
	}
	return doc, nil
}

// AttachDocument fills a document slot. With an object store the file is
// uploaded and its key recorded; without one only the file name is kept.
func (s *invoiceService) AttachDocument(ctx context.Context, actor Actor, id, kind, fileName string, body io.Reader, contentType string) (InvoiceResponse, error) {
	doc, err := parseDocument(kind)
	if err != nil {
		return InvoiceResponse{}, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return InvoiceResponse{}, apperr.Validation("file", "file name is required")
	}
	uid, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	inv, err := s.repos.Invoices.FindByID(ctx, uid)
	if err != nil {
		return InvoiceResponse{}, notFound("invoice", err)
	}
	if !lifecycle.CanEdit(inv.Status) {
		return InvoiceResponse{}, apperr.ErrLocked
	}

	ref := fileName
	if s.store != nil && body != nil {
		key := storage.AttachmentKey(uid, string(doc), fileName)
		if err := s.store.Put(ctx, key, body, contentType); err != nil {
			return InvoiceResponse{}, fmt.Errorf("failed to store %s: %w", doc, err)
		}
		ref = key
	}

	var (
		vendor *model.Vendor
		ps     *model.PaymentSchedule
	)
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		// re-read under the transaction; the status may have moved during upload
		inv, err = s.repos.Invoices.FindByID(txCtx, uid)
		if err != nil {
			return notFound("invoice", err)
		}
		if !lifecycle.CanEdit(inv.Status) {
			return apperr.ErrLocked
		}
		inv.Attachments.Set(doc, ref)
		if err := s.repos.Invoices.Update(txCtx, inv); err != nil {
			return err
		}
		if vendor, err = s.resolveVendor(txCtx, inv.VendorID); err != nil {
			return err
		}
		if ps, err = s.loadSchedule(txCtx, inv); err != nil {
			return err
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionAttachInvoice, inv.ID.String(), inv.InvoiceNumber, map[string]string{
			"document": string(doc),
			"file":     fileName,
		})
	})
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to attach document: %w", err)
	}

	res := s.toInvoiceResponse(inv, vendor, ps, actor.Role)
	s.notifier.Publish(EventInvoiceUpdated, res)
	return res, nil
}

// DocumentURL returns a download link for a stored attachment.
func (s *invoiceService) DocumentURL(ctx context.Context, id, kind string) (string, error) {
	doc, err := parseDocument(kind)
	if err != nil {
		return "", err
	}
	uid, err := parseID("id", id)
	if err != nil {
		return "", err
	}
	inv, err := s.repos.Invoices.FindByID(ctx, uid)
	if err != nil {
		return "", notFound("invoice", err)
	}
	ref := inv.Attachments.Get(doc)
	if ref == "" {
		return "", fmt.Errorf("%s attachment %w", doc, apperr.ErrNotFound)
	}
	if s.store == nil {
		return "", apperr.Validation("kind", "%s was recorded by name only and has no stored file", doc)
	}
	return s.store.URL(ctx, ref)
}
