package repository

import (
	"context"
	"time"

	"aptracker/internal/lifecycle"
	"aptracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceFilter narrows invoice listings. Zero values mean "any".
type InvoiceFilter struct {
	Search   string // invoice number, PO number or vendor name
	Status   lifecycle.Status
	VendorID *uuid.UUID
	From     *time.Time // invoice date, inclusive
	To       *time.Time // invoice date, inclusive
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error)
	// All returns every matching invoice without pagination, newest entry first.
	All(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	CountByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return translate(GetDB(ctx, r.db).Create(invoice).Error)
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return translate(GetDB(ctx, r.db).Save(invoice).Error)
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Invoice{}).Error)
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "invoice_number = ?", number).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) scoped(db *gorm.DB, filter InvoiceFilter) *gorm.DB {
	query := db.Model(&model.Invoice{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Joins("LEFT JOIN vendors ON vendors.id = invoices.vendor_id").
			Where("invoices.invoice_number ILIKE ? OR invoices.po_number ILIKE ? OR vendors.name ILIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("invoices.status = ?", filter.Status)
	}
	if filter.VendorID != nil {
		query = query.Where("invoices.vendor_id = ?", *filter.VendorID)
	}
	if filter.From != nil {
		query = query.Where("invoices.invoice_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("invoices.invoice_date <= ?", *filter.To)
	}
	return query
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := r.scoped(db, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.scoped(db, filter).Order("invoices.entry_date DESC, invoices.created_at DESC").
		Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) All(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := r.scoped(GetDB(ctx, r.db), filter).
		Order("invoices.entry_date DESC, invoices.created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) CountByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("vendor_id = ?", vendorID).Count(&count).Error
	return count, err
}
