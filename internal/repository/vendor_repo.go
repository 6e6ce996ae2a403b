package repository

import (
	"context"
	"strings"

	"aptracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorFilter struct {
	Search string // name, code or tax id
	Active *bool
}

type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	Update(ctx context.Context, vendor *model.Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	FindByTaxID(ctx context.Context, taxID string) (*model.Vendor, error)
	FindByCode(ctx context.Context, code string) (*model.Vendor, error)
	// FindByName matches the full name case-insensitively.
	FindByName(ctx context.Context, name string) (*model.Vendor, error)
	List(ctx context.Context, filter VendorFilter, page, limit int) ([]model.Vendor, int64, error)
	All(ctx context.Context) ([]model.Vendor, error)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return translate(GetDB(ctx, r.db).Create(vendor).Error)
}

func (r *vendorRepository) Update(ctx context.Context, vendor *model.Vendor) error {
	return translate(GetDB(ctx, r.db).Save(vendor).Error)
}

func (r *vendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Vendor{}).Error)
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *vendorRepository) FindByTaxID(ctx context.Context, taxID string) (*model.Vendor, error) {
	return r.findOne(ctx, "tax_id = ?", taxID)
}

func (r *vendorRepository) FindByCode(ctx context.Context, code string) (*model.Vendor, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *vendorRepository) FindByName(ctx context.Context, name string) (*model.Vendor, error) {
	return r.findOne(ctx, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
}

func (r *vendorRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).Where(query, args...).First(&vendor).Error; err != nil {
		return nil, translate(err)
	}
	return &vendor, nil
}

func (r *vendorRepository) scoped(db *gorm.DB, filter VendorFilter) *gorm.DB {
	query := db.Model(&model.Vendor{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ? OR tax_id ILIKE ?", like, like, like)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	return query
}

func (r *vendorRepository) List(ctx context.Context, filter VendorFilter, page, limit int) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64

	db := GetDB(ctx, r.db)
	if err := r.scoped(db, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.scoped(db, filter).Order("name ASC").Offset(offset).Limit(limit).Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

func (r *vendorRepository) All(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}
