package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// --- DTOs ---

type LegalityPayload struct {
	NIB           string `json:"nib"`
	SPPKP         string `json:"sppkp"`
	SKKemenkumham string `json:"sk_kemenkumham"`
}

type CreateVendorRequest struct {
	Code            string          `json:"code" binding:"required"`
	TaxID           string          `json:"tax_id" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	ContactPerson   string          `json:"contact_person"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	BankName        string          `json:"bank_name"`
	BankAccount     string          `json:"bank_account"`
	BankAccountName string          `json:"bank_account_name"`
	PaymentTermDays *int            `json:"payment_term_days"`
	Currency        string          `json:"currency"`
	IsActive        *bool           `json:"is_active"`
	Legality        LegalityPayload `json:"legality"`
}

type UpdateVendorRequest struct {
	Code            *string          `json:"code"`
	TaxID           *string          `json:"tax_id"`
	Name            *string          `json:"name"`
	Address         *string          `json:"address"`
	City            *string          `json:"city"`
	ContactPerson   *string          `json:"contact_person"`
	Email           *string          `json:"email"`
	Phone           *string          `json:"phone"`
	BankName        *string          `json:"bank_name"`
	BankAccount     *string          `json:"bank_account"`
	BankAccountName *string          `json:"bank_account_name"`
	PaymentTermDays *int             `json:"payment_term_days"`
	Currency        *string          `json:"currency"`
	IsActive        *bool            `json:"is_active"`
	Legality        *LegalityPayload `json:"legality"`
}

type VendorResponse struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	TaxID           string          `json:"tax_id"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	ContactPerson   string          `json:"contact_person"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	BankName        string          `json:"bank_name"`
	BankAccount     string          `json:"bank_account"`
	BankAccountName string          `json:"bank_account_name"`
	PaymentTermDays int             `json:"payment_term_days"`
	CycleTerm       bool            `json:"cycle_term"` // paid on the monthly cutoff
	Currency        string          `json:"currency"`
	IsActive        bool            `json:"is_active"`
	Legality        LegalityPayload `json:"legality"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type VendorListFilter struct {
	Search string
	Active *bool
}

// --- Interface ---

type VendorService interface {
	CreateVendor(ctx context.Context, actor Actor, req CreateVendorRequest) (VendorResponse, error)
	UpdateVendor(ctx context.Context, actor Actor, id string, req UpdateVendorRequest) (VendorResponse, error)
	DeleteVendor(ctx context.Context, actor Actor, id string) error
	GetVendor(ctx context.Context, id string) (VendorResponse, error)
	ListVendors(ctx context.Context, filter VendorListFilter, page, limit int) ([]VendorResponse, int64, error)
}

// --- Implementation ---

type vendorService struct {
	repos repository.Set
	rules Rules
	log   zerolog.Logger
}

func NewVendorService(repos repository.Set, rules Rules, log zerolog.Logger) VendorService {
	return &vendorService{repos: repos, rules: rules, log: log}
}

func (s *vendorService) toVendorResponse(v model.Vendor) VendorResponse {
	return VendorResponse{
		ID:              v.ID,
		Code:            v.Code,
		TaxID:           v.TaxID,
		Name:            v.Name,
		Address:         v.Address,
		City:            v.City,
		ContactPerson:   v.ContactPerson,
		Email:           v.Email,
		Phone:           v.Phone,
		BankName:        v.BankName,
		BankAccount:     v.BankAccount,
		BankAccountName: v.BankAccountName,
		PaymentTermDays: v.PaymentTermDays,
		CycleTerm:       s.rules.DueDate.IsCycleCode(v.PaymentTermDays),
		Currency:        v.Currency,
		IsActive:        v.IsActive,
		Legality: LegalityPayload{
			NIB:           v.Legality.NIB,
			SPPKP:         v.Legality.SPPKP,
			SKKemenkumham: v.Legality.SKKemenkumham,
		},
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func (s *vendorService) validate(v *model.Vendor) error {
	v.Code = strings.TrimSpace(v.Code)
	v.TaxID = strings.TrimSpace(v.TaxID)
	v.Name = strings.TrimSpace(v.Name)
	v.Currency = strings.ToUpper(strings.TrimSpace(v.Currency))

	switch {
	case v.Code == "":
		return apperr.Validation("code", "is required")
	case v.TaxID == "":
		return apperr.Validation("tax_id", "is required")
	case v.Name == "":
		return apperr.Validation("name", "is required")
	case v.PaymentTermDays < 0:
		return apperr.Validation("payment_term_days", "must be >= 0")
	case !s.rules.supportsCurrency(v.Currency):
		return apperr.Validation("currency", "unsupported currency %q", v.Currency)
	}
	if v.Email != "" {
		if _, err := mail.ParseAddress(v.Email); err != nil {
			return apperr.Validation("email", "invalid email format")
		}
	}
	return nil
}

// checkUnique enforces tax id and code uniqueness across active and inactive vendors.
func (s *vendorService) checkUnique(ctx context.Context, v *model.Vendor) error {
	if other, err := s.repos.Vendors.FindByTaxID(ctx, v.TaxID); err == nil && other.ID != v.ID {
		return apperr.Validation("tax_id", "tax id %s is already registered to %s", v.TaxID, other.Name)
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if other, err := s.repos.Vendors.FindByCode(ctx, v.Code); err == nil && other.ID != v.ID {
		return apperr.Validation("code", "code %s is already used by %s", v.Code, other.Name)
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return nil
}

func (s *vendorService) CreateVendor(ctx context.Context, actor Actor, req CreateVendorRequest) (VendorResponse, error) {
	vendor := &model.Vendor{
		ID:              uuid.New(),
		Code:            req.Code,
		TaxID:           req.TaxID,
		Name:            req.Name,
		Address:         req.Address,
		City:            req.City,
		ContactPerson:   req.ContactPerson,
		Email:           req.Email,
		Phone:           req.Phone,
		BankName:        req.BankName,
		BankAccount:     req.BankAccount,
		BankAccountName: req.BankAccountName,
		PaymentTermDays: 30,
		Currency:        req.Currency,
		IsActive:        true,
		Legality: model.VendorLegality{
			NIB:           req.Legality.NIB,
			SPPKP:         req.Legality.SPPKP,
			SKKemenkumham: req.Legality.SKKemenkumham,
		},
	}
	if req.PaymentTermDays != nil {
		vendor.PaymentTermDays = *req.PaymentTermDays
	}
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}
	if vendor.Currency == "" {
		vendor.Currency = s.rules.Normalizer.ReportingCurrency()
	}
	if err := s.validate(vendor); err != nil {
		return VendorResponse{}, err
	}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkUnique(txCtx, vendor); err != nil {
			return err
		}
		if err := s.repos.Vendors.Create(txCtx, vendor); err != nil {
			return duplicate("vendor", err)
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionCreateVendor, vendor.ID.String(), vendor.Name, req)
	})
	if err != nil {
		return VendorResponse{}, fmt.Errorf("failed to create vendor: %w", err)
	}

	s.log.Info().Str("vendor", vendor.Code).Msg("vendor created")
	return s.toVendorResponse(*vendor), nil
}

func (s *vendorService) UpdateVendor(ctx context.Context, actor Actor, id string, req UpdateVendorRequest) (VendorResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return VendorResponse{}, err
	}

	var vendor *model.Vendor
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		vendor, err = s.repos.Vendors.FindByID(txCtx, uid)
		if err != nil {
			return notFound("vendor", err)
		}

		setString := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		setString(&vendor.Code, req.Code)
		setString(&vendor.TaxID, req.TaxID)
		setString(&vendor.Name, req.Name)
		setString(&vendor.Address, req.Address)
		setString(&vendor.City, req.City)
		setString(&vendor.ContactPerson, req.ContactPerson)
		setString(&vendor.Email, req.Email)
		setString(&vendor.Phone, req.Phone)
		setString(&vendor.BankName, req.BankName)
		setString(&vendor.BankAccount, req.BankAccount)
		setString(&vendor.BankAccountName, req.BankAccountName)
		setString(&vendor.Currency, req.Currency)
		if req.PaymentTermDays != nil {
			vendor.PaymentTermDays = *req.PaymentTermDays
		}
		if req.IsActive != nil {
			vendor.IsActive = *req.IsActive
		}
		if req.Legality != nil {
			vendor.Legality = model.VendorLegality{
				NIB:           req.Legality.NIB,
				SPPKP:         req.Legality.SPPKP,
				SKKemenkumham: req.Legality.SKKemenkumham,
			}
		}

		if err := s.validate(vendor); err != nil {
			return err
		}
		if err := s.checkUnique(txCtx, vendor); err != nil {
			return err
		}
		if err := s.repos.Vendors.Update(txCtx, vendor); err != nil {
			return duplicate("vendor", err)
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionUpdateVendor, vendor.ID.String(), vendor.Name, req)
	})
	if err != nil {
		return VendorResponse{}, fmt.Errorf("failed to update vendor: %w", err)
	}
	return s.toVendorResponse(*vendor), nil
}

// DeleteVendor hard-deletes a vendor. Vendors still referenced by invoices
// are refused rather than leaving the invoices dangling.
func (s *vendorService) DeleteVendor(ctx context.Context, actor Actor, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		vendor, err := s.repos.Vendors.FindByID(txCtx, uid)
		if err != nil {
			return notFound("vendor", err)
		}
		count, err := s.repos.Invoices.CountByVendor(txCtx, uid)
		if err != nil {
			return err
		}
		if count > 0 {
			return &apperr.ReferentialError{
				Entity:  "vendor",
				ID:      uid.String(),
				Message: fmt.Sprintf("%d invoice(s) still reference it", count),
			}
		}
		if err := s.repos.Vendors.Delete(txCtx, uid); err != nil {
			return err
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionDeleteVendor, uid.String(), vendor.Name, map[string]string{"code": vendor.Code})
	})
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	return nil
}

func (s *vendorService) GetVendor(ctx context.Context, id string) (VendorResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return VendorResponse{}, err
	}
	vendor, err := s.repos.Vendors.FindByID(ctx, uid)
	if err != nil {
		return VendorResponse{}, notFound("vendor", err)
	}
	return s.toVendorResponse(*vendor), nil
}

func (s *vendorService) ListVendors(ctx context.Context, filter VendorListFilter, page, limit int) ([]VendorResponse, int64, error) {
	vendors, total, err := s.repos.Vendors.List(ctx, repository.VendorFilter{
		Search: strings.TrimSpace(filter.Search),
		Active: filter.Active,
	}, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendors: %w", err)
	}

	res := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		res = append(res, s.toVendorResponse(v))
	}
	return res, total, nil
}
