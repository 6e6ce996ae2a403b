package model

import (
	"time"

	"github.com/google/uuid"
)

// VendorLegality holds references to the vendor's registration documents.
type VendorLegality struct {
	NIB           string `gorm:"type:varchar(50)" json:"nib"`             // business registration number
	SPPKP         string `gorm:"type:varchar(100)" json:"sppkp"`          // VAT-registered entrepreneur certificate
	SKKemenkumham string `gorm:"type:varchar(100)" json:"sk_kemenkumham"` // deed of establishment approval
}

// Vendor is a payee. Deletion is a hard delete.
type Vendor struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	TaxID           string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"tax_id"` // NPWP, unique across active and inactive vendors
	Name            string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Address         string         `gorm:"type:text" json:"address"`
	City            string         `gorm:"type:varchar(100)" json:"city"`
	ContactPerson   string         `gorm:"type:varchar(255)" json:"contact_person"`
	Email           string         `gorm:"type:varchar(255)" json:"email"`
	Phone           string         `gorm:"type:varchar(50)" json:"phone"`
	BankName        string         `gorm:"type:varchar(100)" json:"bank_name"`
	BankAccount     string         `gorm:"type:varchar(100)" json:"bank_account"`
	BankAccountName string         `gorm:"type:varchar(255)" json:"bank_account_name"`
	PaymentTermDays int            `gorm:"not null;default:30" json:"payment_term_days"` // term code, see duedate.Rules
	Currency        string         `gorm:"type:varchar(3);not null;default:'IDR'" json:"currency"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	Legality        VendorLegality `gorm:"embedded;embeddedPrefix:legal_" json:"legality"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
