package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateVendor = "CREATE_VENDOR"
	ActionUpdateVendor = "UPDATE_VENDOR"
	ActionDeleteVendor = "DELETE_VENDOR"

	ActionCreateInvoice = "CREATE_INVOICE"
	ActionUpdateInvoice = "UPDATE_INVOICE"
	ActionDeleteInvoice = "DELETE_INVOICE"
	ActionImportInvoice = "IMPORT_INVOICE"
	ActionAttachInvoice = "ATTACH_INVOICE_DOCUMENT"

	// Lifecycle actions are logged as INVOICE_<ACTION>, e.g. INVOICE_APPROVE.
	ActionInvoicePrefix = "INVOICE_"

	ActionCreateUser = "CREATE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for imports run from the CLI
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
