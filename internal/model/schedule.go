package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enum constants
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
)

// PaymentSchedule is owned 1:1 by an invoice and keyed by its id.
type PaymentSchedule struct {
	InvoiceID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"invoice_id"`
	PlannedPaymentDate time.Time  `gorm:"type:date;not null;index" json:"planned_payment_date"`
	ActualPaymentDate  *time.Time `gorm:"type:date" json:"actual_payment_date"`
	PaymentStatus      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"payment_status"`
	Remarks            string     `gorm:"type:text" json:"remarks"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
