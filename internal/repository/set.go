package repository

import "gorm.io/gorm"

// Set bundles every repository of one backend together with its
// transaction manager.
type Set struct {
	Tx        TransactionManager
	Vendors   VendorRepository
	Invoices  InvoiceRepository
	Schedules ScheduleRepository
	Audit     AuditRepository
	Users     UserRepository
}

// NewGormSet wires the postgres-backed repositories.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Tx:        NewTransactionManager(db),
		Vendors:   NewVendorRepository(db),
		Invoices:  NewInvoiceRepository(db),
		Schedules: NewScheduleRepository(db),
		Audit:     NewAuditRepository(db),
		Users:     NewUserRepository(db),
	}
}
