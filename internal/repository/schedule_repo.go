package repository

import (
	"context"

	"aptracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleRepository stores payment schedules keyed by invoice id.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.PaymentSchedule) error
	Update(ctx context.Context, schedule *model.PaymentSchedule) error
	Delete(ctx context.Context, invoiceID uuid.UUID) error
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentSchedule, error)
	List(ctx context.Context) ([]model.PaymentSchedule, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.PaymentSchedule) error {
	return translate(GetDB(ctx, r.db).Create(schedule).Error)
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.PaymentSchedule) error {
	return translate(GetDB(ctx, r.db).Save(schedule).Error)
}

func (r *scheduleRepository) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Where("invoice_id = ?", invoiceID).Delete(&model.PaymentSchedule{}).Error)
}

func (r *scheduleRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentSchedule, error) {
	var schedule model.PaymentSchedule
	if err := GetDB(ctx, r.db).First(&schedule, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, translate(err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]model.PaymentSchedule, error) {
	var schedules []model.PaymentSchedule
	if err := GetDB(ctx, r.db).Order("planned_payment_date ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
