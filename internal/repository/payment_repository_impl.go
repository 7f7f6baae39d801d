package repository

import (
	"context"
	"errors"
	"time"

	"doctor-appointment-api/internal/domain/entity"
	domainRepo "doctor-appointment-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type paymentRepository struct{}

func NewPaymentRepository() domainRepo.PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Create(ctx context.Context, db *gorm.DB, payment *entity.Payment) error {
	return db.WithContext(ctx).Omit("Appointment").Create(payment).Error
}

func (r *paymentRepository) FindByAppointmentAndTransaction(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, transactionID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := db.WithContext(ctx).
		Where("appointment_id = ? AND transaction_id = ?", appointmentID, transactionID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByPatientID joins through appointments so only the patient's own payments are returned,
// with the doctor preloaded for fee/specialization context.
func (r *paymentRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := db.WithContext(ctx).
		Joins("JOIN appointments ON appointments.id = payments.appointment_id").
		Where("appointments.patient_id = ?", patientID).
		Preload("Appointment.Doctor.User").
		Order("payments.created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) FindPendingBefore(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := db.WithContext(ctx).
		Preload("Appointment").
		Where("status = ? AND transaction_id IS NOT NULL AND created_at < ?", entity.PaymentRecordPending, before).
		Order("reconciled_at ASC NULLS FIRST, created_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkReconcileChecked moves the rows behind everything not yet checked, so rows the provider
// keeps non-terminal cannot hold the batch.
func (r *paymentRepository) MarkReconcileChecked(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&entity.Payment{}).
		Where("id IN ?", ids).
		UpdateColumn("reconciled_at", at).Error
}

func (r *paymentRepository) UpdateResult(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentRecordStatus, receiptURL *string) error {
	updates := map[string]interface{}{"status": status}
	if receiptURL != nil {
		updates["receipt_url"] = *receiptURL
	}
	return db.WithContext(ctx).Model(&entity.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
