package repository

import (
	"context"
	"time"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, db *gorm.DB, payment *entity.Payment) error
	FindByAppointmentAndTransaction(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, transactionID string) (*entity.Payment, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error)
	// FindPendingBefore returns pending payments created before the cutoff, least recently checked first.
	FindPendingBefore(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]entity.Payment, error)
	MarkReconcileChecked(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error
	UpdateResult(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentRecordStatus, receiptURL *string) error
}
