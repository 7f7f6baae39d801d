package repository

import (
	"context"
	"time"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	// FindActiveByPatientSlot returns the patient's pending or confirmed appointment at date+slot, if any.
	FindActiveByPatientSlot(ctx context.Context, db *gorm.DB, patientID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error)
	// IsSlotTaken reports whether a non-cancelled appointment holds (doctor, date, slot).
	IsSlotTaken(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (bool, error)
	FindBookedSlots(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) error
	UpdatePaymentState(ctx context.Context, db *gorm.DB, id uuid.UUID, paymentStatus entity.PaymentStatus, status entity.AppointmentStatus) error
	// Cancel atomically cancels unless already cancelled or completed; returns affected rows.
	Cancel(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
}
