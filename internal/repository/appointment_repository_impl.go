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

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

// Create relies on idx_appointments_active_slot: a concurrent insert for the same
// (doctor, date, slot) fails with a unique violation instead of double-booking.
func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Preload("Doctor.User").Preload("Doctor.Category").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Preload("Patient").
		Where("doctor_id = ?", doctorID).
		Order("date ASC, slot ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindActiveByPatientSlot(ctx context.Context, db *gorm.DB, patientID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Where("patient_id = ? AND date = ? AND slot = ? AND status IN ?", patientID, date, slot,
			[]entity.AppointmentStatus{entity.AppointmentStatusPending, entity.AppointmentStatusConfirmed}).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("doctor_id = ? AND date = ? AND slot = ? AND status != ?", doctorID, date, slot, entity.AppointmentStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *appointmentRepository) FindBookedSlots(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var slots []string
	err := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("doctor_id = ? AND date = ? AND status != ?", doctorID, date, entity.AppointmentStatusCancelled).
		Pluck("slot", &slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) error {
	return db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *appointmentRepository) UpdatePaymentState(ctx context.Context, db *gorm.DB, id uuid.UUID, paymentStatus entity.PaymentStatus, status entity.AppointmentStatus) error {
	return db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": paymentStatus,
			"status":         status,
		}).Error
}

// Cancel only touches rows that are neither cancelled nor completed, so a concurrent
// completion cannot be overwritten.
func (r *appointmentRepository) Cancel(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status NOT IN ?", id,
			[]entity.AppointmentStatus{entity.AppointmentStatusCancelled, entity.AppointmentStatusCompleted}).
		Update("status", entity.AppointmentStatusCancelled)
	return result.RowsAffected, result.Error
}
