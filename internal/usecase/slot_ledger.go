package usecase

import (
	"context"
	"time"

	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound       = apperror.New(apperror.NotFound, "Doctor not found")
	ErrSlotUnavailable      = apperror.New(apperror.InvalidArgument, "Selected slot is not available")
	ErrSlotAlreadyBooked    = apperror.New(apperror.Conflict, "Slot already booked")
	ErrDuplicateAppointment = apperror.New(apperror.Conflict, "You already have an appointment at this date and slot")
)

// activeSlotIndex is the partial unique index on (doctor_id, date, slot) for non-cancelled rows.
const activeSlotIndex = "active_slot"

// SlotLedger answers which (doctor, date, slot) triples are free. Its checks are advisory;
// the unique index decides between concurrent bookings, see IsSlotConflict.
type SlotLedger struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
	slotCache       service.SlotCache
}

func NewSlotLedger(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	slotCache service.SlotCache,
) *SlotLedger {
	return &SlotLedger{
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		slotCache:       slotCache,
	}
}

// CheckBookable returns the doctor when patientID may book slot on date.
//
// Fails with:
//   - ErrDoctorNotFound if the doctor has no profile
//   - ErrSlotUnavailable if slot is not one of the doctor's configured labels
//   - ErrDuplicateAppointment if the patient holds a pending/confirmed appointment at date+slot
//   - ErrSlotAlreadyBooked if a non-cancelled appointment holds the triple
func (l *SlotLedger) CheckBookable(ctx context.Context, db *gorm.DB, patientID, doctorID uuid.UUID, date time.Time, slot string) (*entity.DoctorProfile, error) {
	doctor, err := l.Doctor(ctx, db, doctorID)
	if err != nil {
		return nil, err
	}

	if !doctor.OffersSlot(slot) {
		return nil, ErrSlotUnavailable
	}

	existing, err := l.appointmentRepo.FindActiveByPatientSlot(ctx, db, patientID, date, slot)
	if err != nil {
		l.log.Warnf("Failed to check existing appointment for patient %s: %+v", patientID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAppointment
	}

	taken, err := l.appointmentRepo.IsSlotTaken(ctx, db, doctorID, date, slot)
	if err != nil {
		l.log.Warnf("Failed to check slot %s for doctor %s: %+v", slot, doctorID, err)
		return nil, err
	}
	if taken {
		return nil, ErrSlotAlreadyBooked
	}

	return doctor, nil
}

// Doctor returns the profile owned by doctorID, or ErrDoctorNotFound.
func (l *SlotLedger) Doctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	doctor, err := l.doctorRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		l.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}

// IsSlotConflict reports whether err is a lost race on the active slot index.
func (l *SlotLedger) IsSlotConflict(err error) bool {
	return apperror.IsUniqueViolation(err, activeSlotIndex)
}

// BookedSlots returns the slots held by non-cancelled appointments, read through the slot cache.
func (l *SlotLedger) BookedSlots(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return l.slotCache.BookedSlots(ctx, doctorID, date, func(ctx context.Context) ([]string, error) {
		return l.appointmentRepo.FindBookedSlots(ctx, db, doctorID, date)
	})
}

// Release drops cached availability after a committed change to (doctor, date).
func (l *SlotLedger) Release(ctx context.Context, doctorID uuid.UUID, date time.Time) {
	l.slotCache.Invalidate(ctx, doctorID, date)
}
