package usecase

import (
	"context"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound      = apperror.New(apperror.NotFound, "Appointment not found")
	ErrInvalidAppointmentStatus = apperror.New(apperror.InvalidArgument, "Invalid status, must be one of: pending, confirmed, cancelled, completed")
	ErrAppointmentCompleted     = apperror.New(apperror.InvalidState, "Completed appointments cannot be cancelled")
	ErrInvalidDoctorID          = apperror.New(apperror.InvalidArgument, "Invalid doctor ID")
	ErrInvalidDateFormat        = apperror.New(apperror.InvalidArgument, "Invalid date format, use YYYY-MM-DD")
)

const appointmentEntity = "appointment"

type AppointmentUsecase interface {
	Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	GetMyAppointments(ctx context.Context) ([]dto.AppointmentResponse, error)
	GetDoctorAppointments(ctx context.Context) ([]dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	slotLedger      *SlotLedger
	auditService    service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	slotLedger *SlotLedger,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		slotLedger:      slotLedger,
		auditService:    auditService,
	}
}

// Book creates a pending appointment for the calling patient.
//
// Flow:
// 1. Slot ledger checks (doctor exists, slot offered, no duplicate, slot free)
// 2. Insert appointment; a concurrent booking of the same triple loses on the unique index
// 3. Audit, commit, then drop cached availability
func (u *appointmentUsecase) Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrInvalidDoctorID
	}
	date, err := entity.ParseAppointmentDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	// Step 1: Slot ledger
	doctor, err := u.slotLedger.CheckBookable(ctx, tx, principal.UserID, doctorID, date, req.Slot)
	if err != nil {
		return nil, err
	}

	// Step 2: Insert
	appointment := &entity.Appointment{
		PatientID:     principal.UserID,
		DoctorID:      doctorID,
		Date:          date,
		Slot:          req.Slot,
		Status:        entity.AppointmentStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}
	if err := u.appointmentRepo.Create(ctx, tx, appointment); err != nil {
		if u.slotLedger.IsSlotConflict(err) {
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	// Step 3: Audit + commit
	if err := u.auditService.LogCreate(ctx, tx, &principal.UserID, entity.AuditActionAppointmentBook,
		appointmentEntity, appointment.ID.String(), appointmentSnapshot(appointment)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		if u.slotLedger.IsSlotConflict(err) {
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.slotLedger.Release(ctx, doctorID, date)
	u.log.Infof("Appointment booked: id=%s, doctor=%s, date=%s, slot=%s", appointment.ID, doctorID, req.Date, req.Slot)

	appointment.Doctor = *doctor
	return converter.AppointmentToResponse(appointment), nil
}

// GetMyAppointments returns all appointments of the calling patient
func (u *appointmentUsecase) GetMyAppointments(ctx context.Context) ([]dto.AppointmentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	appointments, err := u.appointmentRepo.FindByPatientID(ctx, u.db, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", principal.UserID, err)
		return nil, err
	}

	return converter.AppointmentsToResponses(appointments), nil
}

// GetDoctorAppointments returns the calling doctor's appointments ordered by date, then slot
func (u *appointmentUsecase) GetDoctorAppointments(ctx context.Context) ([]dto.AppointmentResponse, error) {
	principal, err := authz.RequireDoctor(ctx)
	if err != nil {
		return nil, err
	}

	// A doctor account without a profile has no schedule to list.
	if _, err := u.slotLedger.Doctor(ctx, u.db, principal.UserID); err != nil {
		return nil, err
	}

	appointments, err := u.appointmentRepo.FindByDoctorID(ctx, u.db, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", principal.UserID, err)
		return nil, err
	}

	return converter.AppointmentsToResponses(appointments), nil
}

// UpdateStatus sets any of the four statuses on an appointment of the calling doctor.
// There is no transition graph; moving a cancelled appointment back onto a slot that was
// rebooked fails on the unique index.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	principal, err := authz.RequireDoctor(ctx)
	if err != nil {
		return nil, err
	}

	if !entity.IsValidAppointmentStatus(req.Status) {
		return nil, ErrInvalidAppointmentStatus
	}
	newStatus := entity.AppointmentStatus(req.Status)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.findAppointment(ctx, tx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := authz.RequireOwner(principal, appointment.DoctorID); err != nil {
		return nil, err
	}

	oldStatus := appointment.Status
	if oldStatus == newStatus {
		return converter.AppointmentToResponse(appointment), nil
	}

	if err := u.appointmentRepo.UpdateStatus(ctx, tx, appointment.ID, newStatus); err != nil {
		if u.slotLedger.IsSlotConflict(err) {
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to update appointment %s status: %+v", appointment.ID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &principal.UserID, entity.AuditActionAppointmentStatus,
		appointmentEntity, appointment.ID.String(), string(oldStatus), string(newStatus)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.slotLedger.Release(ctx, appointment.DoctorID, appointment.Date)
	u.log.Infof("Appointment %s status changed: %s -> %s", appointment.ID, oldStatus, newStatus)

	appointment.Status = newStatus
	return converter.AppointmentToResponse(appointment), nil
}

// Cancel cancels an appointment of the calling patient. Cancelling an already cancelled
// appointment succeeds without writing; completed appointments cannot be cancelled.
func (u *appointmentUsecase) Cancel(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.findAppointment(ctx, tx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := authz.RequireOwner(principal, appointment.PatientID); err != nil {
		return nil, err
	}

	if appointment.IsCompleted() {
		return nil, ErrAppointmentCompleted
	}
	if appointment.IsCancelled() {
		return converter.AppointmentToResponse(appointment), nil
	}

	affected, err := u.appointmentRepo.Cancel(ctx, tx, appointment.ID)
	if err != nil {
		u.log.Warnf("Failed to cancel appointment %s: %+v", appointment.ID, err)
		return nil, err
	}
	if affected == 0 {
		// Completed or cancelled concurrently; report whichever won.
		current, err := u.findAppointment(ctx, tx, appointment.ID)
		if err != nil {
			return nil, err
		}
		if current.IsCompleted() {
			return nil, ErrAppointmentCompleted
		}
		return converter.AppointmentToResponse(current), nil
	}

	if err := u.auditService.LogUpdate(ctx, tx, &principal.UserID, entity.AuditActionAppointmentCancel,
		appointmentEntity, appointment.ID.String(), string(appointment.Status), string(entity.AppointmentStatusCancelled)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.slotLedger.Release(ctx, appointment.DoctorID, appointment.Date)
	u.log.Infof("Appointment %s cancelled by patient %s", appointment.ID, principal.UserID)

	appointment.Status = entity.AppointmentStatusCancelled
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) findAppointment(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

func appointmentSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"patient_id":     a.PatientID.String(),
		"doctor_id":      a.DoctorID.String(),
		"date":           a.DateString(),
		"slot":           a.Slot,
		"status":         string(a.Status),
		"payment_status": string(a.PaymentStatus),
	}
}
