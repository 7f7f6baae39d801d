package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"doctor-appointment-api/config"
	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidAppointmentID = apperror.New(apperror.InvalidArgument, "Invalid appointment ID")
	ErrAlreadyPaid          = apperror.New(apperror.InvalidState, "Appointment is already paid")
	ErrAppointmentCancelled = apperror.New(apperror.InvalidState, "Cancelled appointments cannot be paid")
	ErrPaymentNotFound      = apperror.New(apperror.NotFound, "Payment not found")
	ErrDuplicateSuccess     = apperror.New(apperror.Conflict, "Appointment already has a successful payment")
)

// successfulPaymentIndex allows at most one success row per appointment.
const successfulPaymentIndex = "appointment_success"

const paymentEntity = "payment"

type PaymentUsecase interface {
	CreateIntent(ctx context.Context, req *dto.CreatePaymentIntentRequest) (*dto.PaymentIntentResponse, error)
	Confirm(ctx context.Context, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error)
	GetMyPayments(ctx context.Context) ([]dto.PaymentResponse, error)
	// ReconcilePending settles stale pending payments against the provider and returns how many changed.
	ReconcilePending(ctx context.Context) (int, error)
}

type paymentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
	paymentRepo     repository.PaymentRepository
	auditService    service.AuditService
	gateway         gateway.PaymentGateway
	currency        string
	timeout         time.Duration
	minAge          time.Duration
	batchSize       int
}

func NewPaymentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	paymentRepo repository.PaymentRepository,
	auditService service.AuditService,
	paymentGateway gateway.PaymentGateway,
	paymentCfg config.PaymentConfig,
	reconcileCfg config.ReconcileConfig,
) PaymentUsecase {
	return &paymentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		paymentRepo:     paymentRepo,
		auditService:    auditService,
		gateway:         paymentGateway,
		currency:        strings.ToLower(paymentCfg.Currency),
		timeout:         paymentCfg.Timeout,
		minAge:          reconcileCfg.MinAge,
		batchSize:       reconcileCfg.BatchSize,
	}
}

// CreateIntent charges the doctor's current fee for an appointment of the calling patient.
//
// Flow:
// 1. Ownership and state checks
// 2. Ask the provider for an intent (bounded by the payment timeout)
// 3. Record a pending payment keyed by the provider's id; only the client secret is returned
func (u *paymentUsecase) CreateIntent(ctx context.Context, req *dto.CreatePaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, ErrInvalidAppointmentID
	}

	// Step 1: Ownership and state
	appointment, err := u.findAppointment(ctx, u.db, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(principal, appointment.PatientID); err != nil {
		return nil, err
	}
	if appointment.IsPaid() {
		return nil, ErrAlreadyPaid
	}
	if appointment.IsCancelled() {
		return nil, ErrAppointmentCancelled
	}

	doctor, err := u.doctorRepo.FindByUserID(ctx, u.db, appointment.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", appointment.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	// Step 2: Provider intent
	gctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	intent, err := u.gateway.CreateIntent(gctx, gateway.ChargeRequest{
		Amount:   entity.ToMinorUnits(doctor.Fee, u.currency),
		Currency: u.currency,
		Metadata: map[string]string{
			"appointmentId": appointment.ID.String(),
			"patientId":     principal.UserID.String(),
		},
	})
	if err != nil {
		u.log.Errorf("Failed to create %s payment intent for appointment %s: %+v", u.gateway.Name(), appointment.ID, err)
		return nil, err
	}

	// Step 3: Pending payment
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	transactionID := intent.ID
	payment := &entity.Payment{
		AppointmentID: appointment.ID,
		Amount:        doctor.Fee,
		Currency:      strings.ToUpper(u.currency),
		Status:        entity.PaymentRecordPending,
		Provider:      u.gateway.Name(),
		TransactionID: &transactionID,
	}
	if err := u.paymentRepo.Create(ctx, tx, payment); err != nil {
		u.log.Warnf("Failed to create payment for appointment %s: %+v", appointment.ID, err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &principal.UserID, entity.AuditActionPaymentIntent, paymentEntity, payment.ID.String(),
		map[string]interface{}{
			"appointment_id": appointment.ID.String(),
			"amount":         payment.Amount.String(),
			"currency":       payment.Currency,
			"provider":       payment.Provider,
			"transaction_id": transactionID,
		}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Payment intent created: payment=%s, appointment=%s, transaction=%s", payment.ID, appointment.ID, transactionID)

	return &dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// Confirm re-reads the intent from the provider and applies the reconciliation policy.
// The caller never supplies the status. Confirming twice is safe.
func (u *paymentUsecase) Confirm(ctx context.Context, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, ErrInvalidAppointmentID
	}

	appointment, err := u.findAppointment(ctx, u.db, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(principal, appointment.PatientID); err != nil {
		return nil, err
	}

	intent, err := u.retrieveIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	payment, appointment, err := u.apply(ctx, appointmentID, req.PaymentIntentID, intent, &principal.UserID, entity.AuditActionPaymentConfirm)
	if err != nil {
		return nil, err
	}

	return &dto.ConfirmPaymentResponse{
		Payment:     *converter.PaymentToResponse(payment),
		Appointment: *converter.AppointmentToResponse(appointment),
	}, nil
}

// GetMyPayments returns the payments of the calling patient's appointments
func (u *paymentUsecase) GetMyPayments(ctx context.Context) ([]dto.PaymentResponse, error) {
	principal, err := authz.RequirePatient(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := u.paymentRepo.FindByPatientID(ctx, u.db, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find payments for patient %s: %+v", principal.UserID, err)
		return nil, err
	}

	return converter.PaymentsToResponses(payments), nil
}

// ReconcilePending applies terminal provider outcomes to pending payments older than minAge.
// Non-terminal outcomes are left alone so a doctor's status change is not reset to pending.
// Rows left pending are stamped as checked and rotate behind the rest on the next run.
func (u *paymentUsecase) ReconcilePending(ctx context.Context) (int, error) {
	now := time.Now()
	payments, err := u.paymentRepo.FindPendingBefore(ctx, u.db, now.Add(-u.minAge), u.batchSize)
	if err != nil {
		u.log.Warnf("Failed to find pending payments: %+v", err)
		return 0, err
	}

	settled := 0
	var checked []uuid.UUID
	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			break
		}
		if payment.TransactionID == nil {
			continue
		}

		intent, err := u.retrieveIntent(ctx, *payment.TransactionID)
		if err != nil {
			u.log.Warnf("Skipping reconciliation of payment %s: %+v", payment.ID, err)
			checked = append(checked, payment.ID)
			continue
		}
		if !MapIntentStatus(intent.Status).Terminal() {
			checked = append(checked, payment.ID)
			continue
		}

		if _, _, err := u.apply(ctx, payment.AppointmentID, *payment.TransactionID, intent, nil, entity.AuditActionPaymentReconcile); err != nil {
			u.log.Warnf("Failed to reconcile payment %s: %+v", payment.ID, err)
			checked = append(checked, payment.ID)
			continue
		}
		settled++
	}

	if err := u.paymentRepo.MarkReconcileChecked(context.WithoutCancel(ctx), u.db, checked, now); err != nil {
		u.log.Warnf("Failed to mark %d payments as checked: %+v", len(checked), err)
	}

	if settled > 0 {
		u.log.Infof("Reconciled %d of %d pending payments", settled, len(payments))
	}
	return settled, ctx.Err()
}

func (u *paymentUsecase) retrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	gctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	intent, err := u.gateway.RetrieveIntent(gctx, intentID)
	if err != nil {
		if errors.Is(err, gateway.ErrIntentNotFound) {
			return nil, ErrPaymentNotFound
		}
		u.log.Errorf("Failed to retrieve %s intent %s: %+v", u.gateway.Name(), intentID, err)
		return nil, err
	}
	return intent, nil
}

// apply writes the mapped outcome to the payment and its appointment in one transaction.
// Re-applying an outcome that is already in place writes nothing. A cancelled appointment
// keeps its status whatever the provider reports.
func (u *paymentUsecase) apply(ctx context.Context, appointmentID uuid.UUID, transactionID string, intent *gateway.Intent, actorID *uuid.UUID, action string) (*entity.Payment, *entity.Appointment, error) {
	outcome := MapIntentStatus(intent.Status)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.findAppointment(ctx, tx, appointmentID)
	if err != nil {
		return nil, nil, err
	}

	payment, err := u.paymentRepo.FindByAppointmentAndTransaction(ctx, tx, appointmentID, transactionID)
	if err != nil {
		u.log.Warnf("Failed to find payment %s for appointment %s: %+v", transactionID, appointmentID, err)
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, ErrPaymentNotFound
	}

	// A cancelled appointment has given up its slot, which may already be rebooked.
	// The charge is still recorded; the booking stays cancelled.
	newStatus := appointment.Status
	if outcome.AppointmentStatus != nil && !appointment.IsCancelled() {
		newStatus = *outcome.AppointmentStatus
	}

	var receiptURL *string
	if outcome.Payment == entity.PaymentRecordSuccess && intent.ReceiptURL != "" {
		receiptURL = &intent.ReceiptURL
	}

	unchanged := payment.Status == outcome.Payment &&
		appointment.PaymentStatus == outcome.AppointmentPay &&
		appointment.Status == newStatus &&
		(receiptURL == nil || (payment.ReceiptURL != nil && *payment.ReceiptURL == *receiptURL))
	if unchanged {
		return payment, appointment, nil
	}

	if err := u.paymentRepo.UpdateResult(ctx, tx, payment.ID, outcome.Payment, receiptURL); err != nil {
		if apperror.IsUniqueViolation(err, successfulPaymentIndex) {
			return nil, nil, ErrDuplicateSuccess
		}
		u.log.Warnf("Failed to update payment %s: %+v", payment.ID, err)
		return nil, nil, err
	}

	if err := u.appointmentRepo.UpdatePaymentState(ctx, tx, appointment.ID, outcome.AppointmentPay, newStatus); err != nil {
		if apperror.IsUniqueViolation(err, activeSlotIndex) {
			return nil, nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to update appointment %s payment state: %+v", appointment.ID, err)
		return nil, nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, actorID, action, paymentEntity, payment.ID.String(),
		map[string]interface{}{
			"payment_status":             string(payment.Status),
			"appointment_status":         string(appointment.Status),
			"appointment_payment_status": string(appointment.PaymentStatus),
		},
		map[string]interface{}{
			"payment_status":             string(outcome.Payment),
			"appointment_status":         string(newStatus),
			"appointment_payment_status": string(outcome.AppointmentPay),
			"provider_status":            intent.Status,
		}); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, nil, err
	}

	if appointment.IsCancelled() && outcome.Payment == entity.PaymentRecordSuccess {
		u.log.Warnf("Payment %s succeeded for cancelled appointment %s, refund required", payment.ID, appointment.ID)
	}

	u.log.Infof("Payment %s reconciled: provider=%s, payment=%s, appointment=%s/%s",
		payment.ID, intent.Status, outcome.Payment, newStatus, outcome.AppointmentPay)

	payment.Status = outcome.Payment
	if receiptURL != nil {
		payment.ReceiptURL = receiptURL
	}
	appointment.PaymentStatus = outcome.AppointmentPay
	appointment.Status = newStatus
	return payment, appointment, nil
}

func (u *paymentUsecase) findAppointment(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
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
