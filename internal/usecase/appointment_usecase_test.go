package usecase

import (
	"context"
	"testing"
	"time"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/pkg/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type appointmentFixture struct {
	sql          sqlmock.Sqlmock
	appointments *MockAppointmentRepository
	doctors      *MockDoctorProfileRepository
	audit        *MockAuditService
	cache        *MockSlotCache
	usecase      AppointmentUsecase
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	db, sql := newMockDB(t)
	f := &appointmentFixture{
		sql:          sql,
		appointments: new(MockAppointmentRepository),
		doctors:      new(MockDoctorProfileRepository),
		audit:        new(MockAuditService),
		cache:        new(MockSlotCache),
	}
	log := testLogger()
	ledger := NewSlotLedger(log, f.appointments, f.doctors, f.cache)
	f.usecase = NewAppointmentUsecase(db, log, f.appointments, ledger, f.audit)
	return f
}

func (f *appointmentFixture) assertExpectations(t *testing.T) {
	f.appointments.AssertExpectations(t)
	f.doctors.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

var testDate = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)

func testDoctor(id uuid.UUID) *entity.DoctorProfile {
	return &entity.DoctorProfile{
		UserID:         id,
		Specialization: "Cardiology",
		Fee:            decimal.NewFromInt(50),
		AvailableSlots: pq.StringArray{"10-11", "11-12"},
		User:           entity.User{ID: id, FullName: "Dr. One"},
	}
}

func testAppointment(patientID, doctorID uuid.UUID, status entity.AppointmentStatus) *entity.Appointment {
	return &entity.Appointment{
		ID:            uuid.New(),
		PatientID:     patientID,
		DoctorID:      doctorID,
		Date:          testDate,
		Slot:          "10-11",
		Status:        status,
		PaymentStatus: entity.PaymentStatusPending,
	}
}

func bookRequest(doctorID uuid.UUID, slot string) *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{DoctorID: doctorID.String(), Date: "2030-06-01", Slot: slot}
}

func TestBook_Success(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()
	ctx := withPrincipal(patientID, entity.RoleIDPatient)

	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)
	f.appointments.On("FindActiveByPatientSlot", mock.Anything, mock.Anything, patientID, testDate, "10-11").Return(nil, nil)
	f.appointments.On("IsSlotTaken", mock.Anything, mock.Anything, doctorID, testDate, "10-11").Return(false, nil)
	f.appointments.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(a *entity.Appointment) bool {
		return a.PatientID == patientID && a.Status == entity.AppointmentStatusPending && a.PaymentStatus == entity.PaymentStatusPending
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*entity.Appointment).ID = uuid.New()
	}).Return(nil)
	f.audit.On("LogCreate", mock.Anything, mock.Anything, &patientID, entity.AuditActionAppointmentBook, "appointment", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, doctorID, testDate).Return()

	resp, err := f.usecase.Book(ctx, bookRequest(doctorID, "10-11"))

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.Equal(t, "2030-06-01", resp.Date)
	require.NotNil(t, resp.Doctor)
	assert.Equal(t, "Cardiology", resp.Doctor.Specialization)
	f.assertExpectations(t)
}

func TestBook_SlotHeldByAnotherPatient(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)
	f.appointments.On("FindActiveByPatientSlot", mock.Anything, mock.Anything, patientID, testDate, "10-11").Return(nil, nil)
	f.appointments.On("IsSlotTaken", mock.Anything, mock.Anything, doctorID, testDate, "10-11").Return(true, nil)

	_, err := f.usecase.Book(withPrincipal(patientID, entity.RoleIDPatient), bookRequest(doctorID, "10-11"))

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.True(t, apperror.Is(err, apperror.Conflict))
	f.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestBook_LosesRaceOnUniqueIndex(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)
	f.appointments.On("FindActiveByPatientSlot", mock.Anything, mock.Anything, patientID, testDate, "10-11").Return(nil, nil)
	f.appointments.On("IsSlotTaken", mock.Anything, mock.Anything, doctorID, testDate, "10-11").Return(false, nil)
	f.appointments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_active_slot"})

	_, err := f.usecase.Book(withPrincipal(patientID, entity.RoleIDPatient), bookRequest(doctorID, "10-11"))

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	f.audit.AssertNotCalled(t, "LogCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestBook_DuplicateForSamePatient(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)
	f.appointments.On("FindActiveByPatientSlot", mock.Anything, mock.Anything, patientID, testDate, "10-11").
		Return(testAppointment(patientID, doctorID, entity.AppointmentStatusPending), nil)

	_, err := f.usecase.Book(withPrincipal(patientID, entity.RoleIDPatient), bookRequest(doctorID, "10-11"))

	assert.ErrorIs(t, err, ErrDuplicateAppointment)
	f.assertExpectations(t)
}

func TestBook_SlotNotOffered(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)

	_, err := f.usecase.Book(withPrincipal(patientID, entity.RoleIDPatient), bookRequest(doctorID, "15-16"))

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.True(t, apperror.Is(err, apperror.InvalidArgument))
	f.assertExpectations(t)
}

func TestBook_UnknownDoctor(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(nil, nil)

	_, err := f.usecase.Book(withPrincipal(patientID, entity.RoleIDPatient), bookRequest(doctorID, "10-11"))

	assert.ErrorIs(t, err, ErrDoctorNotFound)
	f.assertExpectations(t)
}

func TestBook_RejectsBadInput(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := withPrincipal(uuid.New(), entity.RoleIDPatient)

	_, err := f.usecase.Book(ctx, &dto.BookAppointmentRequest{DoctorID: "nope", Date: "2030-06-01", Slot: "10-11"})
	assert.ErrorIs(t, err, ErrInvalidDoctorID)

	_, err = f.usecase.Book(ctx, &dto.BookAppointmentRequest{DoctorID: uuid.NewString(), Date: "06/01/2030", Slot: "10-11"})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	f.assertExpectations(t)
}

func TestBook_RequiresPatientRole(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.usecase.Book(withPrincipal(uuid.New(), entity.RoleIDDoctor), bookRequest(uuid.New(), "10-11"))
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = f.usecase.Book(context.Background(), bookRequest(uuid.New(), "10-11"))
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestCancel_Success(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()
	appointment := testAppointment(patientID, doctorID, entity.AppointmentStatusConfirmed)

	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)
	f.appointments.On("Cancel", mock.Anything, mock.Anything, appointment.ID).Return(int64(1), nil)
	f.audit.On("LogUpdate", mock.Anything, mock.Anything, &patientID, entity.AuditActionAppointmentCancel, "appointment",
		appointment.ID.String(), "confirmed", "cancelled").Return(nil)
	f.cache.On("Invalidate", mock.Anything, doctorID, testDate).Return()

	resp, err := f.usecase.Cancel(withPrincipal(patientID, entity.RoleIDPatient), appointment.ID)

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	f.assertExpectations(t)
}

func TestCancel_AlreadyCancelledIsNoop(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()
	appointment := testAppointment(patientID, uuid.New(), entity.AppointmentStatusCancelled)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)

	resp, err := f.usecase.Cancel(withPrincipal(patientID, entity.RoleIDPatient), appointment.ID)

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	f.appointments.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestCancel_CompletedIsRejected(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()
	appointment := testAppointment(patientID, uuid.New(), entity.AppointmentStatusCompleted)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)

	_, err := f.usecase.Cancel(withPrincipal(patientID, entity.RoleIDPatient), appointment.ID)

	assert.ErrorIs(t, err, ErrAppointmentCompleted)
	assert.True(t, apperror.Is(err, apperror.InvalidState))
	f.assertExpectations(t)
}

func TestCancel_OtherPatientIsForbidden(t *testing.T) {
	f := newAppointmentFixture(t)
	appointment := testAppointment(uuid.New(), uuid.New(), entity.AppointmentStatusPending)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)

	_, err := f.usecase.Cancel(withPrincipal(uuid.New(), entity.RoleIDPatient), appointment.ID)

	assert.ErrorIs(t, err, authz.ErrForbidden)
	f.appointments.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestCancel_LostRaceToCompletion(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID, doctorID := uuid.New(), uuid.New()
	appointment := testAppointment(patientID, doctorID, entity.AppointmentStatusConfirmed)
	completed := *appointment
	completed.Status = entity.AppointmentStatusCompleted

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil).Once()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(&completed, nil).Once()
	f.appointments.On("Cancel", mock.Anything, mock.Anything, appointment.ID).Return(int64(0), nil)

	_, err := f.usecase.Cancel(withPrincipal(patientID, entity.RoleIDPatient), appointment.ID)

	assert.ErrorIs(t, err, ErrAppointmentCompleted)
	f.assertExpectations(t)
}

func TestCancel_NotFound(t *testing.T) {
	f := newAppointmentFixture(t)
	id := uuid.New()

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, id).Return(nil, nil)

	_, err := f.usecase.Cancel(withPrincipal(uuid.New(), entity.RoleIDPatient), id)

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	f.assertExpectations(t)
}

func TestUpdateStatus_Success(t *testing.T) {
	f := newAppointmentFixture(t)
	doctorID := uuid.New()
	appointment := testAppointment(uuid.New(), doctorID, entity.AppointmentStatusPending)

	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)
	f.appointments.On("UpdateStatus", mock.Anything, mock.Anything, appointment.ID, entity.AppointmentStatusCompleted).Return(nil)
	f.audit.On("LogUpdate", mock.Anything, mock.Anything, &doctorID, entity.AuditActionAppointmentStatus, "appointment",
		appointment.ID.String(), "pending", "completed").Return(nil)
	f.cache.On("Invalidate", mock.Anything, doctorID, testDate).Return()

	resp, err := f.usecase.UpdateStatus(withPrincipal(doctorID, entity.RoleIDDoctor), appointment.ID,
		&dto.UpdateAppointmentStatusRequest{Status: "completed"})

	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	f.assertExpectations(t)
}

func TestUpdateStatus_NonOwningDoctorIsForbidden(t *testing.T) {
	f := newAppointmentFixture(t)
	appointment := testAppointment(uuid.New(), uuid.New(), entity.AppointmentStatusPending)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)

	_, err := f.usecase.UpdateStatus(withPrincipal(uuid.New(), entity.RoleIDDoctor), appointment.ID,
		&dto.UpdateAppointmentStatusRequest{Status: "confirmed"})

	assert.ErrorIs(t, err, authz.ErrForbidden)
	f.appointments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, entity.AppointmentStatusPending, appointment.Status)
	f.assertExpectations(t)
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.usecase.UpdateStatus(withPrincipal(uuid.New(), entity.RoleIDDoctor), uuid.New(),
		&dto.UpdateAppointmentStatusRequest{Status: "done"})

	assert.ErrorIs(t, err, ErrInvalidAppointmentStatus)
	f.assertExpectations(t)
}

func TestUpdateStatus_ReviveOntoRebookedSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	doctorID := uuid.New()
	appointment := testAppointment(uuid.New(), doctorID, entity.AppointmentStatusCancelled)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)
	f.appointments.On("UpdateStatus", mock.Anything, mock.Anything, appointment.ID, entity.AppointmentStatusPending).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_active_slot"})

	_, err := f.usecase.UpdateStatus(withPrincipal(doctorID, entity.RoleIDDoctor), appointment.ID,
		&dto.UpdateAppointmentStatusRequest{Status: "pending"})

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	f.assertExpectations(t)
}

func TestUpdateStatus_SameStatusWritesNothing(t *testing.T) {
	f := newAppointmentFixture(t)
	doctorID := uuid.New()
	appointment := testAppointment(uuid.New(), doctorID, entity.AppointmentStatusConfirmed)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)

	resp, err := f.usecase.UpdateStatus(withPrincipal(doctorID, entity.RoleIDDoctor), appointment.ID,
		&dto.UpdateAppointmentStatusRequest{Status: "confirmed"})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	f.assertExpectations(t)
}

func TestGetDoctorAppointments(t *testing.T) {
	f := newAppointmentFixture(t)
	doctorID := uuid.New()
	list := []entity.Appointment{
		*testAppointment(uuid.New(), doctorID, entity.AppointmentStatusPending),
		*testAppointment(uuid.New(), doctorID, entity.AppointmentStatusConfirmed),
	}
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(testDoctor(doctorID), nil)
	f.appointments.On("FindByDoctorID", mock.Anything, mock.Anything, doctorID).Return(list, nil)

	resp, err := f.usecase.GetDoctorAppointments(withPrincipal(doctorID, entity.RoleIDDoctor))

	require.NoError(t, err)
	assert.Len(t, resp, 2)

	_, err = f.usecase.GetDoctorAppointments(withPrincipal(doctorID, entity.RoleIDPatient))
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestGetDoctorAppointments_WithoutProfile(t *testing.T) {
	f := newAppointmentFixture(t)
	doctorID := uuid.New()
	f.doctors.On("FindByUserID", mock.Anything, mock.Anything, doctorID).Return(nil, nil)

	_, err := f.usecase.GetDoctorAppointments(withPrincipal(doctorID, entity.RoleIDDoctor))

	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	f.appointments.AssertNotCalled(t, "FindByDoctorID", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMyAppointments_Empty(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()
	f.appointments.On("FindByPatientID", mock.Anything, mock.Anything, patientID).Return([]entity.Appointment{}, nil)

	resp, err := f.usecase.GetMyAppointments(withPrincipal(patientID, entity.RoleIDPatient))

	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Empty(t, resp)
}

func TestSlotLedger_BookedSlotsReadsThroughCache(t *testing.T) {
	appointments := new(MockAppointmentRepository)
	cache := new(MockSlotCache)
	ledger := NewSlotLedger(testLogger(), appointments, new(MockDoctorProfileRepository), cache)
	doctorID := uuid.New()

	cache.On("BookedSlots", mock.Anything, doctorID, testDate).Return(nil, nil).Once()
	appointments.On("FindBookedSlots", mock.Anything, mock.Anything, doctorID, testDate).Return([]string{"10-11"}, nil).Once()

	slots, err := ledger.BookedSlots(context.Background(), nil, doctorID, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"10-11"}, slots)

	cache.On("BookedSlots", mock.Anything, doctorID, testDate).Return([]string{"11-12"}, nil).Once()
	slots, err = ledger.BookedSlots(context.Background(), nil, doctorID, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"11-12"}, slots)

	appointments.AssertExpectations(t)
}
