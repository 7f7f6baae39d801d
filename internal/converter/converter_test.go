package converter

import (
	"testing"
	"time"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentToResponse(t *testing.T) {
	doctorID := uuid.New()
	appointment := &entity.Appointment{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      doctorID,
		Date:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Slot:          "10-11",
		Status:        entity.AppointmentStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		Doctor: entity.DoctorProfile{
			UserID:         doctorID,
			Specialization: "Cardiology",
			Fee:            decimal.NewFromInt(50),
			User:           entity.User{FullName: "Dr. D1"},
		},
	}

	res := AppointmentToResponse(appointment)

	require.NotNil(t, res)
	assert.Equal(t, "2024-06-01", res.Date)
	assert.Equal(t, "pending", res.Status)
	require.NotNil(t, res.Doctor)
	assert.Equal(t, "Dr. D1", res.Doctor.Name)
	assert.Nil(t, res.Patient)
	assert.Nil(t, AppointmentToResponse(nil))
}

func TestPaymentToResponse(t *testing.T) {
	txID := "pi_1"
	payment := &entity.Payment{
		ID:            uuid.New(),
		AppointmentID: uuid.New(),
		Amount:        decimal.NewFromInt(50),
		Currency:      "usd",
		Status:        entity.PaymentRecordSuccess,
		Provider:      entity.ProviderStripe,
		TransactionID: &txID,
	}

	res := PaymentToResponse(payment)

	assert.Equal(t, "pi_1", res.TransactionID)
	assert.Empty(t, res.ReceiptURL)
	assert.Nil(t, res.Appointment)
	assert.Equal(t, "success", res.Status)
}

func TestUserToResponseFallsBackToRoleID(t *testing.T) {
	res := UserToResponse(&entity.User{ID: uuid.New(), RoleID: entity.RoleIDDoctor})

	assert.Equal(t, entity.RoleDoctor, res.Role)
	assert.Nil(t, res.DoctorProfile)
}

func TestDoctorProfileToResponseEmptySlots(t *testing.T) {
	res := DoctorProfileToResponse(&entity.DoctorProfile{UserID: uuid.New()})

	assert.Equal(t, []string{}, res.AvailableSlots)
	assert.Nil(t, res.Category)
}
