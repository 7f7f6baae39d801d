package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID string `json:"doctorId" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,date_ymd"`
	Slot     string `json:"slot" validate:"required,max=100"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Response DTOs

type AppointmentDoctorResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name,omitempty"`
	Specialization string          `json:"specialization,omitempty"`
	Fee            decimal.Decimal `json:"fees"`
}

type AppointmentPatientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID                   `json:"id"`
	PatientID     uuid.UUID                   `json:"patientId"`
	DoctorID      uuid.UUID                   `json:"doctorId"`
	Date          string                      `json:"date"`
	Slot          string                      `json:"slot"`
	Status        string                      `json:"status"`
	PaymentStatus string                      `json:"paymentStatus"`
	Doctor        *AppointmentDoctorResponse  `json:"doctor,omitempty"`
	Patient       *AppointmentPatientResponse `json:"patient,omitempty"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}
