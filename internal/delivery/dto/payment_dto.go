package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreatePaymentIntentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,uuid"`
}

type ConfirmPaymentRequest struct {
	AppointmentID   string `json:"appointmentId" validate:"required,uuid"`
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=255"`
}

// Response DTOs

// PaymentIntentResponse carries only the client-side confirmation token.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type ConfirmPaymentResponse struct {
	Payment     PaymentResponse     `json:"payment"`
	Appointment AppointmentResponse `json:"appointment"`
}

type PaymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	AppointmentID uuid.UUID            `json:"appointmentId"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Status        string               `json:"status"`
	Provider      string               `json:"provider"`
	TransactionID string               `json:"transactionId,omitempty"`
	ReceiptURL    string               `json:"receiptUrl,omitempty"`
	Appointment   *AppointmentResponse `json:"appointment,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
