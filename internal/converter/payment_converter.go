package converter

import (
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
)

func PaymentToResponse(payment *entity.Payment) *dto.PaymentResponse {
	if payment == nil {
		return nil
	}

	response := &dto.PaymentResponse{
		ID:            payment.ID,
		AppointmentID: payment.AppointmentID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        string(payment.Status),
		Provider:      payment.Provider,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}
	if payment.TransactionID != nil {
		response.TransactionID = *payment.TransactionID
	}
	if payment.ReceiptURL != nil {
		response.ReceiptURL = *payment.ReceiptURL
	}
	if payment.Appointment.ID != uuid.Nil {
		response.Appointment = AppointmentToResponse(&payment.Appointment)
	}
	return response
}

func PaymentsToResponses(payments []entity.Payment) []dto.PaymentResponse {
	responses := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *PaymentToResponse(&payments[i])
	}
	return responses
}
