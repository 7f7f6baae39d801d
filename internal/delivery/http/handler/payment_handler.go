package handler

import (
	"encoding/json"
	"net/http"

	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/usecase"
	"doctor-appointment-api/pkg/response"
	"doctor-appointment-api/pkg/validator"
)

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *validator.CustomValidator
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase, validator *validator.CustomValidator) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		validator:      validator,
	}
}

// CreateIntent starts a card payment for an appointment
// @Summary Create payment intent
// @Tags Payment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentIntentRequest true "Create Intent Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /payment/create-intent [post]
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	intent, err := h.paymentUsecase.CreateIntent(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create payment intent")
		return
	}

	response.Success(w, http.StatusOK, "Payment intent created successfully", intent)
}

// Confirm reconciles a payment with the provider
// @Summary Confirm payment
// @Tags Payment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ConfirmPaymentRequest true "Confirm Payment Request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payment/confirm [post]
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.paymentUsecase.Confirm(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to confirm payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment status updated", result)
}

func (h *PaymentHandler) GetMyPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentUsecase.GetMyPayments(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get payments")
		return
	}

	response.Success(w, http.StatusOK, "Payments retrieved successfully", payments)
}
