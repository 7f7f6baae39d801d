package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/usecase"
	"doctor-appointment-api/pkg/response"
	"doctor-appointment-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorProfileUsecase
	validator     *validator.CustomValidator
}

func NewDoctorHandler(doctorUsecase usecase.DoctorProfileUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
	}
}

func (h *DoctorHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDoctorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.CreateProfile(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create doctor profile")
		return
	}

	response.Success(w, http.StatusCreated, "Doctor profile created successfully", doctor)
}

func (h *DoctorHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDoctorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.UpdateProfile(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to update doctor profile")
		return
	}

	response.Success(w, http.StatusOK, "Doctor profile updated successfully", doctor)
}

func (h *DoctorHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.UpdateAvailability(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to update availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", doctor)
}

// GetDoctors lists doctors
// @Summary List doctors
// @Tags Doctor
// @Produce json
// @Param category query string false "Category ID"
// @Param specialization query string false "Specialization substring"
// @Param name query string false "Doctor name substring"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} response.Response
// @Router /doctor [get]
func (h *DoctorHandler) GetDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.DoctorListQuery{
		CategoryID:     q.Get("category"),
		Specialization: q.Get("specialization"),
		Name:           q.Get("name"),
		Page:           queryInt(q.Get("page"), 1),
		Limit:          queryInt(q.Get("limit"), 10),
	}

	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.doctorUsecase.GetDoctors(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to get doctors")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", result, &response.Meta{
		Page:       result.Page,
		Limit:      query.Limit,
		Total:      result.Total,
		TotalPages: result.Pages,
	})
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

// GetAvailability lists free slots of a doctor on a date
// @Summary Doctor availability
// @Tags Doctor
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctor/{id}/availability [get]
func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "Query parameter date is required")
		return
	}

	availability, err := h.doctorUsecase.GetAvailability(r.Context(), doctorID, date)
	if err != nil {
		response.FromError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

// queryInt parses a positive integer query value, falling back when absent or malformed.
func queryInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
