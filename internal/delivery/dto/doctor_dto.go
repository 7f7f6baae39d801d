package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateDoctorProfileRequest struct {
	CategoryID     string          `json:"categoryId" validate:"required,uuid"`
	Specialization string          `json:"specialization" validate:"required,max=100"`
	Experience     int             `json:"experience" validate:"gte=0,lte=80"`
	Fee            decimal.Decimal `json:"fees"`
	AvailableSlots []string        `json:"availableSlots" validate:"omitempty,dive,required,max=100"`
	Bio            string          `json:"bio" validate:"omitempty"`
	ClinicName     string          `json:"clinicName" validate:"omitempty,max=255"`
	ClinicAddress  string          `json:"clinicAddress" validate:"omitempty"`
}

// UpdateDoctorProfileRequest only touches fields that are present.
type UpdateDoctorProfileRequest struct {
	CategoryID     *string          `json:"categoryId" validate:"omitempty,uuid"`
	Specialization *string          `json:"specialization" validate:"omitempty,max=100"`
	Experience     *int             `json:"experience" validate:"omitempty,gte=0,lte=80"`
	Fee            *decimal.Decimal `json:"fees"`
	Bio            *string          `json:"bio"`
	ClinicName     *string          `json:"clinicName" validate:"omitempty,max=255"`
	ClinicAddress  *string          `json:"clinicAddress"`
}

type UpdateAvailabilityRequest struct {
	AvailableSlots []string `json:"availableSlots" validate:"required,dive,required,max=100"`
}

// DoctorListQuery is parsed from GET /doctor query parameters.
type DoctorListQuery struct {
	CategoryID     string `validate:"omitempty,uuid"`
	Specialization string `validate:"omitempty,max=100"`
	Name           string `validate:"omitempty,max=255"`
	Page           int    `validate:"gte=1"`
	Limit          int    `validate:"gte=1,lte=100"`
}

// Response DTOs

type DoctorProfileResponse struct {
	UserID         uuid.UUID       `json:"userId"`
	CategoryID     uuid.UUID       `json:"categoryId"`
	Specialization string          `json:"specialization"`
	Experience     int             `json:"experience"`
	Fee            decimal.Decimal `json:"fees"`
	AvailableSlots []string        `json:"availableSlots"`
	Bio            string          `json:"bio,omitempty"`
	ClinicName     string          `json:"clinicName,omitempty"`
	ClinicAddress  string          `json:"clinicAddress,omitempty"`
}

type DoctorResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Category       *CategoryResponse `json:"category,omitempty"`
	Specialization string            `json:"specialization"`
	Experience     int               `json:"experience"`
	Fee            decimal.Decimal   `json:"fees"`
	AvailableSlots []string          `json:"availableSlots"`
	Bio            string            `json:"bio,omitempty"`
	ClinicName     string            `json:"clinicName,omitempty"`
	ClinicAddress  string            `json:"clinicAddress,omitempty"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Pages   int              `json:"pages"`
}

type AvailabilityResponse struct {
	DoctorID       uuid.UUID `json:"doctorId"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"availableSlots"`
	BookedSlots    []string  `json:"bookedSlots"`
}
