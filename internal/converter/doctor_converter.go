package converter

import (
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
)

// DoctorProfileToResponse converts a DoctorProfile entity, with User and Category preloaded,
// to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	response := &dto.DoctorResponse{
		ID:             profile.UserID,
		Name:           profile.User.FullName,
		Email:          profile.User.Email,
		Specialization: profile.Specialization,
		Experience:     profile.Experience,
		Fee:            profile.Fee,
		AvailableSlots: slotsOrEmpty(profile.AvailableSlots),
		Bio:            profile.Bio,
		ClinicName:     profile.ClinicName,
		ClinicAddress:  profile.ClinicAddress,
	}
	if profile.Category.ID != uuid.Nil {
		response.Category = CategoryToResponse(&profile.Category)
	}
	return response
}

// DoctorProfilesToResponses converts a slice of DoctorProfile entities to slice of DoctorResponse DTOs
func DoctorProfilesToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i := range profiles {
		responses[i] = *DoctorProfileToResponse(&profiles[i])
	}
	return responses
}

// DoctorProfileToProfileResponse is the profile-only view embedded in UserResponse.
func DoctorProfileToProfileResponse(profile *entity.DoctorProfile) *dto.DoctorProfileResponse {
	if profile == nil {
		return nil
	}
	return &dto.DoctorProfileResponse{
		UserID:         profile.UserID,
		CategoryID:     profile.CategoryID,
		Specialization: profile.Specialization,
		Experience:     profile.Experience,
		Fee:            profile.Fee,
		AvailableSlots: slotsOrEmpty(profile.AvailableSlots),
		Bio:            profile.Bio,
		ClinicName:     profile.ClinicName,
		ClinicAddress:  profile.ClinicAddress,
	}
}

func slotsOrEmpty(slots []string) []string {
	if slots == nil {
		return []string{}
	}
	return slots
}
