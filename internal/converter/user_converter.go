package converter

import (
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO.
// Includes DoctorProfile if it is loaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	role := user.Role.RoleName
	if role == "" {
		role = entity.RoleNameByID(user.RoleID)
	}

	return &dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          role,
		DoctorProfile: DoctorProfileToProfileResponse(user.DoctorProfile),
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
