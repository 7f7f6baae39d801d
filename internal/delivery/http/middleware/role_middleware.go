package middleware

import (
	"net/http"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles.
// Usecases repeat the check, so this only rejects early at the route level.
func RequireRole(allowedRoleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := authz.Require(r.Context(), allowedRoleIDs...); err != nil {
				response.FromError(w, err, "Failed to authorize request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin)(next)
}

// RequireDoctor is a convenience middleware for doctor-only endpoints
func RequireDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDDoctor)(next)
}

// RequirePatient is a convenience middleware for patient-only endpoints
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDPatient)(next)
}
