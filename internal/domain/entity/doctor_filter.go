package entity

import "github.com/google/uuid"

// DoctorFilter is a domain-level filter for listing doctors.
// Used by repository layer to avoid coupling with delivery DTOs.
type DoctorFilter struct {
	CategoryID     *uuid.UUID
	Specialization string // ILIKE
	Name           string // ILIKE on users.full_name
	Limit          int
	Offset         int
}
