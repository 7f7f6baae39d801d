package converter

import (
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Doctor and Patient are included only when preloaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:            appointment.ID,
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
		Date:          appointment.DateString(),
		Slot:          appointment.Slot,
		Status:        string(appointment.Status),
		PaymentStatus: string(appointment.PaymentStatus),
		CreatedAt:     appointment.CreatedAt,
		UpdatedAt:     appointment.UpdatedAt,
	}

	if appointment.Doctor.UserID != uuid.Nil {
		response.Doctor = &dto.AppointmentDoctorResponse{
			ID:             appointment.Doctor.UserID,
			Name:           appointment.Doctor.User.FullName,
			Specialization: appointment.Doctor.Specialization,
			Fee:            appointment.Doctor.Fee,
		}
	}
	if appointment.Patient.ID != uuid.Nil {
		response.Patient = &dto.AppointmentPatientResponse{
			ID:    appointment.Patient.ID,
			Name:  appointment.Patient.FullName,
			Email: appointment.Patient.Email,
		}
	}

	return response
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
