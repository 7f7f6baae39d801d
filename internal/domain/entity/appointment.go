package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the booking lifecycle of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// PaymentStatus is the appointment-level view of payment progress
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// DateLayout is the wire and storage format of appointment dates.
const DateLayout = "2006-01-02"

// Appointment represents a patient's booking of one doctor slot on one date.
// (doctor_id, date, slot) is unique among non-cancelled appointments.
type Appointment struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'" json:"doctor_id"`
	Date          time.Time         `gorm:"type:date;not null;uniqueIndex:idx_appointments_active_slot" json:"date"`
	Slot          string            `gorm:"type:varchar(100);not null;uniqueIndex:idx_appointments_active_slot" json:"slot"`
	Status        AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User          `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  DoctorProfile `gorm:"foreignKey:DoctorID;references:UserID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsValidAppointmentStatus reports whether s is one of the four lifecycle values.
func IsValidAppointmentStatus(s string) bool {
	switch AppointmentStatus(s) {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsCompleted checks if appointment is completed
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// IsPaid checks if the appointment has a successful payment
func (a *Appointment) IsPaid() bool {
	return a.PaymentStatus == PaymentStatusPaid
}

// DateString formats Date in DateLayout.
func (a *Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}

// ParseAppointmentDate parses a YYYY-MM-DD date as midnight UTC.
func ParseAppointmentDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
