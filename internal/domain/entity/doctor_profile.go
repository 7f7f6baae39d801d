package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DoctorProfile represents doctor-specific profile data. The owning user's ID is the primary key,
// so a user can hold at most one profile.
//
// AvailableSlots are caller-defined labels such as "10-11" or "10:00 AM - 11:00 AM"; they are
// compared as plain strings.
type DoctorProfile struct {
	UserID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	CategoryID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Specialization string          `gorm:"type:varchar(100);index" json:"specialization"`
	Experience     int             `gorm:"not null;default:0" json:"experience"`
	Fee            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fee"`
	AvailableSlots pq.StringArray  `gorm:"type:text[];not null;default:'{}'" json:"available_slots"`
	Bio            string          `gorm:"type:text" json:"bio,omitempty"`
	ClinicName     string          `gorm:"type:varchar(255)" json:"clinic_name,omitempty"`
	ClinicAddress  string          `gorm:"type:text" json:"clinic_address,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// OffersSlot reports whether slot is one of the currently configured labels.
func (d *DoctorProfile) OffersSlot(slot string) bool {
	for _, s := range d.AvailableSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// FreeSlots returns the configured slots not present in booked, keeping configuration order.
func (d *DoctorProfile) FreeSlots(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	free := make([]string, 0, len(d.AvailableSlots))
	for _, s := range d.AvailableSlots {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}
