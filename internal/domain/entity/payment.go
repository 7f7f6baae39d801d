package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordStatus is the status of one charge attempt
type PaymentRecordStatus string

const (
	PaymentRecordPending PaymentRecordStatus = "pending"
	PaymentRecordSuccess PaymentRecordStatus = "success"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// Supported payment providers
const (
	ProviderStripe   = "stripe"
	ProviderRazorpay = "razorpay"
)

// Payment is one charge attempt for an appointment. An appointment may have several
// attempts but at most one ends in success.
type Payment struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID uuid.UUID           `gorm:"type:uuid;not null;index" json:"appointment_id"`
	Amount        decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string              `gorm:"type:char(3);not null;default:'USD'" json:"currency"`
	Status        PaymentRecordStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Provider      string              `gorm:"type:varchar(20);not null" json:"provider"`
	TransactionID *string             `gorm:"type:varchar(255);uniqueIndex" json:"transaction_id,omitempty"`
	ReceiptURL    *string             `gorm:"type:text" json:"receipt_url,omitempty"`
	ReconciledAt  *time.Time          `json:"-"` // last provider check by the reconcile job
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsSuccess checks if payment succeeded
func (p *Payment) IsSuccess() bool {
	return p.Status == PaymentRecordSuccess
}

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true, "KRW": true,
	"MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true, "VUV": true, "XAF": true,
	"XOF": true, "XPF": true,
}

// ToMinorUnits converts a major-unit amount into the provider's integer minor units
// (cents for USD, paise for INR), rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
