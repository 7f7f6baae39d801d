package usecase

import (
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"
)

// ReconcileOutcome is the internal state a provider status maps onto.
// A nil AppointmentStatus leaves the booking status unchanged.
type ReconcileOutcome struct {
	Payment           entity.PaymentRecordStatus
	AppointmentPay    entity.PaymentStatus
	AppointmentStatus *entity.AppointmentStatus
}

// Terminal reports whether the outcome settles the payment.
func (o ReconcileOutcome) Terminal() bool {
	return o.Payment != entity.PaymentRecordPending
}

// MapIntentStatus is the reconciliation policy:
//
//	succeeded                                 -> success / paid / confirmed
//	requires_payment_method, requires_action  -> pending / pending / pending
//	anything else                             -> failed / failed / unchanged
func MapIntentStatus(status string) ReconcileOutcome {
	switch status {
	case gateway.IntentSucceeded:
		confirmed := entity.AppointmentStatusConfirmed
		return ReconcileOutcome{
			Payment:           entity.PaymentRecordSuccess,
			AppointmentPay:    entity.PaymentStatusPaid,
			AppointmentStatus: &confirmed,
		}
	case gateway.IntentRequiresPaymentMethod, gateway.IntentRequiresAction:
		pending := entity.AppointmentStatusPending
		return ReconcileOutcome{
			Payment:           entity.PaymentRecordPending,
			AppointmentPay:    entity.PaymentStatusPending,
			AppointmentStatus: &pending,
		}
	default:
		return ReconcileOutcome{
			Payment:        entity.PaymentRecordFailed,
			AppointmentPay: entity.PaymentStatusFailed,
		}
	}
}
