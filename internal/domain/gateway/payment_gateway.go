package gateway

import (
	"context"
	"errors"
)

// Provider-neutral intent statuses. Adapters translate their provider's vocabulary into these.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresAction        = "requires_action"
	IntentProcessing            = "processing"
	IntentCanceled              = "canceled"
)

// ErrIntentNotFound is returned by RetrieveIntent when the provider does not know the id.
var ErrIntentNotFound = errors.New("payment intent not found")

// ChargeRequest asks the provider to prepare a charge. Amount is in minor units.
type ChargeRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the provider's view of a charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	ReceiptURL   string
}

// PaymentGateway is the external card-payment provider.
type PaymentGateway interface {
	Name() string
	CreateIntent(ctx context.Context, req ChargeRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
