package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates and reads Stripe PaymentIntents. Stripe's intent statuses already use the
// gateway vocabulary and pass through unchanged.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Name() string {
	return entity.ProviderStripe
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req gateway.ChargeRequest) (*gateway.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}

	return &gateway.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// RetrieveIntent expands the latest charge to read its receipt URL.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) &&
			(stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing) {
			return nil, gateway.ErrIntentNotFound
		}
		return nil, err
	}

	intent := &gateway.Intent{
		ID:     pi.ID,
		Status: string(pi.Status),
	}
	if pi.LatestCharge != nil {
		intent.ReceiptURL = pi.LatestCharge.ReceiptURL
	}
	return intent, nil
}
