package payment

import (
	"fmt"

	"doctor-appointment-api/config"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"
)

// NewGateway builds the adapter selected by PAYMENT_PROVIDER.
func NewGateway(cfg config.PaymentConfig) (gateway.PaymentGateway, error) {
	switch cfg.Provider {
	case entity.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required for provider %q", cfg.Provider)
		}
		return NewStripeGateway(cfg.StripeSecretKey), nil
	case entity.ProviderRazorpay:
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for provider %q", cfg.Provider)
		}
		return NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}
