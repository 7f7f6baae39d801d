package payment

import (
	"context"
	"fmt"
	"strings"

	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"

	razorpay "github.com/razorpay/razorpay-go"
)

// razorpayOrders is the part of the razorpay client the gateway uses.
type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway maps Razorpay orders onto intents. The order id doubles as the client token:
// checkout.js opens the order by id and the caller confirms with the same id.
type RazorpayGateway struct {
	orders razorpayOrders
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	c := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{orders: c.Order}
}

func (g *RazorpayGateway) Name() string {
	return entity.ProviderRazorpay
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, req gateway.ChargeRequest) (*gateway.Intent, error) {
	notes := make(map[string]interface{}, len(req.Metadata))
	for k, v := range req.Metadata {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": strings.ToUpper(req.Currency),
		"notes":    notes,
	}
	if id, ok := req.Metadata["appointmentId"]; ok {
		data["receipt"] = id
	}

	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return g.orders.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order response without id")
	}
	status, _ := body["status"].(string)

	return &gateway.Intent{
		ID:           id,
		ClientSecret: id,
		Status:       razorpayOrderStatus(status),
	}, nil
}

func (g *RazorpayGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return g.orders.Fetch(id, nil, nil)
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "does not exist") {
			return nil, gateway.ErrIntentNotFound
		}
		return nil, err
	}

	status, _ := body["status"].(string)
	return &gateway.Intent{
		ID:     id,
		Status: razorpayOrderStatus(status),
	}, nil
}

// razorpayOrderStatus: created/attempted orders still await a successful payment.
func razorpayOrderStatus(status string) string {
	switch status {
	case "paid":
		return gateway.IntentSucceeded
	case "created", "attempted":
		return gateway.IntentRequiresPaymentMethod
	default:
		return gateway.IntentCanceled
	}
}

// withContext runs a blocking client call and gives up when ctx ends. The razorpay client has no
// context support.
func withContext(ctx context.Context, call func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := call()
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}
