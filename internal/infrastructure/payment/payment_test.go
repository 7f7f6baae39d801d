package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"doctor-appointment-api/config"
	"doctor-appointment-api/internal/domain/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	args := m.Called(data, extraHeaders)
	body, _ := args.Get(0).(map[string]interface{})
	return body, args.Error(1)
}

func (m *mockOrders) Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	args := m.Called(orderID, queryParams, extraHeaders)
	body, _ := args.Get(0).(map[string]interface{})
	return body, args.Error(1)
}

func TestRazorpayGateway_CreateIntent(t *testing.T) {
	orders := new(mockOrders)
	g := &RazorpayGateway{orders: orders}

	orders.On("Create", mock.MatchedBy(func(data map[string]interface{}) bool {
		return data["amount"] == int64(50000) && data["currency"] == "INR" && data["receipt"] == "a1"
	}), map[string]string(nil)).Return(map[string]interface{}{"id": "order_1", "status": "created"}, nil)

	intent, err := g.CreateIntent(context.Background(), gateway.ChargeRequest{
		Amount:   50000,
		Currency: "inr",
		Metadata: map[string]string{"appointmentId": "a1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "order_1", intent.ID)
	assert.Equal(t, "order_1", intent.ClientSecret)
	assert.Equal(t, gateway.IntentRequiresPaymentMethod, intent.Status)
	orders.AssertExpectations(t)
}

func TestRazorpayGateway_RetrieveIntent(t *testing.T) {
	orders := new(mockOrders)
	g := &RazorpayGateway{orders: orders}

	orders.On("Fetch", "order_paid", mock.Anything, mock.Anything).Return(map[string]interface{}{"status": "paid"}, nil)
	orders.On("Fetch", "order_missing", mock.Anything, mock.Anything).Return(nil, errors.New("The id provided does not exist"))

	intent, err := g.RetrieveIntent(context.Background(), "order_paid")
	require.NoError(t, err)
	assert.Equal(t, gateway.IntentSucceeded, intent.Status)

	_, err = g.RetrieveIntent(context.Background(), "order_missing")
	assert.ErrorIs(t, err, gateway.ErrIntentNotFound)
}

func TestRazorpayOrderStatus(t *testing.T) {
	assert.Equal(t, gateway.IntentSucceeded, razorpayOrderStatus("paid"))
	assert.Equal(t, gateway.IntentRequiresPaymentMethod, razorpayOrderStatus("attempted"))
	assert.Equal(t, gateway.IntentCanceled, razorpayOrderStatus("expired"))
}

func TestWithContextHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := withContext(ctx, func() (map[string]interface{}, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGateway(t *testing.T) {
	g, err := NewGateway(config.PaymentConfig{Provider: "stripe", StripeSecretKey: "sk_test_x"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", g.Name())

	g, err = NewGateway(config.PaymentConfig{Provider: "razorpay", RazorpayKeyID: "id", RazorpayKeySecret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", g.Name())

	_, err = NewGateway(config.PaymentConfig{Provider: "stripe"})
	assert.Error(t, err)

	_, err = NewGateway(config.PaymentConfig{Provider: "paypal"})
	assert.Error(t, err)
}
