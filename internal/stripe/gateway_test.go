package stripe

import (
	"testing"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		price float64
		want  int64
	}{
		{0, 0},
		{4.00, 400},
		{12.50, 1250},
		{19.99, 1999},
		// 0.1+0.2 style float noise must still land on the right cent.
		{29.289999999999996, 2929},
		{0.005, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, toMinorUnits(tc.price), "price %v", tc.price)
	}
}

func TestFromStripeSessionUsesPaymentIntentID(t *testing.T) {
	sess := &stripeapi.CheckoutSession{
		ID:            "cs_123",
		URL:           "https://checkout.example/cs_123",
		PaymentStatus: stripeapi.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   2500,
		Currency:      "usd",
		Metadata:      map[string]string{"orderId": "o1"},
		PaymentIntent: &stripeapi.PaymentIntent{ID: "pi_123"},
	}

	out := fromStripeSession(sess)

	assert.Equal(t, "cs_123", out.ID)
	assert.Equal(t, "pi_123", out.PaymentID)
	assert.True(t, out.Paid)
	assert.Equal(t, int64(2500), out.AmountTotal)
	assert.Equal(t, "usd", out.Currency)
	assert.Equal(t, "o1", out.Metadata["orderId"])
}

func TestFromStripeSessionFallsBackToSessionID(t *testing.T) {
	sess := &stripeapi.CheckoutSession{
		ID:            "cs_456",
		PaymentStatus: stripeapi.CheckoutSessionPaymentStatusUnpaid,
	}

	out := fromStripeSession(sess)

	assert.Equal(t, "cs_456", out.PaymentID)
	assert.False(t, out.Paid)
}
