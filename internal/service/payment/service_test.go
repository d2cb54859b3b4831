package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/messaging"
	repo "github.com/mesahq/mesa/internal/repository/payment"
	"github.com/mesahq/mesa/internal/stripe"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeGateway struct {
	session     *stripe.Session
	event       *stripe.Event
	parseErr    error
	retrieveErr error
	createErr   error
	createCalls int
	lastRequest stripe.SessionRequest
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req stripe.SessionRequest) (*stripe.Session, error) {
	f.createCalls++
	f.lastRequest = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) RetrieveSession(_ context.Context, _ string) (*stripe.Session, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.session, nil
}

func (f *fakeGateway) ParseWebhook(_ []byte, _ string) (*stripe.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

// fakeRecorder enforces provider payment id uniqueness the way the database
// unique constraint does.
type fakeRecorder struct {
	payments map[string]*entity.Payment
	sales    []*entity.Sale
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{payments: map[string]*entity.Payment{}}
}

func (f *fakeRecorder) RecordCheckout(_ context.Context, p *entity.Payment, s *entity.Sale) error {
	if _, exists := f.payments[p.ProviderPaymentID]; exists {
		return repo.ErrDuplicate
	}
	f.payments[p.ProviderPaymentID] = p
	f.sales = append(f.sales, s)
	return nil
}

type fakeMarker struct {
	paid map[string]int
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{paid: map[string]int{}}
}

func (f *fakeMarker) MarkPaid(_ context.Context, id string) error {
	f.paid[id]++
	return nil
}

type capturePublisher struct {
	topics   []string
	payloads [][]byte
}

func (c *capturePublisher) Publish(_ context.Context, topic string, _ []byte, value []byte) error {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, value)
	return nil
}

func (c *capturePublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestService(gw *fakeGateway, rec *fakeRecorder, marker *fakeMarker, pub *capturePublisher) *Service {
	return &Service{
		gateway:   gw,
		payments:  rec,
		orders:    marker,
		logger:    zap.NewNop(),
		publisher: pub,
		messaging: messagingConfig{enabled: pub != nil, topic: "payments.events"},
	}
}

func completedSession() *stripe.Session {
	return &stripe.Session{
		ID:            "cs_1",
		PaymentID:     "pi_1",
		PaymentStatus: "paid",
		Paid:          true,
		AmountTotal:   2500,
		Currency:      "usd",
		Metadata:      map[string]string{"orderId": "o1", "userId": "u1"},
	}
}

func TestWebhookRedeliveryRecordsOnce(t *testing.T) {
	gw := &fakeGateway{event: &stripe.Event{Type: stripe.EventCheckoutCompleted, Session: completedSession()}}
	rec := newFakeRecorder()
	pub := &capturePublisher{}
	svc := newTestService(gw, rec, newFakeMarker(), pub)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	}

	require.Len(t, rec.payments, 1)
	require.Len(t, rec.sales, 1)
	p := rec.payments["pi_1"]
	assert.Equal(t, "o1", p.OrderID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, 25.00, p.Amount)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, 25.00, rec.sales[0].Amount)

	assert.Len(t, pub.topics, 1, "only the first delivery publishes")
	assert.Equal(t, "payments.events", pub.topics[0])
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	gw := &fakeGateway{parseErr: errors.New("bad signature")}
	rec := newFakeRecorder()
	svc := newTestService(gw, rec, newFakeMarker(), nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Empty(t, rec.payments)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	gw := &fakeGateway{event: &stripe.Event{Type: "payment_intent.created"}}
	rec := newFakeRecorder()
	svc := newTestService(gw, rec, newFakeMarker(), nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, rec.payments)
}

func TestWebhookAcksWhenOrderReferenceMissing(t *testing.T) {
	sess := completedSession()
	sess.Metadata = map[string]string{}
	gw := &fakeGateway{event: &stripe.Event{Type: stripe.EventCheckoutCompleted, Session: sess}}
	rec := newFakeRecorder()
	svc := newTestService(gw, rec, newFakeMarker(), nil)

	// Processing fails but the provider still gets an acknowledgement.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, rec.payments)
}

func TestVerifyPaymentConverges(t *testing.T) {
	gw := &fakeGateway{session: completedSession()}
	rec := newFakeRecorder()
	marker := newFakeMarker()
	svc := newTestService(gw, rec, marker, nil)

	for i := 0; i < 3; i++ {
		orderID, err := svc.VerifyPayment(context.Background(), "cs_1")
		require.NoError(t, err)
		assert.Equal(t, "o1", orderID)
	}

	assert.Equal(t, 3, marker.paid["o1"])
	assert.Empty(t, rec.payments, "the poll path never writes payment rows")
	assert.Empty(t, rec.sales)
}

func TestVerifyPaymentRequiresCompletion(t *testing.T) {
	sess := completedSession()
	sess.Paid = false
	gw := &fakeGateway{session: sess}
	marker := newFakeMarker()
	svc := newTestService(gw, newFakeRecorder(), marker, nil)

	_, err := svc.VerifyPayment(context.Background(), "cs_1")
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Contains(t, err.Error(), "Payment not completed")
	assert.Empty(t, marker.paid)
}

func TestVerifyPaymentRequiresOrderMetadata(t *testing.T) {
	sess := completedSession()
	sess.Metadata = map[string]string{}
	gw := &fakeGateway{session: sess}
	svc := newTestService(gw, newFakeRecorder(), newFakeMarker(), nil)

	_, err := svc.VerifyPayment(context.Background(), "cs_1")
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
}

func TestCreateCheckoutSessionPassesMetadata(t *testing.T) {
	gw := &fakeGateway{session: &stripe.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc := newTestService(gw, newFakeRecorder(), newFakeMarker(), nil)

	caller := token.Identity{UserID: "u1", Role: entity.RoleCustomer}
	url, err := svc.CreateCheckoutSession(context.Background(), caller, CheckoutInput{
		OrderID:     "o1",
		LocationID:  "loc1",
		TableNumber: "7",
		Items:       []CheckoutItem{{Name: "Margherita", Price: 12.50, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", url)

	assert.Equal(t, "o1", gw.lastRequest.OrderID)
	assert.Equal(t, "u1", gw.lastRequest.UserID)
	assert.Equal(t, "loc1", gw.lastRequest.LocationID)
	assert.Equal(t, "7", gw.lastRequest.TableNumber)
	assert.Equal(t, "usd", gw.lastRequest.Currency)
	require.Len(t, gw.lastRequest.Lines, 1)
	assert.Equal(t, 12.50, gw.lastRequest.Lines[0].Price)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, newFakeRecorder(), newFakeMarker(), nil)
	caller := token.Identity{UserID: "u1"}

	_, err := svc.CreateCheckoutSession(context.Background(), caller, CheckoutInput{
		Items: []CheckoutItem{{Name: "Margherita", Price: 12.50, Quantity: 1}},
	})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err), "missing order id must not reach the provider")
	assert.Zero(t, gw.createCalls)

	_, err = svc.CreateCheckoutSession(context.Background(), caller, CheckoutInput{OrderID: "o1"})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))

	_, err = svc.CreateCheckoutSession(context.Background(), caller, CheckoutInput{
		OrderID: "o1",
		Items:   []CheckoutItem{{Name: "", Price: 1, Quantity: 1}},
	})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("stripe down")}
	svc := newTestService(gw, newFakeRecorder(), newFakeMarker(), nil)

	_, err := svc.CreateCheckoutSession(context.Background(), token.Identity{UserID: "u1"}, CheckoutInput{
		OrderID: "o1",
		Items:   []CheckoutItem{{Name: "Margherita", Price: 12.50, Quantity: 1}},
	})
	assert.Equal(t, errorbank.KindUnavailable, errorbank.KindOf(err))
}
