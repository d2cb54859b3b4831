package stripe

import (
	"context"
	"encoding/json"
	"math"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/config"
)

// CheckoutLine is one priced entry of a checkout session.
type CheckoutLine struct {
	Name     string
	Price    float64
	Quantity int64
}

// SessionRequest describes a hosted checkout session to create. The metadata
// fields are echoed back verbatim by the provider on completion.
type SessionRequest struct {
	Currency            string
	Lines               []CheckoutLine
	OrderID             string
	UserID              string
	LocationID          string
	TableNumber         string
	SpecialInstructions string
}

// Session is the provider-neutral view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentID     string
	PaymentStatus string
	Paid          bool
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// Event is a verified webhook notification.
type Event struct {
	Type    string
	Session *Session
}

// EventCheckoutCompleted marks a finished checkout session.
const EventCheckoutCompleted = "checkout.session.completed"

// Gateway is the narrow payment-provider contract the workflow engine needs.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// Module provides the Stripe-backed gateway to Fx.
var Module = fx.Provide(NewGateway)

type stripeGateway struct {
	api *client.API
	cfg config.Stripe
}

// NewGateway builds a Gateway backed by the Stripe REST API.
func NewGateway(cfg config.Config) Gateway {
	api := &client.API{}
	api.Init(cfg.Stripe.SecretKey, nil)
	return &stripeGateway{api: api, cfg: cfg.Stripe}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	lineItems := make([]*stripeapi.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		lineItems = append(lineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency: stripeapi.String(req.Currency),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(line.Name),
				},
				UnitAmount: stripeapi.Int64(toMinorUnits(line.Price)),
			},
			Quantity: stripeapi.Int64(line.Quantity),
		})
	}

	params := &stripeapi.CheckoutSessionParams{
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripeapi.String(g.cfg.SuccessURL),
		CancelURL:          stripeapi.String(g.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("locationId", req.LocationID)
	params.AddMetadata("tableNumber", req.TableNumber)
	params.AddMetadata("specialInstructions", req.SpecialInstructions)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripeSession(sess), nil
}

func (g *stripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}
	return fromStripeSession(sess), nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.cfg.WebhookSecret)
	if err != nil {
		return nil, err
	}

	parsed := &Event{Type: string(event.Type)}
	if parsed.Type == EventCheckoutCompleted {
		var sess stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, err
		}
		parsed.Session = fromStripeSession(&sess)
	}
	return parsed, nil
}

func fromStripeSession(sess *stripeapi.CheckoutSession) *Session {
	out := &Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Paid:          sess.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentID = sess.PaymentIntent.ID
	}
	// Sessions with deferred payment methods have no intent yet; fall back to
	// the session id so reconciliation still has a stable dedup key.
	if out.PaymentID == "" {
		out.PaymentID = sess.ID
	}
	return out
}

func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
