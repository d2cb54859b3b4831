package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/messaging"
	"github.com/mesahq/mesa/internal/observability"
	orderrepo "github.com/mesahq/mesa/internal/repository/order"
	repo "github.com/mesahq/mesa/internal/repository/payment"
	"github.com/mesahq/mesa/internal/stripe"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/payment")

// Recorder persists the transactional outcome of a completed checkout.
type Recorder interface {
	RecordCheckout(ctx context.Context, payment *entity.Payment, sale *entity.Sale) error
}

// OrderMarker flips an order's paid flag. The update is idempotent.
type OrderMarker interface {
	MarkPaid(ctx context.Context, id string) error
}

// CheckoutItem is one client-supplied line of a checkout session.
type CheckoutItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// CheckoutInput describes a checkout session to open with the provider.
type CheckoutInput struct {
	OrderID             string
	LocationID          string
	TableNumber         string
	SpecialInstructions string
	Currency            string
	Items               []CheckoutItem
}

// Service drives checkout initiation and payment reconciliation. The webhook
// and the verify poll may race; both paths converge on the same final state.
type Service struct {
	gateway   stripe.Gateway
	payments  Recorder
	orders    OrderMarker
	logger    *zap.Logger
	publisher messaging.Client
	metrics   *observability.Metrics
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Gateway   stripe.Gateway
	Payments  *repo.Repository
	Orders    *orderrepo.Repository
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Metrics   *observability.Metrics
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		gateway:   p.Gateway,
		payments:  p.Payments,
		orders:    p.Orders,
		logger:    p.Logger,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.PaymentTopic,
		},
	}
}

// CreateCheckoutSession opens a provider-hosted checkout for the given lines
// and returns the redirect URL. Order linkage travels in session metadata and
// comes back on the webhook.
func (s *Service) CreateCheckoutSession(ctx context.Context, caller token.Identity, in CheckoutInput) (string, error) {
	ctx, span := serviceTracer.Start(ctx, "PaymentService.CreateCheckoutSession", trace.WithAttributes(attribute.String("order.id", in.OrderID)))
	defer span.End()

	// Without an order reference the completed session could never be
	// reconciled back onto an order.
	if in.OrderID == "" {
		return "", errorbank.BadRequest("order id is required")
	}
	if len(in.Items) == 0 {
		return "", errorbank.BadRequest("checkout requires at least one item")
	}
	for _, item := range in.Items {
		if item.Name == "" || item.Price <= 0 || item.Quantity <= 0 {
			return "", errorbank.BadRequest("each item needs a name, a positive price, and a positive quantity")
		}
	}
	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}

	lines := make([]stripe.CheckoutLine, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, stripe.CheckoutLine{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.SessionRequest{
		Currency:            currency,
		Lines:               lines,
		OrderID:             in.OrderID,
		UserID:              caller.UserID,
		LocationID:          in.LocationID,
		TableNumber:         in.TableNumber,
		SpecialInstructions: in.SpecialInstructions,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return "", errorbank.Unavailable("payment provider unavailable", errorbank.WithCause(err))
	}
	if s.metrics != nil {
		s.metrics.CheckoutSessions.Inc()
	}
	return session.URL, nil
}

// HandleWebhook verifies and processes a provider notification. A signature
// failure is the only error surfaced to the caller; once the payload is
// authentic the provider always gets an acknowledgement, with processing
// problems logged instead of returned, so redelivery storms cannot build up.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := serviceTracer.Start(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if s.metrics != nil {
			s.metrics.WebhookRejected.Inc()
		}
		return errorbank.BadRequest("webhook signature verification failed", errorbank.WithCause(err))
	}

	if event.Type != stripe.EventCheckoutCompleted || event.Session == nil {
		return nil
	}
	if err := s.recordCompleted(ctx, event.Session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconciliation failed")
		s.logger.Error("webhook reconciliation failed",
			zap.String("session_id", event.Session.ID),
			zap.Error(err),
		)
	}
	return nil
}

// VerifyPayment is the client-driven poll path. It re-reads the session from
// the provider and, when paid, marks the order. It never writes Payment or
// Sale rows; those belong to the webhook path alone.
func (s *Service) VerifyPayment(ctx context.Context, sessionID string) (string, error) {
	ctx, span := serviceTracer.Start(ctx, "PaymentService.VerifyPayment", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	if sessionID == "" {
		return "", errorbank.BadRequest("session id is required")
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return "", errorbank.Unavailable("payment provider unavailable", errorbank.WithCause(err))
	}
	if !session.Paid {
		return "", errorbank.BadRequest("Payment not completed")
	}
	orderID := session.Metadata["orderId"]
	if orderID == "" {
		return "", errorbank.BadRequest("session has no order reference")
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return "", errorbank.Internal("failed to mark order paid", errorbank.WithCause(err))
	}
	return orderID, nil
}

// recordCompleted writes the Payment and Sale rows and flips the order to
// paid, all in one transaction keyed on the provider payment id. Redelivered
// events hit the unique key and become a no-op.
func (s *Service) recordCompleted(ctx context.Context, session *stripe.Session) error {
	orderID := session.Metadata["orderId"]
	if orderID == "" {
		return errors.New("completed session carries no orderId metadata")
	}

	now := time.Now().UTC()
	amount := float64(session.AmountTotal) / 100
	paymentRow := &entity.Payment{
		ID:                uuid.NewString(),
		UserID:            session.Metadata["userId"],
		OrderID:           orderID,
		ProviderPaymentID: session.PaymentID,
		Amount:            amount,
		Currency:          session.Currency,
		Status:            session.PaymentStatus,
		CreatedAt:         now,
	}
	sale := &entity.Sale{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    amount,
		CreatedAt: now,
	}

	err := s.payments.RecordCheckout(ctx, paymentRow, sale)
	if errors.Is(err, repo.ErrDuplicate) {
		s.logger.Debug("duplicate payment event ignored",
			zap.String("provider_payment_id", session.PaymentID),
			zap.String("order_id", orderID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	s.publishRecorded(ctx, paymentRow)
	return nil
}

func (s *Service) publishRecorded(ctx context.Context, paymentRow *entity.Payment) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := RecordedEvent{
		ID:                paymentRow.ID,
		OrderID:           paymentRow.OrderID,
		UserID:            paymentRow.UserID,
		ProviderPaymentID: paymentRow.ProviderPaymentID,
		Amount:            paymentRow.Amount,
		Currency:          paymentRow.Currency,
		CreatedAt:         paymentRow.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal payment recorded", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.messaging.topic, []byte(paymentRow.OrderID), payload); err != nil {
		s.logger.Error("publish payment recorded", zap.String("order_id", paymentRow.OrderID), zap.Error(err))
	}
}

// RecordedEvent is emitted once per first-time payment reconciliation.
type RecordedEvent struct {
	ID                string    `json:"id"`
	OrderID           string    `json:"order_id"`
	UserID            string    `json:"user_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}
