package payment

import (
	"io"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	service "github.com/mesahq/mesa/internal/service/payment"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/payment")

// Handler exposes checkout and reconciliation endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a payment Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. The webhook is
// intentionally outside the auth chain; it is authenticated by its
// provider signature instead.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/payments", auth.Require)
	g.POST("/create-checkout-session", h.createCheckoutSession)
	g.POST("/verify-payment", h.verifyPayment)

	e.POST("/stripe/webhook", h.webhook)
}

func (h *Handler) createCheckoutSession(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	var payload struct {
		OrderID             string                 `json:"orderId"`
		LocationID          string                 `json:"locationId"`
		TableNumber         string                 `json:"tableNumber"`
		SpecialInstructions string                 `json:"specialInstructions"`
		Currency            string                 `json:"currency"`
		Items               []service.CheckoutItem `json:"items"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.createCheckoutSession", trace.WithAttributes(attribute.String("order.id", payload.OrderID)))
	defer span.End()

	url, err := h.svc.CreateCheckoutSession(ctx, caller, service.CheckoutInput{
		OrderID:             payload.OrderID,
		LocationID:          payload.LocationID,
		TableNumber:         payload.TableNumber,
		SpecialInstructions: payload.SpecialInstructions,
		Currency:            payload.Currency,
		Items:               payload.Items,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.CheckoutResponse{URL: url}).Build()
}

func (h *Handler) verifyPayment(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.verifyPayment", trace.WithAttributes(attribute.String("session.id", payload.SessionID)))
	defer span.End()

	orderID, err := h.svc.VerifyPayment(ctx, payload.SessionID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]string{
		"message": "Payment verified",
		"orderId": orderID,
	}).Build()
}

// webhook reads the raw body; signature verification needs the exact bytes
// the provider signed, so no binding happens here.
func (h *Handler) webhook(c echo.Context) error {
	b := response.New(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return b.WithError(errorbank.BadRequest("unreadable body", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.webhook")
	defer span.End()

	if err := h.svc.HandleWebhook(ctx, payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"received": "true"}).Build()
}
