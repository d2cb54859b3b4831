package report

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	paymentrepo "github.com/mesahq/mesa/internal/repository/payment"
	service "github.com/mesahq/mesa/internal/service/report"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/report")

// Handler exposes admin reporting endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. The whole surface is
// admin only.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/reports", auth.RequireRoles(entity.RoleAdmin))
	g.GET("/payments", h.listPayments)
	g.GET("/payments/stats", h.paymentStats)
	g.GET("/payments/:id", h.getPayment)
	g.GET("/sales", h.listSales)
	g.GET("/sales/stats", h.salesStats)
	g.GET("/dashboard", h.dashboard)
}

func (h *Handler) listPayments(c echo.Context) error {
	b := response.New(c)

	from, to, err := window(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	filter := paymentrepo.Filter{
		UserID:  c.QueryParam("userId"),
		OrderID: c.QueryParam("orderId"),
		Status:  c.QueryParam("status"),
		From:    from,
		To:      to,
		Page:    intParam(c, "page"),
		Limit:   intParam(c, "limit"),
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.listPayments")
	defer span.End()

	page, err := h.svc.ListPayments(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toPaymentPage(page)).Build()
}

func (h *Handler) getPayment(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.getPayment")
	defer span.End()

	payment, err := h.svc.GetPayment(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toPaymentDTO(payment)).Build()
}

func (h *Handler) paymentStats(c echo.Context) error {
	b := response.New(c)

	from, to, err := window(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.paymentStats")
	defer span.End()

	stats, err := h.svc.PaymentStats(ctx, from, to)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(stats).Build()
}

func (h *Handler) listSales(c echo.Context) error {
	b := response.New(c)

	from, to, err := window(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.listSales")
	defer span.End()

	page, err := h.svc.ListSales(ctx, from, to, intParam(c, "page"), intParam(c, "limit"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toSalePage(page)).Build()
}

func (h *Handler) salesStats(c echo.Context) error {
	b := response.New(c)

	from, to, err := window(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.salesStats")
	defer span.End()

	stats, err := h.svc.SalesStats(ctx, from, to)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(stats).Build()
}

func (h *Handler) dashboard(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.dashboard")
	defer span.End()

	metrics, err := h.svc.Dashboard(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(metrics).Build()
}

// window parses the optional from/to query params. Dates are YYYY-MM-DD;
// the to bound is pushed to the end of its day.
func window(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errorbank.BadRequest("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errorbank.BadRequest("to must be YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func intParam(c echo.Context, name string) int {
	value, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return value
}

func toPaymentDTO(payment *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                payment.ID,
		UserID:            payment.UserID,
		OrderID:           payment.OrderID,
		ProviderPaymentID: payment.ProviderPaymentID,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Status:            payment.Status,
		CreatedAt:         payment.CreatedAt,
	}
}

func toPaymentPage(page *dto.Page[*entity.Payment]) dto.Page[dto.PaymentResponse] {
	out := dto.Page[dto.PaymentResponse]{
		Items:      make([]dto.PaymentResponse, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
	for _, payment := range page.Items {
		out.Items = append(out.Items, toPaymentDTO(payment))
	}
	return out
}

func toSalePage(page *dto.Page[*entity.Sale]) dto.Page[dto.SaleResponse] {
	out := dto.Page[dto.SaleResponse]{
		Items:      make([]dto.SaleResponse, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
	for _, sale := range page.Items {
		out.Items = append(out.Items, dto.SaleResponse{
			ID:        sale.ID,
			OrderID:   sale.OrderID,
			Amount:    sale.Amount,
			CreatedAt: sale.CreatedAt,
		})
	}
	return out
}
