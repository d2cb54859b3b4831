package platform

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	service "github.com/mesahq/mesa/internal/service/platform"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/platform")

// Handler exposes restaurant settings endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a platform Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. Config mutation is a
// fixed set of typed endpoints, one per updatable field.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	admin := auth.RequireRoles(entity.RoleAdmin)

	g := e.Group("/restaurant")
	g.GET("/config", h.getConfig)
	g.PATCH("/config/status", h.setStatus, admin)
	g.PATCH("/config/name", h.setName, admin)
	g.PATCH("/config/hours", h.setHours, admin)
	g.PATCH("/config/currency", h.setCurrency, admin)

	rates := g.Group("/tax-rates")
	rates.GET("", h.listTaxRates)
	rates.POST("", h.createTaxRate, admin)
	rates.PATCH("/:id", h.updateTaxRate, admin)
	rates.DELETE("/:id", h.deleteTaxRate, admin)

	couriers := g.Group("/delivery-services")
	couriers.GET("", h.listDeliveryServices)
	couriers.POST("", h.createDeliveryService, admin)
	couriers.PATCH("/:id", h.updateDeliveryService, admin)
	couriers.DELETE("/:id", h.deleteDeliveryService, admin)
}

func (h *Handler) getConfig(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.getConfig")
	defer span.End()

	cfg, err := h.svc.Config(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toConfigDTO(cfg)).Build()
}

func (h *Handler) setStatus(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.setStatus")
	defer span.End()

	cfg, err := h.svc.SetStatus(ctx, entity.RestaurantStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toConfigDTO(cfg)).Build()
}

func (h *Handler) setName(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.setName")
	defer span.End()

	cfg, err := h.svc.SetName(ctx, payload.Name)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toConfigDTO(cfg)).Build()
}

func (h *Handler) setHours(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		OpeningTime string `json:"openingTime"`
		ClosingTime string `json:"closingTime"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.setHours")
	defer span.End()

	cfg, err := h.svc.SetHours(ctx, payload.OpeningTime, payload.ClosingTime)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toConfigDTO(cfg)).Build()
}

func (h *Handler) setCurrency(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Currency string `json:"currency"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.setCurrency")
	defer span.End()

	cfg, err := h.svc.SetCurrency(ctx, payload.Currency)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toConfigDTO(cfg)).Build()
}

type taxRatePayload struct {
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) createTaxRate(c echo.Context) error {
	b := response.New(c)

	var payload taxRatePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.createTaxRate")
	defer span.End()

	rate, err := h.svc.CreateTaxRate(ctx, service.TaxRateInput{
		Name:     payload.Name,
		Rate:     payload.Rate,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toRateDTO(rate)).Build()
}

func (h *Handler) listTaxRates(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.listTaxRates")
	defer span.End()

	rates, err := h.svc.ListTaxRates(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.TaxServiceRateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, toRateDTO(rate))
	}
	return b.WithData(out).Build()
}

func (h *Handler) updateTaxRate(c echo.Context) error {
	b := response.New(c)

	var payload taxRatePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.updateTaxRate")
	defer span.End()

	rate, err := h.svc.UpdateTaxRate(ctx, c.Param("id"), service.TaxRateInput{
		Name:     payload.Name,
		Rate:     payload.Rate,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toRateDTO(rate)).Build()
}

func (h *Handler) deleteTaxRate(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.deleteTaxRate")
	defer span.End()

	if err := h.svc.DeleteTaxRate(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "rate deleted"}).Build()
}

type deliveryPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"isActive"`
}

func (h *Handler) createDeliveryService(c echo.Context) error {
	b := response.New(c)

	var payload deliveryPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.createDeliveryService")
	defer span.End()

	svc, err := h.svc.CreateDeliveryService(ctx, service.DeliveryInput{
		Name:     payload.Name,
		Phone:    payload.Phone,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDeliveryDTO(svc)).Build()
}

func (h *Handler) listDeliveryServices(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.listDeliveryServices")
	defer span.End()

	services, err := h.svc.ListDeliveryServices(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.DeliveryServiceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toDeliveryDTO(svc))
	}
	return b.WithData(out).Build()
}

func (h *Handler) updateDeliveryService(c echo.Context) error {
	b := response.New(c)

	var payload deliveryPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.updateDeliveryService")
	defer span.End()

	svc, err := h.svc.UpdateDeliveryService(ctx, c.Param("id"), service.DeliveryInput{
		Name:     payload.Name,
		Phone:    payload.Phone,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDeliveryDTO(svc)).Build()
}

func (h *Handler) deleteDeliveryService(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.deleteDeliveryService")
	defer span.End()

	if err := h.svc.DeleteDeliveryService(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "delivery service deleted"}).Build()
}

func toConfigDTO(cfg *entity.RestaurantConfig) dto.RestaurantConfigResponse {
	return dto.RestaurantConfigResponse{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Status:      string(cfg.Status),
		OpeningTime: cfg.OpeningTime,
		ClosingTime: cfg.ClosingTime,
		Currency:    cfg.Currency,
		UpdatedAt:   cfg.UpdatedAt,
	}
}

func toRateDTO(rate *entity.TaxServiceRate) dto.TaxServiceRateResponse {
	return dto.TaxServiceRateResponse{
		ID:       rate.ID,
		Name:     rate.Name,
		Rate:     rate.Rate,
		IsActive: rate.IsActive,
	}
}

func toDeliveryDTO(svc *entity.DeliveryService) dto.DeliveryServiceResponse {
	return dto.DeliveryServiceResponse{
		ID:       svc.ID,
		Name:     svc.Name,
		Phone:    svc.Phone,
		IsActive: svc.IsActive,
	}
}
