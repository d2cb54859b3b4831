package location

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	service "github.com/mesahq/mesa/internal/service/location"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/location")

// Handler exposes branch endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a location Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	admin := auth.RequireRoles(entity.RoleAdmin)

	g := e.Group("/locations")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create, admin)
	g.PATCH("/:id", h.update, admin)
	g.DELETE("/:id", h.remove, admin)
}

type payload struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"isActive"`
}

func (p payload) toInput() service.Input {
	return service.Input{
		Name:     p.Name,
		Address:  p.Address,
		City:     p.City,
		Phone:    p.Phone,
		IsActive: p.IsActive,
	}
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var body payload
	if err := c.Bind(&body); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.create")
	defer span.End()

	loc, err := h.svc.Create(ctx, body.toInput())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(loc)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.getByID")
	defer span.End()

	loc, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(loc)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.list")
	defer span.End()

	locs, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.LocationResponse, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toDTO(loc))
	}
	return b.WithData(out).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	var body payload
	if err := c.Bind(&body); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.update")
	defer span.End()

	loc, err := h.svc.Update(ctx, c.Param("id"), body.toInput())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(loc)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.delete")
	defer span.End()

	if err := h.svc.Delete(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "location deleted"}).Build()
}

func toDTO(loc *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Address:   loc.Address,
		City:      loc.City,
		Phone:     loc.Phone,
		IsActive:  loc.IsActive,
		CreatedAt: loc.CreatedAt,
		UpdatedAt: loc.UpdatedAt,
	}
}
