package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	service "github.com/mesahq/mesa/internal/service/order"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/orders", auth.Require)
	g.POST("", h.create)
	g.GET("/user/orders", h.listMine)
	g.GET("/all", h.listAll)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	var payload struct {
		LocationID   string              `json:"locationId"`
		Items        []service.ItemInput `json:"items"`
		TotalAmount  float64             `json:"totalAmount"`
		SpecialNotes *string             `json:"specialNotes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.String("location.id", payload.LocationID)))
	defer span.End()

	order, err := h.svc.Create(ctx, caller, service.CreateInput{
		LocationID:   payload.LocationID,
		Items:        payload.Items,
		TotalAmount:  payload.TotalAmount,
		SpecialNotes: payload.SpecialNotes,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) listMine(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMine")
	defer span.End()

	orders, err := h.svc.ListMine(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) listAll(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listAll")
	defer span.End()

	orders, err := h.svc.ListAll(ctx, caller, c.QueryParam("locationId"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, caller, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)
	id := c.Param("id")

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, caller, id, entity.OrderStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, caller, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "order deleted"}).Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	out := dto.OrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		UserID:       order.UserID,
		LocationID:   order.LocationID,
		Status:       string(order.Status),
		Paid:         order.Paid,
		TotalAmount:  order.TotalAmount,
		SpecialNotes: order.SpecialNotes,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	for _, item := range order.Items {
		line := dto.OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Total:      item.Total,
		}
		if item.MenuItem != nil {
			line.Name = item.MenuItem.Name
		}
		out.Items = append(out.Items, line)
	}
	return out
}

func toDTOs(orders []*entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toDTO(order))
	}
	return out
}
