package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	repo "github.com/mesahq/mesa/internal/repository/catalog"
	service "github.com/mesahq/mesa/internal/service/catalog"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/catalog")

// Handler exposes menu endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. Reads are public; writes
// are admin only.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	admin := auth.RequireRoles(entity.RoleAdmin)

	categories := e.Group("/menu/categories")
	categories.GET("", h.listCategories)
	categories.GET("/:id", h.getCategory)
	categories.POST("", h.createCategory, admin)
	categories.PATCH("/:id", h.updateCategory, admin)
	categories.DELETE("/:id", h.deleteCategory, admin)

	items := e.Group("/menu/items")
	items.GET("", h.listItems)
	items.GET("/:id", h.getItem)
	items.POST("", h.createItem, admin)
	items.PATCH("/:id", h.updateItem, admin)
	items.DELETE("/:id", h.deleteItem, admin)
}

type categoryPayload struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     *bool  `json:"isActive"`
}

func (h *Handler) createCategory(c echo.Context) error {
	b := response.New(c)

	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.createCategory")
	defer span.End()

	category, err := h.svc.CreateCategory(ctx, service.CategoryInput{
		Name:         payload.Name,
		Description:  payload.Description,
		DisplayOrder: payload.DisplayOrder,
		IsActive:     payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toCategoryDTO(category)).Build()
}

func (h *Handler) getCategory(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.getCategory")
	defer span.End()

	category, err := h.svc.GetCategory(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toCategoryDTO(category)).Build()
}

func (h *Handler) listCategories(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.listCategories")
	defer span.End()

	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.MenuCategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryDTO(category))
	}
	return b.WithData(out).Build()
}

func (h *Handler) updateCategory(c echo.Context) error {
	b := response.New(c)

	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.updateCategory")
	defer span.End()

	category, err := h.svc.UpdateCategory(ctx, c.Param("id"), service.CategoryInput{
		Name:         payload.Name,
		Description:  payload.Description,
		DisplayOrder: payload.DisplayOrder,
		IsActive:     payload.IsActive,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toCategoryDTO(category)).Build()
}

func (h *Handler) deleteCategory(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.deleteCategory")
	defer span.End()

	if err := h.svc.DeleteCategory(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "category deleted"}).Build()
}

type itemPayload struct {
	CategoryID   string  `json:"categoryId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	IsVegetarian bool    `json:"isVegetarian"`
	IsAvailable  *bool   `json:"isAvailable"`
	PrepTimeMins *int    `json:"prepTimeMins"`
	ImageURL     *string `json:"imageUrl"`
}

func (p itemPayload) toInput() service.ItemInput {
	return service.ItemInput{
		CategoryID:   p.CategoryID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		IsVegetarian: p.IsVegetarian,
		IsAvailable:  p.IsAvailable,
		PrepTimeMins: p.PrepTimeMins,
		ImageURL:     p.ImageURL,
	}
}

func (h *Handler) createItem(c echo.Context) error {
	b := response.New(c)

	var payload itemPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.createItem")
	defer span.End()

	item, err := h.svc.CreateItem(ctx, payload.toInput())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toItemDTO(item)).Build()
}

func (h *Handler) getItem(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.getItem")
	defer span.End()

	item, err := h.svc.GetItem(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toItemDTO(item)).Build()
}

func (h *Handler) listItems(c echo.Context) error {
	b := response.New(c)

	filter := repo.ItemFilter{CategoryID: c.QueryParam("categoryId")}
	if raw := c.QueryParam("isVegetarian"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("isVegetarian must be a boolean")).Build()
		}
		filter.IsVegetarian = &value
	}
	if raw := c.QueryParam("isAvailable"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("isAvailable must be a boolean")).Build()
		}
		filter.IsAvailable = &value
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.listItems")
	defer span.End()

	items, err := h.svc.ListItems(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemDTO(item))
	}
	return b.WithData(out).Build()
}

func (h *Handler) updateItem(c echo.Context) error {
	b := response.New(c)

	var payload itemPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.updateItem")
	defer span.End()

	item, err := h.svc.UpdateItem(ctx, c.Param("id"), payload.toInput())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toItemDTO(item)).Build()
}

func (h *Handler) deleteItem(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.deleteItem")
	defer span.End()

	if err := h.svc.DeleteItem(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "item deleted"}).Build()
}

func toCategoryDTO(category *entity.MenuCategory) dto.MenuCategoryResponse {
	return dto.MenuCategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Description:  category.Description,
		DisplayOrder: category.DisplayOrder,
		IsActive:     category.IsActive,
		CreatedAt:    category.CreatedAt,
		UpdatedAt:    category.UpdatedAt,
	}
}

func toItemDTO(item *entity.MenuItem) dto.MenuItemResponse {
	out := dto.MenuItemResponse{
		ID:           item.ID,
		CategoryID:   item.CategoryID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		IsVegetarian: item.IsVegetarian,
		IsAvailable:  item.IsAvailable,
		PrepTimeMins: item.PrepTimeMins,
		ImageURL:     item.ImageURL,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.Category != nil {
		out.CategoryName = item.Category.Name
	}
	return out
}
