package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	catalogrepo "github.com/mesahq/mesa/internal/repository/catalog"
	repo "github.com/mesahq/mesa/internal/repository/order"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/order")

// Store is the order persistence surface the service depends on.
type Store interface {
	CreateWithItems(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, filter repo.Filter) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error)
	Delete(ctx context.Context, id string) error
}

// PriceLookup resolves current menu prices for a set of item ids.
type PriceLookup interface {
	PriceMap(ctx context.Context, ids []string) (map[string]float64, error)
}

// ItemInput is one requested order line.
type ItemInput struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

// CreateInput carries everything needed to place an order.
type CreateInput struct {
	LocationID   string
	Items        []ItemInput
	TotalAmount  float64
	SpecialNotes *string
}

// Service encapsulates business logic around orders.
type Service struct {
	orders    Store
	prices    PriceLookup
	logger    *zap.Logger
	publisher messaging.Client
	metrics   *observability.Metrics
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Catalog   *catalogrepo.Repository
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Metrics   *observability.Metrics
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:    p.Orders,
		prices:    p.Catalog,
		logger:    p.Logger,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.OrderTopic,
		},
	}
}

// Create validates the request, snapshots current menu prices, and persists
// the order with its items in one transaction. The client-supplied total is
// stored as submitted; it is not recomputed from the item lines.
func (s *Service) Create(ctx context.Context, caller token.Identity, in CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("user.id", caller.UserID)))
	defer span.End()

	if caller.UserID == "" {
		return nil, errorbank.Unauthorized("authentication required")
	}
	if len(in.Items) == 0 {
		return nil, errorbank.BadRequest("order must contain at least one item")
	}
	if in.TotalAmount <= 0 {
		return nil, errorbank.BadRequest("total amount must be positive")
	}
	if in.LocationID == "" {
		return nil, errorbank.BadRequest("location id is required")
	}
	ids := make([]string, 0, len(in.Items))
	for i, item := range in.Items {
		if item.MenuItemID == "" {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: menu item id is required", i))
		}
		if item.Quantity <= 0 {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		ids = append(ids, item.MenuItemID)
	}

	prices, err := s.prices.PriceMap(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price lookup failed")
		return nil, errorbank.Internal("failed to load menu prices", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	order := &entity.Order{
		ID:           uuid.NewString(),
		UserID:       caller.UserID,
		LocationID:   in.LocationID,
		OrderNumber:  fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), caller.UserID),
		TotalAmount:  in.TotalAmount,
		Status:       entity.OrderPending,
		Paid:         false,
		SpecialNotes: in.SpecialNotes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	items := make([]*entity.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		price, ok := prices[item.MenuItemID]
		if !ok {
			return nil, errorbank.BadRequest("Menu item not found: " + item.MenuItemID)
		}
		items = append(items, &entity.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: item.MenuItemID,
			Price:      price,
			Quantity:   item.Quantity,
			Total:      price * float64(item.Quantity),
			CreatedAt:  now,
		})
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	order.Items = items

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	s.publishCreated(ctx, order)
	return order, nil
}

// Get loads one order. Customers may only read their own orders.
func (s *Service) Get(ctx context.Context, caller token.Identity, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if caller.Role == entity.RoleCustomer && order.UserID != caller.UserID {
		return nil, errorbank.Forbidden("order belongs to another user")
	}
	return order, nil
}

// ListMine returns the caller's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, caller token.Identity) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListMine")
	defer span.End()

	orders, err := s.orders.List(ctx, repo.Filter{UserID: caller.UserID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListAll returns orders visible to staff and admins. Staff see their own
// location only; admins may narrow by location.
func (s *Service) ListAll(ctx context.Context, caller token.Identity, locationID string) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListAll")
	defer span.End()

	if caller.Role != entity.RoleStaff && caller.Role != entity.RoleAdmin {
		return nil, errorbank.Forbidden("staff or admin role required")
	}

	filter := repo.Filter{LocationID: locationID}
	if caller.Role == entity.RoleStaff {
		filter.LocationID = caller.LocationID
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// UpdateStatus moves an order to the given status. Any known status may
// follow any other; only the value itself is validated.
func (s *Service) UpdateStatus(ctx context.Context, caller token.Identity, id string, status entity.OrderStatus) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if caller.Role != entity.RoleStaff && caller.Role != entity.RoleAdmin {
		return nil, errorbank.Forbidden("staff or admin role required")
	}
	if !status.Valid() {
		return nil, errorbank.BadRequest("unknown order status: " + string(status))
	}

	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	return order, nil
}

// Delete removes an order. The owner and admins may delete at any point in
// the lifecycle.
func (s *Service) Delete(ctx context.Context, caller token.Identity, id string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if caller.Role != entity.RoleAdmin && order.UserID != caller.UserID {
		return errorbank.Forbidden("order belongs to another user")
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := CreatedEvent{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		LocationID:  order.LocationID,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order created", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, s.messaging.topic, []byte(order.ID), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order created", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
}

// CreatedEvent is emitted when a new order is persisted.
type CreatedEvent struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	LocationID  string    `json:"location_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
