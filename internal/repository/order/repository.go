package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

var repoTracer = otel.Tracer("github.com/mesahq/mesa/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Filter narrows order listings.
type Filter struct {
	UserID     string
	LocationID string
}

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// CreateWithItems persists an order and all of its items in one transaction.
// Either every row lands or none do.
func (r *Repository) CreateWithItems(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateWithItems", trace.WithAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order with its items using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Items").
		Relation("Items.MenuItem").
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).
		Relation("Items").
		Relation("Items.MenuItem").
		Order("created_at DESC")
	if filter.UserID != "" {
		q = q.Where("?TableAlias.user_id = ?", filter.UserID)
	}
	if filter.LocationID != "" {
		q = q.Where("?TableAlias.location_id = ?", filter.LocationID)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets a new lifecycle status on the order.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// MarkPaid flips the paid flag to true. Setting an already-true flag is a
// no-op, which keeps the webhook and poll paths idempotent.
func (r *Repository) MarkPaid(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.MarkPaid", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("paid = TRUE").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an order; items cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
