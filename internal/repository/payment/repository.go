package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

var repoTracer = otel.Tracer("github.com/mesahq/mesa/repository/payment")

// ErrNotFound is returned when a payment is missing.
var ErrNotFound = errors.New("payment not found")

// ErrDuplicate signals that the provider payment id was already recorded.
// Callers treat it as a successful no-op: webhook redelivery must not create
// a second Payment or Sale row.
var ErrDuplicate = errors.New("payment already recorded")

// Filter narrows payment listings.
type Filter struct {
	UserID  string
	OrderID string
	Status  string
	From    time.Time
	To      time.Time
	Page    int
	Limit   int
}

// Repository encapsulates payment and sale persistence.
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

// RecordCheckout writes the Payment row, the Sale row, and the order's paid
// flag as one transaction. The payment insert is keyed on the provider
// payment id: if that row already exists the whole call returns ErrDuplicate
// and nothing is written, making webhook redelivery safe.
func (r *Repository) RecordCheckout(ctx context.Context, payment *entity.Payment, sale *entity.Sale) error {
	if payment == nil || sale == nil {
		return errors.New("nil payment or sale")
	}
	ctx, span := repoTracer.Start(ctx, "PaymentRepository.RecordCheckout", trace.WithAttributes(
		attribute.String("payment.provider_id", payment.ProviderPaymentID),
		attribute.String("payment.order_id", payment.OrderID),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().Model(payment).
			On("CONFLICT (provider_payment_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDuplicate
		}

		if _, err := tx.NewInsert().Model(sale).Exec(ctx); err != nil {
			return err
		}

		_, err = tx.NewUpdate().Model((*entity.Order)(nil)).
			Set("paid = TRUE").
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("id = ?", payment.OrderID).
			Exec(ctx)
		return err
	})
	if err != nil && !errors.Is(err, ErrDuplicate) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
	}
	return err
}

// GetByID fetches a single payment.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	payment := new(entity.Payment)
	err := r.reader.NewSelect().Model(payment).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// List returns payments matching the filter with a total count for paging.
func (r *Repository) List(ctx context.Context, filter Filter) ([]*entity.Payment, int, error) {
	ctx, span := repoTracer.Start(ctx, "PaymentRepository.List")
	defer span.End()

	var payments []*entity.Payment
	q := r.reader.NewSelect().Model(&payments).Order("created_at DESC")
	q = applyFilter(q, filter)

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
		if filter.Page > 1 {
			q = q.Offset((filter.Page - 1) * filter.Limit)
		}
	}

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return payments, count, nil
}

// ListSales returns sales in the window with a total count for paging.
func (r *Repository) ListSales(ctx context.Context, from, to time.Time, page, limit int) ([]*entity.Sale, int, error) {
	var sales []*entity.Sale
	q := r.reader.NewSelect().Model(&sales).Order("created_at DESC")
	if !from.IsZero() {
		q = q.Where("?TableAlias.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("?TableAlias.created_at <= ?", to)
	}
	if limit > 0 {
		q = q.Limit(limit)
		if page > 1 {
			q = q.Offset((page - 1) * limit)
		}
	}
	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return sales, count, nil
}

func applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.UserID != "" {
		q = q.Where("?TableAlias.user_id = ?", filter.UserID)
	}
	if filter.OrderID != "" {
		q = q.Where("?TableAlias.order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		q = q.Where("?TableAlias.status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		q = q.Where("?TableAlias.created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("?TableAlias.created_at <= ?", filter.To)
	}
	return q
}
