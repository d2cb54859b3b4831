package report

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// StatusCount is one row of a grouped count.
type StatusCount struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

// LocationAmount is one row of a grouped sum keyed by location.
type LocationAmount struct {
	LocationID string  `bun:"location_id"`
	Amount     float64 `bun:"amount"`
}

// Repository runs read-only aggregation queries for admin reporting.
// All queries go through the reader pool.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read replica.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// PaymentTotals returns the count and summed amount of payments in a window.
func (r *Repository) PaymentTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	q := r.reader.NewSelect().Model((*entity.Payment)(nil))
	q = window(q, from, to)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	var total float64
	sumQ := r.reader.NewSelect().Model((*entity.Payment)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)")
	sumQ = window(sumQ, from, to)
	if err := sumQ.Scan(ctx, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

// PaymentsByStatus groups payment counts by provider status.
func (r *Repository) PaymentsByStatus(ctx context.Context, from, to time.Time) ([]StatusCount, error) {
	var rows []StatusCount
	q := r.reader.NewSelect().Model((*entity.Payment)(nil)).
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("status")
	q = window(q, from, to)
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SaleTotals returns the count and summed amount of sales in a window.
func (r *Repository) SaleTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	q := r.reader.NewSelect().Model((*entity.Sale)(nil))
	q = window(q, from, to)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	var total float64
	sumQ := r.reader.NewSelect().Model((*entity.Sale)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)")
	sumQ = window(sumQ, from, to)
	if err := sumQ.Scan(ctx, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

// SalesByLocation sums sale amounts grouped by the owning order's location.
func (r *Repository) SalesByLocation(ctx context.Context, from, to time.Time) ([]LocationAmount, error) {
	var rows []LocationAmount
	q := r.reader.NewSelect().
		Model((*entity.Sale)(nil)).
		ColumnExpr("o.location_id AS location_id").
		ColumnExpr("COALESCE(SUM(sale.amount), 0) AS amount").
		Join("JOIN orders AS o ON o.id = sale.order_id").
		GroupExpr("o.location_id")
	q = window(q, from, to)
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// OrdersByStatus groups order counts by lifecycle status.
func (r *Repository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.reader.NewSelect().Model((*entity.Order)(nil)).
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OrderTotals returns the count of orders and summed paid revenue in a window.
func (r *Repository) OrderTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	q := r.reader.NewSelect().Model((*entity.Order)(nil))
	q = window(q, from, to)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	var revenue float64
	sumQ := r.reader.NewSelect().Model((*entity.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total_amount), 0)").
		Where("paid = TRUE")
	sumQ = window(sumQ, from, to)
	if err := sumQ.Scan(ctx, &revenue); err != nil {
		return 0, 0, err
	}
	return count, revenue, nil
}

func window(q *bun.SelectQuery, from, to time.Time) *bun.SelectQuery {
	if !from.IsZero() {
		q = q.Where("?TableAlias.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("?TableAlias.created_at <= ?", to)
	}
	return q
}
