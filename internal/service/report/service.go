package report

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	paymentrepo "github.com/mesahq/mesa/internal/repository/payment"
	repo "github.com/mesahq/mesa/internal/repository/report"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/report")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaymentStore is the payment read surface used for reporting.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	List(ctx context.Context, filter paymentrepo.Filter) ([]*entity.Payment, int, error)
	ListSales(ctx context.Context, from, to time.Time, page, limit int) ([]*entity.Sale, int, error)
}

// Aggregator runs the grouped reporting queries.
type Aggregator interface {
	PaymentTotals(ctx context.Context, from, to time.Time) (int, float64, error)
	PaymentsByStatus(ctx context.Context, from, to time.Time) ([]repo.StatusCount, error)
	SaleTotals(ctx context.Context, from, to time.Time) (int, float64, error)
	SalesByLocation(ctx context.Context, from, to time.Time) ([]repo.LocationAmount, error)
	OrdersByStatus(ctx context.Context) ([]repo.StatusCount, error)
	OrderTotals(ctx context.Context, from, to time.Time) (int, float64, error)
}

// Service serves admin reporting reads.
type Service struct {
	payments   PaymentStore
	aggregates Aggregator
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Payments   *paymentrepo.Repository
	Aggregates *repo.Repository
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{payments: p.Payments, aggregates: p.Aggregates}
}

// ListPayments returns a filtered, paginated payment listing.
func (s *Service) ListPayments(ctx context.Context, filter paymentrepo.Filter) (*dto.Page[*entity.Payment], error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.ListPayments")
	defer span.End()

	filter.Page, filter.Limit = clampPage(filter.Page, filter.Limit)

	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list payments", errorbank.WithCause(err))
	}
	return page(payments, total, filter.Page, filter.Limit), nil
}

// GetPayment loads one payment.
func (s *Service) GetPayment(ctx context.Context, id string) (*entity.Payment, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.GetPayment")
	defer span.End()

	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymentrepo.ErrNotFound) {
			return nil, errorbank.NotFound("payment not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load payment", errorbank.WithCause(err))
	}
	return payment, nil
}

// PaymentStats aggregates payments in the given window.
func (s *Service) PaymentStats(ctx context.Context, from, to time.Time) (*dto.PaymentStats, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.PaymentStats")
	defer span.End()

	count, total, err := s.aggregates.PaymentTotals(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to aggregate payments", errorbank.WithCause(err))
	}
	byStatus, err := s.aggregates.PaymentsByStatus(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to aggregate payments", errorbank.WithCause(err))
	}

	stats := &dto.PaymentStats{
		Count:       count,
		TotalAmount: total,
		ByStatus:    map[string]int{},
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}

// ListSales returns a paginated sales listing for the window.
func (s *Service) ListSales(ctx context.Context, from, to time.Time, pageNum, limit int) (*dto.Page[*entity.Sale], error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.ListSales")
	defer span.End()

	pageNum, limit = clampPage(pageNum, limit)

	sales, total, err := s.payments.ListSales(ctx, from, to, pageNum, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list sales", errorbank.WithCause(err))
	}
	return page(sales, total, pageNum, limit), nil
}

// SalesStats aggregates sales in the given window.
func (s *Service) SalesStats(ctx context.Context, from, to time.Time) (*dto.SalesStats, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.SalesStats")
	defer span.End()

	count, total, err := s.aggregates.SaleTotals(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to aggregate sales", errorbank.WithCause(err))
	}
	byLocation, err := s.aggregates.SalesByLocation(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to aggregate sales", errorbank.WithCause(err))
	}

	stats := &dto.SalesStats{
		Count:       count,
		TotalAmount: total,
		ByLocation:  map[string]float64{},
	}
	for _, row := range byLocation {
		stats.ByLocation[row.LocationID] = row.Amount
	}
	return stats, nil
}

// Dashboard produces the admin landing-page summary. Revenue counts paid
// orders only.
func (s *Service) Dashboard(ctx context.Context) (*dto.DashboardMetrics, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Dashboard")
	defer span.End()

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ordersToday, revenueToday, err := s.aggregates.OrderTotals(ctx, dayStart, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build dashboard", errorbank.WithCause(err))
	}
	totalOrders, totalRevenue, err := s.aggregates.OrderTotals(ctx, time.Time{}, time.Time{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build dashboard", errorbank.WithCause(err))
	}
	byStatus, err := s.aggregates.OrdersByStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build dashboard", errorbank.WithCause(err))
	}

	metrics := &dto.DashboardMetrics{
		OrdersToday:    ordersToday,
		RevenueToday:   revenueToday,
		TotalOrders:    totalOrders,
		TotalRevenue:   totalRevenue,
		OrdersByStatus: map[string]int{},
	}
	for _, row := range byStatus {
		metrics.OrdersByStatus[row.Status] = row.Count
	}
	return metrics, nil
}

func clampPage(pageNum, limit int) (int, int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return pageNum, limit
}

func page[T any](items []T, total, pageNum, limit int) *dto.Page[T] {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &dto.Page[T]{
		Items:      items,
		Total:      total,
		Page:       pageNum,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
