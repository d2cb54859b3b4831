package platform

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// ErrNotFound is returned when the requested row is missing.
var ErrNotFound = errors.New("not found")

// Repository covers the restaurant-wide settings tables: the singleton
// config row, tax/service rates, and delivery services.
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

// GetConfig fetches the singleton restaurant config row.
func (r *Repository) GetConfig(ctx context.Context) (*entity.RestaurantConfig, error) {
	cfg := new(entity.RestaurantConfig)
	err := r.reader.NewSelect().Model(cfg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig persists the full config row.
func (r *Repository) UpdateConfig(ctx context.Context, cfg *entity.RestaurantConfig) error {
	res, err := r.writer.NewUpdate().Model(cfg).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTaxRate inserts a tax/service rate.
func (r *Repository) CreateTaxRate(ctx context.Context, rate *entity.TaxServiceRate) error {
	_, err := r.writer.NewInsert().Model(rate).Exec(ctx)
	return err
}

// GetTaxRate fetches a rate by id.
func (r *Repository) GetTaxRate(ctx context.Context, id string) (*entity.TaxServiceRate, error) {
	rate := new(entity.TaxServiceRate)
	err := r.reader.NewSelect().Model(rate).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rate, nil
}

// ListTaxRates returns all rates.
func (r *Repository) ListTaxRates(ctx context.Context) ([]*entity.TaxServiceRate, error) {
	var rates []*entity.TaxServiceRate
	if err := r.reader.NewSelect().Model(&rates).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rates, nil
}

// UpdateTaxRate persists changes to an existing rate.
func (r *Repository) UpdateTaxRate(ctx context.Context, rate *entity.TaxServiceRate) error {
	res, err := r.writer.NewUpdate().Model(rate).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTaxRate removes a rate.
func (r *Repository) DeleteTaxRate(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.TaxServiceRate)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDeliveryService inserts a courier partner.
func (r *Repository) CreateDeliveryService(ctx context.Context, svc *entity.DeliveryService) error {
	_, err := r.writer.NewInsert().Model(svc).Exec(ctx)
	return err
}

// GetDeliveryService fetches a courier partner by id.
func (r *Repository) GetDeliveryService(ctx context.Context, id string) (*entity.DeliveryService, error) {
	svc := new(entity.DeliveryService)
	err := r.reader.NewSelect().Model(svc).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// ListDeliveryServices returns all courier partners.
func (r *Repository) ListDeliveryServices(ctx context.Context) ([]*entity.DeliveryService, error) {
	var services []*entity.DeliveryService
	if err := r.reader.NewSelect().Model(&services).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return services, nil
}

// UpdateDeliveryService persists changes to an existing courier partner.
func (r *Repository) UpdateDeliveryService(ctx context.Context, svc *entity.DeliveryService) error {
	res, err := r.writer.NewUpdate().Model(svc).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDeliveryService removes a courier partner.
func (r *Repository) DeleteDeliveryService(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.DeliveryService)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
