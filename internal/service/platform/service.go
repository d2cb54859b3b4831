package platform

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/platform"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/platform")

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Store is the platform persistence surface the service depends on.
type Store interface {
	GetConfig(ctx context.Context) (*entity.RestaurantConfig, error)
	UpdateConfig(ctx context.Context, cfg *entity.RestaurantConfig) error
	CreateTaxRate(ctx context.Context, rate *entity.TaxServiceRate) error
	GetTaxRate(ctx context.Context, id string) (*entity.TaxServiceRate, error)
	ListTaxRates(ctx context.Context) ([]*entity.TaxServiceRate, error)
	UpdateTaxRate(ctx context.Context, rate *entity.TaxServiceRate) error
	DeleteTaxRate(ctx context.Context, id string) error
	CreateDeliveryService(ctx context.Context, svc *entity.DeliveryService) error
	GetDeliveryService(ctx context.Context, id string) (*entity.DeliveryService, error)
	ListDeliveryServices(ctx context.Context) ([]*entity.DeliveryService, error)
	UpdateDeliveryService(ctx context.Context, svc *entity.DeliveryService) error
	DeleteDeliveryService(ctx context.Context, id string) error
}

// TaxRateInput carries a tax or service rate create or update request.
type TaxRateInput struct {
	Name     string
	Rate     float64
	IsActive *bool
}

// DeliveryInput carries a courier partner create or update request.
type DeliveryInput struct {
	Name     string
	Phone    string
	IsActive *bool
}

// Service manages restaurant-wide settings. Config updates go through a
// closed set of typed setters; there is no generic field update.
type Service struct {
	store Store
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Repository}
}

// Config returns the settings singleton.
func (s *Service) Config(ctx context.Context) (*entity.RestaurantConfig, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.Config")
	defer span.End()

	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("restaurant config not initialised")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load config", errorbank.WithCause(err))
	}
	return cfg, nil
}

// SetStatus switches the restaurant operating state.
func (s *Service) SetStatus(ctx context.Context, status entity.RestaurantStatus) (*entity.RestaurantConfig, error) {
	if !status.Valid() {
		return nil, errorbank.BadRequest("unknown restaurant status: " + string(status))
	}
	return s.mutate(ctx, "PlatformService.SetStatus", func(cfg *entity.RestaurantConfig) error {
		cfg.Status = status
		return nil
	})
}

// SetName renames the restaurant.
func (s *Service) SetName(ctx context.Context, name string) (*entity.RestaurantConfig, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errorbank.BadRequest("name must not be empty")
	}
	return s.mutate(ctx, "PlatformService.SetName", func(cfg *entity.RestaurantConfig) error {
		cfg.Name = name
		return nil
	})
}

// SetHours updates the daily opening window. Times are HH:MM, 24 hour clock.
func (s *Service) SetHours(ctx context.Context, opening, closing string) (*entity.RestaurantConfig, error) {
	if !timeOfDay.MatchString(opening) || !timeOfDay.MatchString(closing) {
		return nil, errorbank.BadRequest("opening and closing times must be HH:MM")
	}
	return s.mutate(ctx, "PlatformService.SetHours", func(cfg *entity.RestaurantConfig) error {
		cfg.OpeningTime = opening
		cfg.ClosingTime = closing
		return nil
	})
}

// SetCurrency updates the display currency, as an ISO 4217 code.
func (s *Service) SetCurrency(ctx context.Context, currency string) (*entity.RestaurantConfig, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, errorbank.BadRequest("currency must be a 3-letter code")
	}
	return s.mutate(ctx, "PlatformService.SetCurrency", func(cfg *entity.RestaurantConfig) error {
		cfg.Currency = currency
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, spanName string, apply func(*entity.RestaurantConfig) error) (*entity.RestaurantConfig, error) {
	ctx, span := serviceTracer.Start(ctx, spanName)
	defer span.End()

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := apply(cfg); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateConfig(ctx, cfg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update config", errorbank.WithCause(err))
	}
	return cfg, nil
}

// CreateTaxRate adds a named checkout percentage.
func (s *Service) CreateTaxRate(ctx context.Context, in TaxRateInput) (*entity.TaxServiceRate, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.CreateTaxRate")
	defer span.End()

	if in.Name == "" {
		return nil, errorbank.BadRequest("rate name is required")
	}
	if in.Rate < 0 || in.Rate > 100 {
		return nil, errorbank.BadRequest("rate must be between 0 and 100")
	}

	now := time.Now().UTC()
	rate := &entity.TaxServiceRate{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Rate:      in.Rate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsActive != nil {
		rate.IsActive = *in.IsActive
	}

	if err := s.store.CreateTaxRate(ctx, rate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create rate", errorbank.WithCause(err))
	}
	return rate, nil
}

// ListTaxRates returns all configured rates.
func (s *Service) ListTaxRates(ctx context.Context) ([]*entity.TaxServiceRate, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.ListTaxRates")
	defer span.End()

	rates, err := s.store.ListTaxRates(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list rates", errorbank.WithCause(err))
	}
	return rates, nil
}

// UpdateTaxRate applies the input to an existing rate.
func (s *Service) UpdateTaxRate(ctx context.Context, id string, in TaxRateInput) (*entity.TaxServiceRate, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.UpdateTaxRate")
	defer span.End()

	rate, err := s.store.GetTaxRate(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("rate not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load rate", errorbank.WithCause(err))
	}

	if in.Name != "" {
		rate.Name = in.Name
	}
	if in.Rate != 0 {
		if in.Rate < 0 || in.Rate > 100 {
			return nil, errorbank.BadRequest("rate must be between 0 and 100")
		}
		rate.Rate = in.Rate
	}
	if in.IsActive != nil {
		rate.IsActive = *in.IsActive
	}
	rate.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTaxRate(ctx, rate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update rate", errorbank.WithCause(err))
	}
	return rate, nil
}

// DeleteTaxRate removes a rate.
func (s *Service) DeleteTaxRate(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.DeleteTaxRate")
	defer span.End()

	if err := s.store.DeleteTaxRate(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("rate not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete rate", errorbank.WithCause(err))
	}
	return nil
}

// CreateDeliveryService adds a courier partner.
func (s *Service) CreateDeliveryService(ctx context.Context, in DeliveryInput) (*entity.DeliveryService, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.CreateDeliveryService")
	defer span.End()

	if in.Name == "" {
		return nil, errorbank.BadRequest("delivery service name is required")
	}

	now := time.Now().UTC()
	svc := &entity.DeliveryService{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Phone:     in.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}

	if err := s.store.CreateDeliveryService(ctx, svc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create delivery service", errorbank.WithCause(err))
	}
	return svc, nil
}

// ListDeliveryServices returns all courier partners.
func (s *Service) ListDeliveryServices(ctx context.Context) ([]*entity.DeliveryService, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.ListDeliveryServices")
	defer span.End()

	services, err := s.store.ListDeliveryServices(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list delivery services", errorbank.WithCause(err))
	}
	return services, nil
}

// UpdateDeliveryService applies the input to an existing courier partner.
func (s *Service) UpdateDeliveryService(ctx context.Context, id string, in DeliveryInput) (*entity.DeliveryService, error) {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.UpdateDeliveryService")
	defer span.End()

	svc, err := s.store.GetDeliveryService(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("delivery service not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load delivery service", errorbank.WithCause(err))
	}

	if in.Name != "" {
		svc.Name = in.Name
	}
	if in.Phone != "" {
		svc.Phone = in.Phone
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	svc.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDeliveryService(ctx, svc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update delivery service", errorbank.WithCause(err))
	}
	return svc, nil
}

// DeleteDeliveryService removes a courier partner.
func (s *Service) DeleteDeliveryService(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "PlatformService.DeleteDeliveryService")
	defer span.End()

	if err := s.store.DeleteDeliveryService(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("delivery service not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete delivery service", errorbank.WithCause(err))
	}
	return nil
}
