package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/location"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/location")

// Store is the location persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, loc *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	List(ctx context.Context) ([]*entity.Location, error)
	Update(ctx context.Context, loc *entity.Location) error
	Delete(ctx context.Context, id string) error
}

// Input carries a location create or update request.
type Input struct {
	Name     string
	Address  string
	City     string
	Phone    string
	IsActive *bool
}

// Service manages restaurant branches.
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

// Create adds a branch.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Location, error) {
	ctx, span := serviceTracer.Start(ctx, "LocationService.Create")
	defer span.End()

	if in.Name == "" || in.Address == "" {
		return nil, errorbank.BadRequest("name and address are required")
	}

	now := time.Now().UTC()
	loc := &entity.Location{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Address:   in.Address,
		City:      in.City,
		Phone:     in.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsActive != nil {
		loc.IsActive = *in.IsActive
	}

	if err := s.store.Create(ctx, loc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create location", errorbank.WithCause(err))
	}
	return loc, nil
}

// Get loads one branch.
func (s *Service) Get(ctx context.Context, id string) (*entity.Location, error) {
	ctx, span := serviceTracer.Start(ctx, "LocationService.Get", trace.WithAttributes(attribute.String("location.id", id)))
	defer span.End()

	loc, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("location not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load location", errorbank.WithCause(err))
	}
	return loc, nil
}

// List returns all branches.
func (s *Service) List(ctx context.Context) ([]*entity.Location, error) {
	ctx, span := serviceTracer.Start(ctx, "LocationService.List")
	defer span.End()

	locs, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list locations", errorbank.WithCause(err))
	}
	return locs, nil
}

// Update applies the input to an existing branch.
func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Location, error) {
	ctx, span := serviceTracer.Start(ctx, "LocationService.Update", trace.WithAttributes(attribute.String("location.id", id)))
	defer span.End()

	loc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		loc.Name = in.Name
	}
	if in.Address != "" {
		loc.Address = in.Address
	}
	if in.City != "" {
		loc.City = in.City
	}
	if in.Phone != "" {
		loc.Phone = in.Phone
	}
	if in.IsActive != nil {
		loc.IsActive = *in.IsActive
	}
	loc.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, loc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update location", errorbank.WithCause(err))
	}
	return loc, nil
}

// Delete removes a branch.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "LocationService.Delete", trace.WithAttributes(attribute.String("location.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("location not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete location", errorbank.WithCause(err))
	}
	return nil
}
