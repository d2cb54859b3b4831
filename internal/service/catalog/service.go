package catalog

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
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/cache"
	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/catalog"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/catalog")

const (
	menuItemsKey      = "menu:items"
	menuCategoriesKey = "menu:categories"
)

// Store is the catalog persistence surface the service depends on.
type Store interface {
	CreateCategory(ctx context.Context, c *entity.MenuCategory) error
	GetCategory(ctx context.Context, id string) (*entity.MenuCategory, error)
	ListCategories(ctx context.Context) ([]*entity.MenuCategory, error)
	UpdateCategory(ctx context.Context, c *entity.MenuCategory) error
	DeleteCategory(ctx context.Context, id string) error
	CreateItem(ctx context.Context, item *entity.MenuItem) error
	GetItem(ctx context.Context, id string) (*entity.MenuItem, error)
	ListItems(ctx context.Context, filter repo.ItemFilter) ([]*entity.MenuItem, error)
	UpdateItem(ctx context.Context, item *entity.MenuItem) error
	DeleteItem(ctx context.Context, id string) error
}

// CategoryInput carries a category create or update request.
type CategoryInput struct {
	Name         string
	Description  string
	DisplayOrder int
	IsActive     *bool
}

// ItemInput carries a menu item create or update request.
type ItemInput struct {
	CategoryID   string
	Name         string
	Description  string
	Price        float64
	IsVegetarian bool
	IsAvailable  *bool
	PrepTimeMins *int
	ImageURL     *string
}

// Service manages the menu catalog. Unfiltered reads are served cache-aside
// from the shared cache; any write invalidates the cached menu.
type Service struct {
	store    Store
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:    p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// CreateCategory adds a menu category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*entity.MenuCategory, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateCategory")
	defer span.End()

	if in.Name == "" {
		return nil, errorbank.BadRequest("category name is required")
	}

	now := time.Now().UTC()
	category := &entity.MenuCategory{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errorbank.Conflict("category name already exists")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create category", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return category, nil
}

// GetCategory loads one category.
func (s *Service) GetCategory(ctx context.Context, id string) (*entity.MenuCategory, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.GetCategory", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load category", errorbank.WithCause(err))
	}
	return category, nil
}

// ListCategories returns all categories, cache-aside.
func (s *Service) ListCategories(ctx context.Context) ([]*entity.MenuCategory, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListCategories")
	defer span.End()

	var cached []*entity.MenuCategory
	if s.readCache(ctx, menuCategoriesKey, &cached) {
		return cached, nil
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list categories", errorbank.WithCause(err))
	}

	s.writeCache(ctx, menuCategoriesKey, categories)
	return categories, nil
}

// UpdateCategory applies the input to an existing category.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*entity.MenuCategory, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateCategory", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		category.Name = in.Name
	}
	if in.Description != "" {
		category.Description = in.Description
	}
	if in.DisplayOrder != 0 {
		category.DisplayOrder = in.DisplayOrder
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errorbank.Conflict("category name already exists")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update category", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return category, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeleteCategory", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete category", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return nil
}

// CreateItem adds a menu item under an existing category.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateItem")
	defer span.End()

	if in.Name == "" {
		return nil, errorbank.BadRequest("item name is required")
	}
	if in.Price <= 0 {
		return nil, errorbank.BadRequest("item price must be positive")
	}
	if in.CategoryID == "" {
		return nil, errorbank.BadRequest("category id is required")
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.BadRequest("category does not exist")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to check category", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	item := &entity.MenuItem{
		ID:           uuid.NewString(),
		CategoryID:   in.CategoryID,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		IsVegetarian: in.IsVegetarian,
		IsAvailable:  true,
		PrepTimeMins: in.PrepTimeMins,
		ImageURL:     in.ImageURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create item", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return item, nil
}

// GetItem loads one menu item.
func (s *Service) GetItem(ctx context.Context, id string) (*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.GetItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("menu item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load item", errorbank.WithCause(err))
	}
	return item, nil
}

// ListItems returns menu items. The unfiltered listing is served from cache;
// filtered queries always hit the database.
func (s *Service) ListItems(ctx context.Context, filter repo.ItemFilter) ([]*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListItems")
	defer span.End()

	unfiltered := filter == (repo.ItemFilter{})
	if unfiltered {
		var cached []*entity.MenuItem
		if s.readCache(ctx, menuItemsKey, &cached) {
			return cached, nil
		}
	}

	items, err := s.store.ListItems(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list items", errorbank.WithCause(err))
	}

	if unfiltered {
		s.writeCache(ctx, menuItemsKey, items)
	}
	return items, nil
}

// UpdateItem applies the input to an existing menu item.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != "" && in.CategoryID != item.CategoryID {
		if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.BadRequest("category does not exist")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to check category", errorbank.WithCause(err))
		}
		item.CategoryID = in.CategoryID
	}
	if in.Name != "" {
		item.Name = in.Name
	}
	if in.Description != "" {
		item.Description = in.Description
	}
	if in.Price > 0 {
		item.Price = in.Price
	}
	item.IsVegetarian = in.IsVegetarian
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if in.PrepTimeMins != nil {
		item.PrepTimeMins = in.PrepTimeMins
	}
	if in.ImageURL != nil {
		item.ImageURL = in.ImageURL
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateItem(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update item", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return item, nil
}

// DeleteItem removes a menu item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeleteItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if err := s.store.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("menu item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete item", errorbank.WithCause(err))
	}

	s.invalidate(ctx)
	return nil
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	if err := cache.GetJSON(ctx, s.cache, key, out); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("menu cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("menu cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{menuItemsKey, menuCategoriesKey} {
		if err := s.cache.Delete(ctx, key); err != nil && s.logger != nil {
			s.logger.Warn("menu cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}
