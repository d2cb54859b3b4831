package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// Module exposes the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seeder in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Locations(ctx); err != nil {
		return err
	}
	if err := s.Menu(ctx); err != nil {
		return err
	}
	if err := s.RestaurantConfig(ctx); err != nil {
		return err
	}
	return s.AdminUser(ctx)
}

// Locations seeds the example restaurant locations if they are missing.
func (s *Seeder) Locations(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Location{
		{ID: "loc-downtown", Name: "Mesa Downtown", Address: "14 Market St", City: "San Francisco", Phone: "+14155550101", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "loc-mission", Name: "Mesa Mission", Address: "2200 Valencia St", City: "San Francisco", Phone: "+14155550102", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}

	for _, sample := range samples {
		loc := sample
		_, err := s.db.NewInsert().Model(&loc).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded locations", zap.Int("count", len(samples)))
	}
	return nil
}

// Menu seeds a starter set of categories and items.
func (s *Seeder) Menu(ctx context.Context) error {
	now := time.Now().UTC()

	categories := []entity.MenuCategory{
		{ID: "cat-starters", Name: "Starters", Description: "Small plates to share", DisplayOrder: 1, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "cat-mains", Name: "Mains", Description: "Hearty plates", DisplayOrder: 2, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "cat-drinks", Name: "Drinks", Description: "Hot and cold drinks", DisplayOrder: 3, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range categories {
		cat := sample
		_, err := s.db.NewInsert().Model(&cat).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	prep := func(mins int) *int { return &mins }
	items := []entity.MenuItem{
		{ID: "item-guac", CategoryID: "cat-starters", Name: "Guacamole", Description: "Hass avocado, lime, serrano", Price: 8.50, IsVegetarian: true, IsAvailable: true, PrepTimeMins: prep(5), CreatedAt: now, UpdatedAt: now},
		{ID: "item-tacos", CategoryID: "cat-mains", Name: "Carnitas Tacos", Description: "Three tacos, slow braised pork", Price: 14.00, IsAvailable: true, PrepTimeMins: prep(12), CreatedAt: now, UpdatedAt: now},
		{ID: "item-bowl", CategoryID: "cat-mains", Name: "Veggie Bowl", Description: "Rice, black beans, roast vegetables", Price: 12.50, IsVegetarian: true, IsAvailable: true, PrepTimeMins: prep(10), CreatedAt: now, UpdatedAt: now},
		{ID: "item-horchata", CategoryID: "cat-drinks", Name: "Horchata", Description: "House made, cinnamon", Price: 4.00, IsVegetarian: true, IsAvailable: true, PrepTimeMins: prep(2), CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range items {
		item := sample
		_, err := s.db.NewInsert().Model(&item).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded menu", zap.Int("categories", len(categories)), zap.Int("items", len(items)))
	}
	return nil
}

// RestaurantConfig seeds the singleton settings row.
func (s *Seeder) RestaurantConfig(ctx context.Context) error {
	cfg := entity.RestaurantConfig{
		ID:          "restaurant-config",
		Name:        "Mesa",
		Status:      entity.RestaurantOpen,
		OpeningTime: "09:00",
		ClosingTime: "22:00",
		Currency:    "USD",
		UpdatedAt:   time.Now().UTC(),
	}

	_, err := s.db.NewInsert().Model(&cfg).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded restaurant config")
	}
	return nil
}

// AdminUser seeds a bootstrap admin account with a default password.
// The password is meant for local development only.
func (s *Seeder) AdminUser(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-mesa-dev"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	email := "admin@mesa.local"
	hashed := string(hash)
	now := time.Now().UTC()
	admin := entity.User{
		ID:           "user-admin",
		Name:         "Mesa Admin",
		Email:        &email,
		PasswordHash: &hashed,
		Role:         entity.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.NewInsert().Model(&admin).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded admin user", zap.String("email", email))
	}
	return nil
}
