package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// ErrNotFound is returned when a category or item is missing.
var ErrNotFound = errors.New("catalog entry not found")

// ErrDuplicate is returned when a category name is already taken.
var ErrDuplicate = errors.New("catalog entry already exists")

// ItemFilter narrows menu item listings.
type ItemFilter struct {
	CategoryID   string
	IsVegetarian *bool
	IsAvailable  *bool
}

// Repository encapsulates menu category and menu item persistence.
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

// CreateCategory inserts a menu category.
func (r *Repository) CreateCategory(ctx context.Context, c *entity.MenuCategory) error {
	_, err := r.writer.NewInsert().Model(c).Exec(ctx)
	if err != nil && database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetCategory fetches a category by id.
func (r *Repository) GetCategory(ctx context.Context, id string) (*entity.MenuCategory, error) {
	c := new(entity.MenuCategory)
	err := r.reader.NewSelect().Model(c).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns all categories ordered for display.
func (r *Repository) ListCategories(ctx context.Context) ([]*entity.MenuCategory, error) {
	var categories []*entity.MenuCategory
	err := r.reader.NewSelect().Model(&categories).
		Order("display_order ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory persists changes to an existing category.
func (r *Repository) UpdateCategory(ctx context.Context, c *entity.MenuCategory) error {
	res, err := r.writer.NewUpdate().Model(c).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.MenuCategory)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateItem inserts a menu item.
func (r *Repository) CreateItem(ctx context.Context, item *entity.MenuItem) error {
	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	return err
}

// GetItem fetches a menu item with its category.
func (r *Repository) GetItem(ctx context.Context, id string) (*entity.MenuItem, error) {
	item := new(entity.MenuItem)
	err := r.reader.NewSelect().Model(item).
		Relation("Category").
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns menu items matching the filter, alphabetically.
func (r *Repository) ListItems(ctx context.Context, filter ItemFilter) ([]*entity.MenuItem, error) {
	var items []*entity.MenuItem
	q := r.reader.NewSelect().Model(&items).
		Relation("Category").
		Order("name ASC")
	if filter.CategoryID != "" {
		q = q.Where("?TableAlias.category_id = ?", filter.CategoryID)
	}
	if filter.IsVegetarian != nil {
		q = q.Where("?TableAlias.is_vegetarian = ?", *filter.IsVegetarian)
	}
	if filter.IsAvailable != nil {
		q = q.Where("?TableAlias.is_available = ?", *filter.IsAvailable)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem persists changes to an existing menu item.
func (r *Repository) UpdateItem(ctx context.Context, item *entity.MenuItem) error {
	res, err := r.writer.NewUpdate().Model(item).
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

// DeleteItem removes a menu item.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.MenuItem)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PriceMap returns current prices for the given menu item ids. Items absent
// from the result are unknown to the catalog.
func (r *Repository) PriceMap(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}
	var rows []struct {
		ID    string  `bun:"id"`
		Price float64 `bun:"price"`
	}
	err := r.reader.NewSelect().Model((*entity.MenuItem)(nil)).
		Column("id", "price").
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(rows))
	for _, row := range rows {
		prices[row.ID] = row.Price
	}
	return prices, nil
}
