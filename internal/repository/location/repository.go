package location

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// ErrNotFound is returned when a location is missing.
var ErrNotFound = errors.New("location not found")

// Repository encapsulates location persistence.
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

// Create inserts a location.
func (r *Repository) Create(ctx context.Context, loc *entity.Location) error {
	_, err := r.writer.NewInsert().Model(loc).Exec(ctx)
	return err
}

// GetByID fetches a location by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	loc := new(entity.Location)
	err := r.reader.NewSelect().Model(loc).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// List returns all locations, active first.
func (r *Repository) List(ctx context.Context) ([]*entity.Location, error) {
	var locations []*entity.Location
	err := r.reader.NewSelect().Model(&locations).
		Order("is_active DESC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// Update persists changes to an existing location.
func (r *Repository) Update(ctx context.Context, loc *entity.Location) error {
	res, err := r.writer.NewUpdate().Model(loc).
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

// Delete removes a location.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.Location)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
