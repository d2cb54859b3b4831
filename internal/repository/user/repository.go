package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/entity"
)

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned on unique email/phone collisions.
var ErrDuplicate = errors.New("user already exists")

// Repository encapsulates user persistence.
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

// Create inserts a new user. Unique violations on email or phone number are
// translated to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	_, err := r.writer.NewInsert().Model(u).Exec(ctx)
	if err != nil && database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail fetches a staff or admin user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("?TableAlias.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByPhone fetches a customer by phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("?TableAlias.phone_number = ?", phone).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListByRoles returns users holding any of the given roles.
func (r *Repository) ListByRoles(ctx context.Context, roles ...entity.Role) ([]*entity.User, error) {
	var users []*entity.User
	err := r.reader.NewSelect().Model(&users).
		Where("?TableAlias.role IN (?)", bun.In(roles)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
