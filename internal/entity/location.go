package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Location is one physical restaurant branch.
type Location struct {
	bun.BaseModel `bun:"table:locations"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name"`
	Address   string    `bun:"address"`
	City      string    `bun:"city"`
	Phone     string    `bun:"phone"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
