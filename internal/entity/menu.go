package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// MenuCategory groups menu items for presentation.
type MenuCategory struct {
	bun.BaseModel `bun:"table:menu_categories"`

	ID           string    `bun:",pk"`
	Name         string    `bun:"name"`
	Description  string    `bun:"description"`
	DisplayOrder int       `bun:"display_order"`
	IsActive     bool      `bun:"is_active"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

// MenuItem is a sellable catalog entry. Its price is snapshotted onto
// order items at order time; later price edits never touch past orders.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID           string    `bun:",pk"`
	CategoryID   string    `bun:"category_id"`
	Name         string    `bun:"name"`
	Description  string    `bun:"description"`
	Price        float64   `bun:"price"`
	IsVegetarian bool      `bun:"is_vegetarian"`
	IsAvailable  bool      `bun:"is_available"`
	PrepTimeMins *int      `bun:"prep_time_mins"`
	ImageURL     *string   `bun:"image_url"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`

	Category *MenuCategory `bun:"rel:belongs-to,join:category_id=id"`
}
