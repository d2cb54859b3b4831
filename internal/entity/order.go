package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known values.
// Any known status may transition to any other; the permissive graph is
// intentional and documented.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order represents a customer order placed at one location.
// TotalAmount is captured at creation and not recomputed afterwards.
// Paid flips false->true exactly once via payment reconciliation.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           string      `bun:",pk"`
	UserID       string      `bun:"user_id"`
	LocationID   string      `bun:"location_id"`
	OrderNumber  string      `bun:"order_number"`
	TotalAmount  float64     `bun:"total_amount"`
	Status       OrderStatus `bun:"status"`
	Paid         bool        `bun:"paid"`
	SpecialNotes *string     `bun:"special_notes"`
	CreatedAt    time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time   `bun:"updated_at,nullzero"`

	Items    []*OrderItem `bun:"rel:has-many,join:id=order_id"`
	User     *User        `bun:"rel:belongs-to,join:user_id=id"`
	Location *Location    `bun:"rel:belongs-to,join:location_id=id"`
}

// OrderItem is one priced line of an order. Price is the menu item's
// price at order time; Total = Price * Quantity.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID         string    `bun:",pk"`
	OrderID    string    `bun:"order_id"`
	MenuItemID string    `bun:"menu_item_id"`
	Price      float64   `bun:"price"`
	Quantity   int       `bun:"quantity"`
	Total      float64   `bun:"total"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`

	MenuItem *MenuItem `bun:"rel:belongs-to,join:menu_item_id=id"`
}
