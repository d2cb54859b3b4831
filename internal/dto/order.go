package dto

import "time"

// OrderItemResponse represents one order line as exposed via transport layers.
type OrderItemResponse struct {
	ID         string  `json:"id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Total      float64 `json:"total"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           string              `json:"id"`
	OrderNumber  string              `json:"order_number"`
	UserID       string              `json:"user_id"`
	LocationID   string              `json:"location_id"`
	Status       string              `json:"status"`
	Paid         bool                `json:"paid"`
	TotalAmount  float64             `json:"total_amount"`
	SpecialNotes *string             `json:"special_notes,omitempty"`
	Items        []OrderItemResponse `json:"items,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
