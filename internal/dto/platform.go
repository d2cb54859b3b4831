package dto

import "time"

// LocationResponse represents a restaurant branch.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestaurantConfigResponse represents the singleton restaurant settings row.
type RestaurantConfigResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	OpeningTime string    `json:"opening_time"`
	ClosingTime string    `json:"closing_time"`
	Currency    string    `json:"currency"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaxServiceRateResponse represents a named checkout percentage.
type TaxServiceRateResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	IsActive bool    `json:"is_active"`
}

// DeliveryServiceResponse represents a courier partner.
type DeliveryServiceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}
