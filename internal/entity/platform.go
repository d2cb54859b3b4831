package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// RestaurantStatus enumerates the operating states of the restaurant.
type RestaurantStatus string

const (
	RestaurantOpen        RestaurantStatus = "OPEN"
	RestaurantClosed      RestaurantStatus = "CLOSED"
	RestaurantBusy        RestaurantStatus = "BUSY"
	RestaurantMaintenance RestaurantStatus = "MAINTENANCE"
)

// Valid reports whether the status is one of the known values.
func (s RestaurantStatus) Valid() bool {
	switch s {
	case RestaurantOpen, RestaurantClosed, RestaurantBusy, RestaurantMaintenance:
		return true
	}
	return false
}

// RestaurantConfig is a singleton row of restaurant-wide settings.
type RestaurantConfig struct {
	bun.BaseModel `bun:"table:restaurant_config"`

	ID          string           `bun:",pk"`
	Name        string           `bun:"name"`
	Status      RestaurantStatus `bun:"status"`
	OpeningTime string           `bun:"opening_time"`
	ClosingTime string           `bun:"closing_time"`
	Currency    string           `bun:"currency"`
	UpdatedAt   time.Time        `bun:"updated_at,nullzero"`
}

// TaxServiceRate is a named percentage applied at checkout.
type TaxServiceRate struct {
	bun.BaseModel `bun:"table:tax_service_rates"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name"`
	Rate      float64   `bun:"rate"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// DeliveryService is a third-party courier partner.
type DeliveryService struct {
	bun.BaseModel `bun:"table:delivery_services"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name"`
	Phone     string    `bun:"phone"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
