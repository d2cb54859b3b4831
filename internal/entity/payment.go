package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment records a completed provider charge for an order. The provider
// payment id is unique: redelivered webhook events collapse onto one row.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID                string    `bun:",pk"`
	UserID            string    `bun:"user_id"`
	OrderID           string    `bun:"order_id"`
	ProviderPaymentID string    `bun:"provider_payment_id"`
	Amount            float64   `bun:"amount"`
	Currency          string    `bun:"currency"`
	Status            string    `bun:"status"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`

	User  *User  `bun:"rel:belongs-to,join:user_id=id"`
	Order *Order `bun:"rel:belongs-to,join:order_id=id"`
}

// Sale is the revenue ledger row written alongside a Payment.
type Sale struct {
	bun.BaseModel `bun:"table:sales"`

	ID        string    `bun:",pk"`
	OrderID   string    `bun:"order_id"`
	Amount    float64   `bun:"amount"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id"`
}
