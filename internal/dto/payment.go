package dto

import "time"

// CheckoutResponse carries the provider-hosted redirect URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// PaymentResponse represents a recorded payment.
type PaymentResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	OrderID           string    `json:"order_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// SaleResponse represents a revenue ledger row.
type SaleResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
