package dto

// Page wraps a result slice with pagination metadata.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// PaymentStats aggregates the payments table.
type PaymentStats struct {
	Count       int            `json:"count"`
	TotalAmount float64        `json:"total_amount"`
	ByStatus    map[string]int `json:"by_status"`
}

// SalesStats aggregates the sales table.
type SalesStats struct {
	Count       int                `json:"count"`
	TotalAmount float64            `json:"total_amount"`
	ByLocation  map[string]float64 `json:"by_location"`
}

// DashboardMetrics is the admin landing-page summary.
type DashboardMetrics struct {
	OrdersToday    int            `json:"orders_today"`
	RevenueToday   float64        `json:"revenue_today"`
	TotalOrders    int            `json:"total_orders"`
	TotalRevenue   float64        `json:"total_revenue"`
	OrdersByStatus map[string]int `json:"orders_by_status"`
}
