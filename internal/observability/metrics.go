package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ordering-domain counters. They are registered on the
// default registry and surface on the Prometheus endpoint.
type Metrics struct {
	OrdersCreated    prometheus.Counter
	CheckoutSessions prometheus.Counter
	PaymentsRecorded prometheus.Counter
	WebhookRejected  prometheus.Counter
}

// NewMetrics registers the domain counters.
func NewMetrics() *Metrics {
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &Metrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mesa_orders_created_total",
			Help: "Orders successfully placed.",
		}),
		CheckoutSessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "mesa_checkout_sessions_total",
			Help: "Hosted checkout sessions created.",
		}),
		PaymentsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "mesa_payments_recorded_total",
			Help: "Payments reconciled into the ledger.",
		}),
		WebhookRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mesa_webhook_rejected_total",
			Help: "Webhook deliveries rejected for a bad signature.",
		}),
	}
}
