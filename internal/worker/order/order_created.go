package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/messaging"
	ordersvc "github.com/mesahq/mesa/internal/service/order"
	"github.com/mesahq/mesa/internal/worker"
)

var workerTracer = otel.Tracer("github.com/mesahq/mesa/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderCreatedHandler sets up the kitchen notification handler for new
// orders. Delivery to staff displays is out of band; for now the event is
// logged with enough context to drive one.
func NewOrderCreatedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.created", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.CreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order created", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		logger.Info("new order for kitchen",
			zap.String("order_id", event.ID),
			zap.String("order_number", event.OrderNumber),
			zap.String("location_id", event.LocationID),
			zap.Float64("total_amount", event.TotalAmount),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.OrderTopic,
		Handler: handler,
	}
}
