package payment

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
	paymentsvc "github.com/mesahq/mesa/internal/service/payment"
	"github.com/mesahq/mesa/internal/worker"
)

var workerTracer = otel.Tracer("github.com/mesahq/mesa/worker/payment")

// Module registers payment-related worker handlers.
var Module = fx.Module("worker_payment",
	fx.Provide(
		fx.Annotate(
			NewPaymentRecordedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewPaymentRecordedHandler processes first-time payment reconciliations,
// e.g. to trigger receipts. The webhook path guarantees at most one event
// per provider payment id.
func NewPaymentRecordedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.payments.recorded", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event paymentsvc.RecordedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode payment recorded", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		logger.Info("payment reconciled",
			zap.String("payment_id", event.ID),
			zap.String("order_id", event.OrderID),
			zap.Float64("amount", event.Amount),
			zap.String("currency", event.Currency),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.PaymentTopic,
		Handler: handler,
	}
}
