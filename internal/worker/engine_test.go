package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/messaging"
)

func newTestEngine(regs ...HandlerRegistration) *Engine {
	return NewEngine(Params{
		Logger:        zap.NewNop(),
		Registrations: regs,
	})
}

func TestNewEngineSkipsEmptyRegistrations(t *testing.T) {
	engine := newTestEngine(
		HandlerRegistration{Topic: "orders.events", Handler: func(context.Context, messaging.Message) error { return nil }},
		HandlerRegistration{Topic: "", Handler: func(context.Context, messaging.Message) error { return nil }},
		HandlerRegistration{Topic: "payments.events", Handler: nil},
	)

	assert.Len(t, engine.registrations, 1)
	assert.Contains(t, engine.registrations, "orders.events")
}

func TestDispatchReturnsHandlerError(t *testing.T) {
	engine := newTestEngine()
	wantErr := errors.New("decode failed")

	err := engine.dispatch(context.Background(), func(context.Context, messaging.Message) error {
		return wantErr
	}, messaging.Message{Topic: "orders.events"})

	assert.ErrorIs(t, err, wantErr)
}

func TestDispatchRecoversPanic(t *testing.T) {
	engine := newTestEngine()

	err := engine.dispatch(context.Background(), func(context.Context, messaging.Message) error {
		panic("corrupt payload")
	}, messaging.Message{Topic: "payments.events"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
	assert.Contains(t, err.Error(), "payments.events")
}
