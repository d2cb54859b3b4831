package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:          http.StatusBadRequest,
		KindUnauthorized:        http.StatusUnauthorized,
		KindForbidden:           http.StatusForbidden,
		KindConflict:            http.StatusConflict,
		KindNotFound:            http.StatusNotFound,
		KindUnprocessableEntity: http.StatusUnprocessableEntity,
		KindUnavailable:         http.StatusBadGateway,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "boom").StatusCode(), string(kind))
	}
}

func TestFromPassesThroughAppError(t *testing.T) {
	orig := NotFound("order not found")
	wrapped := fmt.Errorf("handler: %w", orig)

	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind())
	assert.Equal(t, "order not found", got.Message())
}

func TestFromWrapsUnknownError(t *testing.T) {
	cause := errors.New("driver: bad connection")
	got := From(cause)

	require.NotNil(t, got)
	assert.Equal(t, KindInternal, got.Kind())
	assert.ErrorIs(t, got, cause)
}

func TestWithDetails(t *testing.T) {
	err := BadRequest("invalid item",
		WithDetail("menu_item_id", "m1"),
		WithDetails(map[string]any{"quantity": 0}),
	)

	assert.Equal(t, "m1", err.Details()["menu_item_id"])
	assert.Equal(t, 0, err.Details()["quantity"])
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := Conflict("duplicate payment", WithCause(cause))

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unique violation")
}
