package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	err := NotFound("order", "abc-123")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "abc-123")

	wrapped := Internal(errors.New("pg down"))
	assert.Contains(t, wrapped.Error(), "pg down")
}

func TestSentinelMapping(t *testing.T) {
	assert.ErrorIs(t, NotFound("order", "x"), ErrNotFound)
	assert.ErrorIs(t, InvalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, Conflict("stale"), ErrConflict)
	assert.ErrorIs(t, Forbidden("no"), ErrForbidden)
	assert.ErrorIs(t, RefundFailed("declined"), ErrRefundFailed)
	assert.ErrorIs(t, ServiceUnavailable("breaker open"), ErrServiceUnavail)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error not found", NotFound("cart", "c1"), http.StatusNotFound},
		{"app error conflict", Conflict("order changed"), http.StatusConflict},
		{"app error refund", RefundFailed("declined"), http.StatusUnprocessableEntity},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrInvalidInput), http.StatusBadRequest},
		{"wrapped unauthorized", fmt.Errorf("ctx: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"wrapped unavailable", fmt.Errorf("ctx: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("base")
	err := Wrap(base, "loading promo")
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "loading promo")
}
