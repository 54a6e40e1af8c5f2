package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := InvalidInput("postcode is required")
	assert.Equal(t, "INVALID_INPUT: postcode is required: invalid input", err.Error())

	wrapped := &AppError{
		Code:    "UPSTREAM_ERROR",
		Message: "its: create search failed",
		Status:  http.StatusBadGateway,
		Err:     errors.New("boom"),
	}
	assert.Equal(t, "UPSTREAM_ERROR: its: create search failed: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	err := NotFound("review", "abc")
	assert.True(t, errors.Is(err, ErrNotFound))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("get review: %w", err), &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Upstream("zen", "non-2xx"), http.StatusBadGateway},
		{"upstream timeout", UpstreamTimeout("its"), http.StatusGatewayTimeout},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrInvalidInput), http.StatusBadRequest},
		{"not found sentinel", ErrNotFound, http.StatusNotFound},
		{"unauthorized sentinel", ErrUnauthorized, http.StatusUnauthorized},
		{"unavailable sentinel", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUpstreamHelpers(t *testing.T) {
	err := Upstream("zen", "status 500")
	assert.Equal(t, "UPSTREAM_ERROR", err.Code)
	assert.Contains(t, err.Message, "zen")
	assert.True(t, errors.Is(err, ErrUpstream))

	timeout := UpstreamTimeout("zen")
	assert.Equal(t, "UPSTREAM_TIMEOUT", timeout.Code)
	assert.True(t, errors.Is(timeout, ErrUpstreamSlow))
}
