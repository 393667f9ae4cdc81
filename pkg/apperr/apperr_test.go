package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsKind(t *testing.T) {
	err := New(AlreadyClaimed, "claim", "order-1", "")
	wrapped := fmt.Errorf("station service: %w", err)

	assert.True(t, errors.Is(wrapped, AlreadyClaimed))
	assert.False(t, errors.Is(wrapped, NotClaimant))
	assert.Equal(t, AlreadyClaimed, KindOf(wrapped))
	assert.Contains(t, err.Error(), "claim: Order already claimed by someone else")
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Transient, "list_orders", "", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, DayLocked, KindOf(DayLocked))
}

func TestOnlyTransientIsRetryable(t *testing.T) {
	for kind := range knownKinds {
		err := New(kind, "", "", "")
		assert.Equal(t, kind == Transient, IsRetryable(err), "kind %s", kind)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{AttendanceRequired, http.StatusForbidden},
		{AlreadyClaimed, http.StatusConflict},
		{NotClaimant, http.StatusForbidden},
		{NoDiscrepancy, http.StatusUnprocessableEntity},
		{Transient, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.kind))
		})
	}
}

func TestFromHTTP(t *testing.T) {
	t.Run("Known code wins over status", func(t *testing.T) {
		err := FromHTTP(http.StatusConflict, "ALREADY_CLAIMED", "gone")
		require.NotNil(t, err)
		assert.Equal(t, AlreadyClaimed, err.Kind)
		assert.Equal(t, "gone", err.Message)
	})

	t.Run("Unknown code falls back to status", func(t *testing.T) {
		assert.Equal(t, Unauthenticated, FromHTTP(http.StatusUnauthorized, "TOKEN_EXPIRED", "").Kind)
		assert.Equal(t, Transient, FromHTTP(http.StatusBadGateway, "", "").Kind)
		assert.Equal(t, Transient, FromHTTP(http.StatusGatewayTimeout, "", "").Kind)
		assert.Equal(t, Internal, FromHTTP(http.StatusInternalServerError, "", "").Kind)
		assert.Equal(t, NotFound, FromHTTP(http.StatusNotFound, "", "").Kind)
	})

	t.Run("Round trip through HTTPStatus", func(t *testing.T) {
		for kind := range knownKinds {
			assert.Equal(t, kind, FromHTTP(HTTPStatus(kind), string(kind), "").Kind)
		}
	})
}
