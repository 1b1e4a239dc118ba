package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := map[ErrorType]int{
		DatabaseError:        http.StatusInternalServerError,
		AuthError:            http.StatusUnauthorized,
		UnauthorizedError:    http.StatusForbidden,
		NotFoundError:        http.StatusNotFound,
		ValidationError:      http.StatusBadRequest,
		ExternalServiceError: http.StatusBadGateway,
		ConflictError:        http.StatusConflict,
		RateLimitError:       http.StatusTooManyRequests,
		UnavailableError:     http.StatusServiceUnavailable,
		UnknownError:         http.StatusInternalServerError,
	}
	for typ, want := range cases {
		assert.Equal(t, want, NewAppError(typ, "x", nil).StatusCode(), typ.String())
	}
}

func TestErrorWrapping(t *testing.T) {
	root := errors.New("connection refused")
	appErr := NewDatabaseError("failed to load user", root)

	assert.Equal(t, "failed to load user: connection refused", appErr.Error())
	assert.ErrorIs(t, appErr, root)

	wrapped := fmt.Errorf("service layer: %w", NewNotFoundError("user not found", nil))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflictError(wrapped))

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, NotFoundError, got.Type)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, NewValidationError("amount must be positive", nil).
		WithDetails(map[string]string{"amount": "gt"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, "amount must be positive", body.Message)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.NotEmpty(t, body.Timestamp)
	assert.Equal(t, "gt", body.Details["amount"])
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password authentication")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"asha"}`))
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "asha", p.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		require.Error(t, err)
		appErr, ok := FromError(err)
		require.True(t, ok)
		assert.Equal(t, BadRequestError, appErr.Type)
	})

	t.Run("empty", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}
