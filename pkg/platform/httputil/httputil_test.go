package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/requestcontext"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "email is required"), http.StatusBadRequest, "validation_error", "email is required"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "user already exists"), http.StatusConflict, "conflict", "user already exists"},
		{"unauthorized", dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"), http.StatusUnauthorized, "unauthorized", "Invalid credentials"},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "No token provided"), http.StatusForbidden, "forbidden", "No token provided"},
		{"not found", dErrors.New(dErrors.CodeNotFound, "record not found"), http.StatusNotFound, "not_found", "record not found"},
		{"wrapped domain error", fmt.Errorf("outer: %w", dErrors.New(dErrors.CodeConflict, "dup")), http.StatusConflict, "conflict", "dup"},
		{"internal is redacted", dErrors.Wrap(errors.New("pq: connection refused to 10.0.0.3"), dErrors.CodeInternal, "store failed"), http.StatusInternalServerError, "internal_error", "internal error"},
		{"plain error is redacted", errors.New("secret upstream detail"), http.StatusInternalServerError, "internal_error", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(w, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"abc"}}`, w.Body.String())
}

func TestRequireUserID(t *testing.T) {
	t.Run("missing user is internal", func(t *testing.T) {
		_, err := RequireUserID(context.Background(), nil, "req-1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("bound user is returned", func(t *testing.T) {
		userID := id.NewUserID()
		ctx := requestcontext.WithUserID(context.Background(), userID)

		got, err := RequireUserID(ctx, nil, "req-1")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})
}
