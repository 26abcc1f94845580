package blob

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonetrack/internal/platform/config"
)

func TestHandleGet(t *testing.T) {
	store := NewMemory("http://localhost:8080")
	_, err := store.Upload(context.Background(), "1-cat.jpg", "image/jpeg", strings.NewReader("\xff\xd8jpeg"))
	require.NoError(t, err)

	router := chi.NewRouter()
	NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	t.Run("serves stored bytes", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/photos/1-cat.jpg", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
		assert.Equal(t, "\xff\xd8jpeg", rr.Body.String())
	})

	t.Run("404 for unknown photo", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/photos/missing.jpg", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), `"success":false`)
	})
}

func TestNewFromConfig(t *testing.T) {
	store, closer, err := NewFromConfig(configFor("memory"), nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = NewFromConfig(configFor("s3"), nil)
	assert.Error(t, err)
}

func configFor(backend string) config.Blob {
	return config.Blob{Backend: backend, PublicBaseURL: "http://localhost:8080", Bucket: "tracking-photos"}
}
