package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonetrack/internal/sentinel"
)

func newSupabase(t *testing.T, handler http.HandlerFunc) *SupabaseStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSupabase(SupabaseConfig{
		URL:     srv.URL + "/",
		Key:     "service-key",
		Bucket:  "tracking-photos",
		Timeout: time.Second,
	}, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSupabaseUpload(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotType, gotUpsert, gotBody string
	store := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"Key":"tracking-photos/x"}`))
	})

	url, err := store.Upload(context.Background(), "1714564800123-cat.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/tracking-photos/1714564800123-cat.jpg", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "jpeg-bytes", gotBody)
	assert.True(t, strings.HasSuffix(url, "/storage/v1/object/public/tracking-photos/1714564800123-cat.jpg"), url)
}

func TestSupabaseUploadErrors(t *testing.T) {
	t.Run("conflict maps to already used", func(t *testing.T) {
		store := newSupabase(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})
		_, err := store.Upload(context.Background(), "n", "image/png", strings.NewReader("x"))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("server error carries status but is not a sentinel", func(t *testing.T) {
		store := newSupabase(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})
		_, err := store.Upload(context.Background(), "n", "image/png", strings.NewReader("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.False(t, errors.Is(err, sentinel.ErrAlreadyUsed))
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		var calls atomic.Int32
		store := newSupabase(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		for range 5 {
			_, err := store.Upload(context.Background(), "n", "", strings.NewReader("x"))
			require.Error(t, err)
		}
		_, err := store.Upload(context.Background(), "n", "", strings.NewReader("x"))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, int32(5), calls.Load())
	})
}

func TestSupabasePing(t *testing.T) {
	store := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/storage/v1/bucket/tracking-photos" && r.Header.Get("apikey") == "service-key" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})
	assert.NoError(t, store.Ping(context.Background()))
}
