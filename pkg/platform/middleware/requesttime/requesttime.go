// Package requesttime pins one "now" per HTTP request so a record's
// created_at, its photo name and its log lines agree on the same instant.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type ctxKey struct{}

// Middleware stamps the request context with the time it arrived.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithTime(r.Context(), time.Now())))
	})
}

// Now returns the stamped request time, or the wall clock outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ctxKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime stamps ctx with t.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}
