// Package auth holds the access guard that binds a verified identity to the
// request context.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/httputil"
	"phonetrack/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns the identity it carries.
type TokenVerifier interface {
	VerifyToken(tokenString string) (id.UserID, error)
}

const bearerPrefix = "Bearer "

// Metrics counts guard rejections. A nil Metrics is valid.
type Metrics interface {
	IncRejected(reason string)
}

// RequireAuth rejects requests without a token (403) or with a token that
// fails verification for any reason (401). It never consults record storage.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger, metrics Metrics) func(http.Handler) http.Handler {
	reject := func(reason string) {
		if metrics != nil {
			metrics.IncRejected(reason)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, present := extractToken(r.Header.Get("Authorization"))
			if !present {
				logger.WarnContext(ctx, "access denied - no token provided",
					"request_id", requestID,
				)
				reject("missing_token")
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "No token provided"))
				return
			}

			userID, err := verifier.VerifyToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				reject("invalid_token")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reports whether any token was supplied. A header with a scheme
// other than Bearer counts as a supplied (and therefore invalid) token.
func extractToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		if strings.EqualFold(header, strings.TrimSpace(bearerPrefix)) {
			return "", false
		}
		return header, true
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
