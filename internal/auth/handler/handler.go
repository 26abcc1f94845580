package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phonetrack/internal/auth/models"
	"phonetrack/pkg/platform/httputil"
	"phonetrack/pkg/requestcontext"
)

// Service defines the interface for identity operations.
type Service interface {
	Signup(ctx context.Context, req *models.SignupRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
}

// Handler serves the public registration and login endpoints.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger,
	}
}

// Register mounts the unauthenticated routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
}

// HandleSignup implements POST /signup.
//
// Input: { "email": "a@x.com", "password": "...", "name": "A", "phone": "555" }
// Output: 201 { "success": true, "message": "User registered successfully" }
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.auth.Signup(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "signup failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &models.SignupResult{
		Success: true,
		Message: "User registered successfully",
	})
}

// HandleLogin implements POST /login.
//
// Input: { "email": "a@x.com", "password": "..." }
// Output: 200 { "success": true, "token": "...", "user": { "id", "email", "name" } }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login successful",
		"request_id", requestID,
		"user_id", res.User.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
