package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"phonetrack/internal/auth/handler/mocks"
	"phonetrack/internal/auth/models"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/auth-mocks.go -package=mocks Service
type AuthHandlerSuite struct {
	suite.Suite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, *chi.Mux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	return svc, router
}

func (s *AuthHandlerSuite) do(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (s *AuthHandlerSuite) TestSignup() {
	s.T().Run("201 on success with sanitized input", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Signup(gomock.Any(), &models.SignupRequest{
			Email: "a@x.com", Password: "pw123", Name: "A", Phone: "555",
		}).Return(nil)

		rr := s.do(router, "/signup", `{"email":" a@x.com ","password":"pw123","name":"A","phone":" 555"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body models.SignupResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "User registered successfully", body.Message)
	})

	s.T().Run("400 when email is missing", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, "/signup", `{"password":"pw123"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.False(t, body.Success)
		assert.Equal(t, "validation_error", body.Error)
		assert.Equal(t, "email is required", body.Message)
	})

	s.T().Run("400 on malformed json", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, "/signup", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "bad_request", decodeError(t, rr).Error)
	})

	s.T().Run("409 on duplicate", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Signup(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeConflict, "user already exists"))

		rr := s.do(router, "/signup", `{"email":"a@x.com","password":"pw123"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "conflict", body.Error)
		assert.Equal(t, "user already exists", body.Message)
	})

	s.T().Run("500 hides upstream detail", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Signup(gomock.Any(), gomock.Any()).
			Return(dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to create user"))

		rr := s.do(router, "/signup", `{"email":"a@x.com","password":"pw123"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "internal_error", body.Error)
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}

func (s *AuthHandlerSuite) TestLogin() {
	s.T().Run("200 with token and public user", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Login(gomock.Any(), &models.LoginRequest{Email: "a@x.com", Password: "pw123"}).
			Return(&models.LoginResult{
				Success: true,
				Token:   "tok",
				User:    models.PublicUser{ID: "u1", Email: "a@x.com", Name: "A"},
			}, nil)

		rr := s.do(router, "/login", `{"email":"a@x.com","password":"pw123"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
		assert.Equal(t, true, raw["success"])
		assert.Equal(t, "tok", raw["token"])
		user := raw["user"].(map[string]any)
		assert.Equal(t, map[string]any{"id": "u1", "email": "a@x.com", "name": "A"}, user)
		assert.NotContains(t, rr.Body.String(), "password")
	})

	s.T().Run("401 on invalid credentials", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))

		rr := s.do(router, "/login", `{"email":"a@x.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "unauthorized", body.Error)
		assert.Equal(t, "Invalid credentials", body.Message)
	})

	s.T().Run("missing password is left to the service", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Login(gomock.Any(), &models.LoginRequest{Email: "a@x.com"}).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))

		rr := s.do(router, "/login", `{"email":"a@x.com"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", decodeError(t, rr).Message)
	})
}
