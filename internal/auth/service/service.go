package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TokenIssuer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"phonetrack/internal/auth/metrics"
	"phonetrack/internal/auth/models"
	"phonetrack/internal/sentinel"
	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
)

// UserStore persists identities.
// Error Contract: Create returns sentinel.ErrAlreadyUsed on a duplicate email;
// FindByEmail returns sentinel.ErrNotFound when absent.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordHasher hashes and verifies secrets. Verify reports a mismatch as a
// CodeUnauthorized domain error.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID id.UserID, email string) (string, error)
}

// Service implements signup and login.
type Service struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source for user creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(users UserStore, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	svc := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")

// Signup registers a new identity. The store decides uniqueness; there is no
// pre-check, so concurrent signups for one email yield exactly one success.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) error {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := models.NewUser(req.Email, hash, req.Name, req.Phone, s.now().UTC())
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.logger.InfoContext(ctx, "signup rejected - email taken",
				"request_id", requestID(ctx),
			)
			return dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, "user_created", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
	return nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same error, and both pay for one bcrypt compare.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	if !req.Usable() {
		s.burnVerify(req.Password)
		s.authFailure(ctx, "unusable_credentials")
		return nil, errInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.burnVerify(req.Password)
			s.authFailure(ctx, "unknown_email")
			return nil, errInvalidCredentials
		}
		s.observeLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := s.hasher.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.authFailure(ctx, "password_mismatch", "user_id", user.ID.String())
			return nil, errInvalidCredentials
		}
		s.observeLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.observeLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, "user_logged_in", "user_id", user.ID.String())
	s.observeLogin("success")
	return &models.LoginResult{
		Success: true,
		Token:   token,
		User:    user.Public(),
	}, nil
}

// burnVerify runs a verify against a throwaway digest so a missing account
// costs the same as a wrong password.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("phonetrack-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(password, s.dummyHash) //nolint:errcheck // result intentionally discarded
	}
}
