package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 24 * time.Hour

// Verification failure kinds. Verify wraps exactly one of these in a
// CodeUnauthorized domain error, so callers can match with errors.Is.
var (
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
)

// SessionClaims is the signed payload of a session token.
type SessionClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Claim is the verified identity carried by a token.
type Claim struct {
	UserID    id.UserID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTService issues and verifies HS256 session tokens with a process-wide key.
type JWTService struct {
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

type Option func(*JWTService)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

func NewJWTService(signingKey string, tokenTTL time.Duration, opts ...Option) *JWTService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	s := &JWTService{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenTTL reports the configured token lifetime.
func (s *JWTService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Issue signs a token for the identity. Several live tokens per identity are allowed.
func (s *JWTService) Issue(userID id.UserID, email string) (string, error) {
	if userID.IsNil() {
		return "", dErrors.New(dErrors.CodeInternal, "cannot issue token for nil user")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. A token is expired once the
// clock reaches its expiresAt second.
func (s *JWTService) Verify(tokenString string) (*Claim, error) {
	claims := new(SessionClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, unauthorized(ErrTokenMalformed)
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, unauthorized(ErrTokenMalformed)
	}

	claim := &Claim{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time
	}
	return claim, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthorized(ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return unauthorized(ErrSignatureInvalid)
	default:
		return unauthorized(ErrTokenMalformed)
	}
}

func unauthorized(kind error) error {
	return dErrors.Wrap(kind, dErrors.CodeUnauthorized, kind.Error())
}
