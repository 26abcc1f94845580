package jwttoken

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
)

const testKey = "test-signing-key"

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type JWTServiceSuite struct {
	suite.Suite
	clock   *clock
	service *JWTService
	userID  id.UserID
}

func TestJWTServiceSuite(t *testing.T) {
	suite.Run(t, new(JWTServiceSuite))
}

func (s *JWTServiceSuite) SetupTest() {
	s.clock = &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.service = NewJWTService(testKey, DefaultTokenTTL, WithClock(s.clock.Now))
	s.userID = id.NewUserID()
}

func (s *JWTServiceSuite) issue() string {
	token, err := s.service.Issue(s.userID, "a@x.com")
	s.Require().NoError(err)
	s.Require().NotEmpty(token)
	return token
}

func (s *JWTServiceSuite) TestIssueThenVerifyRoundTrips() {
	token := s.issue()

	claim, err := s.service.Verify(token)
	s.Require().NoError(err)
	s.Equal(s.userID, claim.UserID)
	s.Equal("a@x.com", claim.Email)
	s.Equal(s.clock.t, claim.IssuedAt.UTC())
	s.Equal(s.clock.t.Add(24*time.Hour), claim.ExpiresAt.UTC())
}

func (s *JWTServiceSuite) TestMultipleTokensPerIdentityStayValid() {
	first := s.issue()
	s.clock.t = s.clock.t.Add(time.Minute)
	second := s.issue()

	_, err := s.service.Verify(first)
	s.NoError(err)
	_, err = s.service.Verify(second)
	s.NoError(err)
}

func (s *JWTServiceSuite) TestExpiryBoundary() {
	token := s.issue()
	issued := s.clock.t

	s.Run("valid one second before expiry", func() {
		s.clock.t = issued.Add(24*time.Hour - time.Second)
		_, err := s.service.Verify(token)
		s.NoError(err)
	})

	s.Run("expired at exactly issuedAt plus lifetime", func() {
		s.clock.t = issued.Add(24 * time.Hour)
		_, err := s.service.Verify(token)
		s.Require().Error(err)
		s.ErrorIs(err, ErrTokenExpired)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired long after", func() {
		s.clock.t = issued.Add(48 * time.Hour)
		_, err := s.service.Verify(token)
		s.ErrorIs(err, ErrTokenExpired)
	})
}

func (s *JWTServiceSuite) TestMalformed() {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.service.Verify(token)
		s.Require().Error(err, token)
		s.ErrorIs(err, ErrTokenMalformed, token)
	}
}

func (s *JWTServiceSuite) TestForeignKeyIsSignatureInvalid() {
	other := NewJWTService("another-key", DefaultTokenTTL, WithClock(s.clock.Now))
	token, err := other.Issue(s.userID, "a@x.com")
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrSignatureInvalid)
}

func (s *JWTServiceSuite) TestTamperedPayloadIsRejected() {
	token := s.issue()
	parts := strings.Split(token, ".")
	s.Require().Len(parts, 3)

	forged, err := NewJWTService("attacker", DefaultTokenTTL, WithClock(s.clock.Now)).Issue(id.NewUserID(), "evil@x.com")
	s.Require().NoError(err)
	forgedParts := strings.Split(forged, ".")

	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]
	_, err = s.service.Verify(tampered)
	s.ErrorIs(err, ErrSignatureInvalid)
}

func (s *JWTServiceSuite) TestRejectsAlgorithmConfusion() {
	claims := SessionClaims{
		UserID: s.userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrSignatureInvalid)
}

func (s *JWTServiceSuite) TestRejectsNonUUIDSubject() {
	claims := SessionClaims{
		UserID: "42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrTokenMalformed)
}

func (s *JWTServiceSuite) TestRejectsTokenWithoutExpiry() {
	claims := SessionClaims{UserID: s.userID.String()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.Error(err)
}

func TestIssueRejectsNilUser(t *testing.T) {
	_, err := NewJWTService(testKey, 0).Issue(id.UserID{}, "a@x.com")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestNewJWTServiceDefaultsTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewJWTService(testKey, 0).TokenTTL())
}

func TestVerifierAdapter(t *testing.T) {
	service := NewJWTService(testKey, time.Hour)
	userID := id.NewUserID()
	token, err := service.Issue(userID, "a@x.com")
	require.NoError(t, err)

	adapter := NewVerifierAdapter(service)
	got, err := adapter.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = adapter.VerifyToken("garbage")
	assert.True(t, errors.Is(err, ErrTokenMalformed))
}
