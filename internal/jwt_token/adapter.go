package jwttoken

import (
	id "phonetrack/pkg/domain"
)

// VerifierAdapter exposes JWTService through the narrow interface the access
// guard middleware depends on.
type VerifierAdapter struct {
	service *JWTService
}

func NewVerifierAdapter(service *JWTService) *VerifierAdapter {
	return &VerifierAdapter{service: service}
}

func (a *VerifierAdapter) VerifyToken(tokenString string) (id.UserID, error) {
	claim, err := a.service.Verify(tokenString)
	if err != nil {
		return id.UserID{}, err
	}
	return claim.UserID, nil
}
