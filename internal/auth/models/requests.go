package models

import (
	s "phonetrack/pkg/string"
	"phonetrack/pkg/validation"
)

// SignupRequest is the body of POST /signup. Email stays case-sensitive as
// supplied; only surrounding whitespace is removed.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=32"`
}

func (r *SignupRequest) Sanitize() {
	s.TrimStrings(&r.Email, &r.Name, &r.Phone)
}

func (r *SignupRequest) Validate() error {
	return validation.Validate(r)
}

// LoginRequest is the body of POST /login. It has no validation rules; the
// service answers unusable pairs as invalid credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Sanitize() {
	s.TrimStrings(&r.Email)
}

// Usable reports whether the pair is worth a store lookup.
func (r *LoginRequest) Usable() bool {
	return r.Email != "" && len(r.Email) <= validation.MaxEmailLength &&
		r.Password != "" && len(r.Password) <= validation.MaxPasswordLength
}
