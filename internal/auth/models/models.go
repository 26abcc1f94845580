package models

import (
	"time"

	id "phonetrack/pkg/domain"
)

// User is a registered identity. PasswordHash never leaves the auth module.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	CreatedAt    time.Time
}

// Public returns the subset of fields safe to expose to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
	}
}

// NewUser builds a user ready to be persisted. The store assigns nothing
// further; ID and CreatedAt are fixed here.
func NewUser(email, passwordHash, name, phone string, now time.Time) *User {
	return &User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        phone,
		CreatedAt:    now,
	}
}
