package models

import (
	"io"
	"time"

	id "phonetrack/pkg/domain"
)

// DefaultStatus is assigned to every newly created record.
const DefaultStatus = "active"

// Record is a tracking entry owned by exactly one user. OwnerID and Location
// are fixed at creation; Status and Description may change through Update.
type Record struct {
	ID          id.RecordID
	OwnerID     id.UserID
	PhoneNumber string
	PhotoURL    *string
	Description string
	Location    string
	Status      string
	CreatedAt   time.Time
}

// Photo is an optional upload attached to a create request.
type Photo struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// CreateCommand carries everything needed to create a record.
type CreateCommand struct {
	OwnerID     id.UserID
	PhoneNumber string
	Description string
	Location    string
	Photo       *Photo
}

// UpdateFields is a partial update; nil fields are left untouched.
type UpdateFields struct {
	Status      *string
	Description *string
}

// Empty reports whether the patch would change nothing.
func (u UpdateFields) Empty() bool {
	return u.Status == nil && u.Description == nil
}

// Apply mutates r with the non-nil fields.
func (u UpdateFields) Apply(r *Record) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
}
