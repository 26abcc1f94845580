package models

import (
	dErrors "phonetrack/pkg/domain-errors"
	s "phonetrack/pkg/string"
	"phonetrack/pkg/validation"
)

// CreateRequest holds the text fields of a create request, sent either as
// multipart form fields or as a JSON body.
type CreateRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,notblank,max=32"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=500"`
}

func (r *CreateRequest) Sanitize() {
	s.TrimStrings(&r.PhoneNumber, &r.Description, &r.Location)
}

func (r *CreateRequest) Validate() error {
	return validation.Validate(r)
}

// UpdateRequest is the body of PUT /tracking/update/{id}.
type UpdateRequest struct {
	Status      *string `json:"status" validate:"omitnil,notblank,max=32"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

func (r *UpdateRequest) Sanitize() {
	r.Status = s.TrimOptional(r.Status)
	r.Description = s.TrimOptional(r.Description)
}

func (r *UpdateRequest) Validate() error {
	if r.Status == nil && r.Description == nil {
		return dErrors.New(dErrors.CodeValidation, "status or description is required")
	}
	return validation.Validate(r)
}

// Fields converts the request into a store patch.
func (r *UpdateRequest) Fields() UpdateFields {
	return UpdateFields{Status: r.Status, Description: r.Description}
}
