package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ActivationRequest carries the query parameters of the activation link.
type ActivationRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (r *ActivationRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
	r.Email = strings.TrimSpace(r.Email)
}

func (r ActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, validation.Length(1, 64), is.Digit),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ActivationResponse struct {
	Status string `json:"status"`
}

type MeResponse struct {
	Subject  string   `json:"sub"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles,omitempty"`
}
