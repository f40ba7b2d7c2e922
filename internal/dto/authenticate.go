package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func (r *AuthenticationRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// Validate only checks presence of the password. Length rules apply at
// registration; a login attempt must reach the credential check so a locked
// or disabled account reports its own error.
func (r AuthenticationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type AuthenticationResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}
