package service

import (
	"context"

	"userauth/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) error
	ActivateAccount(ctx context.Context, token, email string) error
	Authenticate(ctx context.Context, r dto.AuthenticationRequest) (*dto.AuthenticationResponse, error)
}

// Identity is all the authentication side needs to know about an account
// holder in order to mint a token.
type Identity interface {
	Subject() string
	DisplayName() string
}
