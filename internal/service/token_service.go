package service

import (
	"context"

	"userauth/internal/domain"
	"userauth/internal/dto"
)

type TokenService interface {
	Issue(ctx context.Context, id Identity, claims map[string]any) (*dto.AuthenticationResponse, error)
}

// CredentialVerifier checks an email/password pair and returns the account
// only if it may sign in.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*domain.User, error)
}
