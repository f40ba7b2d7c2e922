package impl

import (
	"context"
	"time"

	"userauth/internal/dto"
	"userauth/internal/observability/metrics"
	"userauth/internal/service"
)

const TokenTypeBearer = "Bearer"

type accessSigner interface {
	Sign(sub string, claims map[string]any) (string, time.Time, error)
}

// TokenServiceImpl mints access tokens through the process signing key.
type TokenServiceImpl struct {
	signer accessSigner
	now    func() time.Time
}

func NewTokenService(signer accessSigner) *TokenServiceImpl {
	return &TokenServiceImpl{signer: signer, now: time.Now}
}

func (t *TokenServiceImpl) Issue(ctx context.Context, id service.Identity, claims map[string]any) (*dto.AuthenticationResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("access", result).Inc()
	}()

	if id == nil || id.Subject() == "" {
		result = "error"
		return nil, ErrEmptySubject
	}
	token, exp, err := t.signer.Sign(id.Subject(), claims)
	if err != nil {
		result = "error"
		return nil, err
	}

	expiresIn := int64(exp.Sub(t.now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &dto.AuthenticationResponse{Token: token, TokenType: TokenTypeBearer, ExpiresIn: expiresIn}, nil
}
