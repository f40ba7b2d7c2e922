package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"userauth/internal/domain"
	obsmw "userauth/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks access tokens issued by this service and publishes
// the verification key.
type TokenVerifier interface {
	Verify(token string) (jwt.MapClaims, error)
	JWKS() map[string]any
}

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	Subject  string
	FullName string
	Roles    []string
}

type principalKey struct{}

func contextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

var errUnauthorized = &domain.BusinessError{Code: domain.ErrNoCode.Code, Status: http.StatusUnauthorized, Description: "Full authentication is required"}

// BearerAuth rejects requests without a valid access token signed by verifier.
func BearerAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := obsmw.RequestIDFromContext(r.Context())
			traceID := obsmw.TraceIDFromContext(r.Context())

			raw := r.Header.Get("Authorization")
			if len(raw) < len("Bearer ") || !strings.EqualFold(raw[:len("Bearer ")], "bearer ") {
				logger.WarnContext(r.Context(), "auth missing bearer", "request_id", reqID, "trace_id", traceID)
				writeError(w, r, logger, errUnauthorized)
				return
			}
			claims, err := verifier.Verify(strings.TrimSpace(raw[len("Bearer "):]))
			if err != nil {
				logger.WarnContext(r.Context(), "auth invalid token", "err", err, "request_id", reqID, "trace_id", traceID)
				writeError(w, r, logger, errUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				logger.WarnContext(r.Context(), "auth missing subject", "request_id", reqID, "trace_id", traceID)
				writeError(w, r, logger, errUnauthorized)
				return
			}
			p := Principal{Subject: sub}
			p.FullName, _ = claims["fullName"].(string)
			if roles, ok := claims["roles"].([]any); ok {
				for _, role := range roles {
					if s, ok := role.(string); ok {
						p.Roles = append(p.Roles, s)
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(contextWithPrincipal(r.Context(), p)))
		})
	}
}
