package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/netutil"
	obsmw "userauth/internal/observability/middleware"
	"userauth/internal/service"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	auth       service.AuthService
	tokens     TokenVerifier
	logger     *slog.Logger
	trustProxy bool
}

func NewHandler(auth service.AuthService, tokens TokenVerifier, logger *slog.Logger, trustProxy bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, tokens: tokens, logger: logger, trustProxy: trustProxy}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, validationFailed{cause: err})
		return
	}
	if err := h.auth.Register(r.Context(), req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthenticationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, validationFailed{cause: err})
		return
	}

	resp, err := h.auth.Authenticate(r.Context(), req)
	if err != nil {
		h.logger.InfoContext(r.Context(), "login failed",
			"email", domain.NormalizeEmail(req.Email),
			"ip", netutil.ClientIP(r, h.trustProxy),
			"user_agent", netutil.TruncateUserAgent(r.UserAgent()),
			"request_id", obsmw.RequestIDFromContext(r.Context()),
		)
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	req := dto.ActivationRequest{
		Token: r.URL.Query().Get("token"),
		Email: r.URL.Query().Get("email"),
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, validationFailed{cause: err})
		return
	}
	if err := h.auth.ActivateAccount(r.Context(), req.Token, req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ActivationResponse{Status: "activated"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, errUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, dto.MeResponse{Subject: p.Subject, FullName: p.FullName, Roles: p.Roles})
}

func (h *Handler) jwks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, h.tokens.JWKS())
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrValidation)
		}
		return errors.Join(domain.ErrValidation, err)
	}
	return nil
}
