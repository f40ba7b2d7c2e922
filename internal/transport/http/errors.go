package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"userauth/internal/domain"
	"userauth/internal/dto"
	obsmw "userauth/internal/observability/middleware"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError renders err as the business error envelope. Errors without a
// business code become a generic 500 so internals never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	reqID := obsmw.RequestIDFromContext(r.Context())
	traceID := obsmw.TraceIDFromContext(r.Context())

	be, ok := domain.AsBusinessError(err)
	if !ok {
		logger.ErrorContext(r.Context(), "unhandled error", "err", err, "path", r.URL.Path, "request_id", reqID, "trace_id", traceID)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			BusinessErrorCode:        domain.ErrNoCode.Code,
			BusinessErrorDescription: "Internal error",
			Error:                    "internal server error",
		})
		return
	}

	resp := dto.ErrorResponse{
		BusinessErrorCode:        be.Code,
		BusinessErrorDescription: be.Description,
		Error:                    err.Error(),
		ValidationErrors:         dto.FieldErrors(err),
	}
	if be.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "code", be.Code, "err", err, "path", r.URL.Path, "request_id", reqID, "trace_id", traceID)
		resp.Error = be.Description
	} else {
		logger.InfoContext(r.Context(), "request rejected", "code", be.Code, "err", err, "path", r.URL.Path, "request_id", reqID, "trace_id", traceID)
	}
	writeJSON(w, be.Status, resp)
}

// validationFailed wraps ozzo field errors so writeError maps them to
// ErrValidation and still finds the per-field messages.
type validationFailed struct {
	cause error
}

func (v validationFailed) Error() string { return domain.ErrValidation.Description + ": " + v.cause.Error() }

func (v validationFailed) Unwrap() []error { return []error{domain.ErrValidation, v.cause} }
