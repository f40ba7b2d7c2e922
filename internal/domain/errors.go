package domain

import (
	"errors"
	"net/http"
)

// BusinessError is a failure with a stable code and description that
// transports can surface verbatim. Status is the canonical HTTP mapping.
type BusinessError struct {
	Code        int
	Status      int
	Description string
}

func (e *BusinessError) Error() string { return e.Description }

var (
	ErrNoCode = &BusinessError{Code: 0, Status: http.StatusNotImplemented, Description: "No code"}

	ErrAccountLocked   = &BusinessError{Code: 302, Status: http.StatusForbidden, Description: "User account is locked"}
	ErrAccountDisabled = &BusinessError{Code: 303, Status: http.StatusForbidden, Description: "User account is disabled"}
	ErrBadCredentials  = &BusinessError{Code: 304, Status: http.StatusForbidden, Description: "Login and / or password is incorrect"}

	ErrInvalidToken        = &BusinessError{Code: 305, Status: http.StatusBadRequest, Description: "Invalid token"}
	ErrInvalidTokenOrEmail = &BusinessError{Code: 306, Status: http.StatusBadRequest, Description: "Invalid token or email"}
	ErrTokenExpired        = &BusinessError{Code: 307, Status: http.StatusBadRequest, Description: "Activation token has expired. A new token is issued"}
	ErrTokenAlreadyUsed    = &BusinessError{Code: 308, Status: http.StatusConflict, Description: "Activation token has already been used"}

	ErrUserNotFound  = &BusinessError{Code: 309, Status: http.StatusInternalServerError, Description: "User not found"}
	ErrNotification  = &BusinessError{Code: 310, Status: http.StatusServiceUnavailable, Description: "Activation email could not be dispatched"}
	ErrConfiguration = &BusinessError{Code: 311, Status: http.StatusNotImplemented, Description: "Service is misconfigured"}

	ErrEmailAlreadyRegistered = &BusinessError{Code: 312, Status: http.StatusConflict, Description: "Email is already registered"}
	ErrValidation             = &BusinessError{Code: 313, Status: http.StatusBadRequest, Description: "Request validation failed"}
)

// AsBusinessError returns the first BusinessError in err's chain.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
