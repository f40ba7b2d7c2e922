package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

type ErrorResponse struct {
	BusinessErrorCode        int               `json:"businessErrorCode"`
	BusinessErrorDescription string            `json:"businessErrorDescription"`
	Error                    string            `json:"error,omitempty"`
	ValidationErrors         map[string]string `json:"validationErrors,omitempty"`
}

// FieldErrors flattens ozzo validation errors into field -> message. It
// returns nil for errors that did not come from field validation.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}
