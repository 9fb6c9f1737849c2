package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	validator "github.com/go-playground/validator/v10"
)

// ErrorBody is the payload nested under "error" in every failure response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON decodes the request body into dst and runs struct validation.
// Failures come back as 400 AppErrors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewAppError("INVALID_BODY", "request body is required", http.StatusBadRequest, err)
		}
		return NewAppError("INVALID_BODY", "request body is not valid JSON", http.StatusBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		appErr := NewAppError("VALIDATION_FAILED", "request body failed validation", http.StatusBadRequest, err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("failed %s", fe.Tag())
			}
			appErr.Details = fields
		}
		return appErr
	}
	return nil
}
