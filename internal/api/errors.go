package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/userfile-api/internal/api/shared"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/service"
	"github.com/phrazzld/userfile-api/internal/store"
)

// Request-shape errors raised by the handlers themselves.
var (
	// ErrMalformedBody is returned when a request body cannot be decoded.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrMissingFile is returned when a multipart request has no "file" part.
	ErrMissingFile = errors.New("missing file part")
)

const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var maxBytesErr *http.MaxBytesError
	var validationErr *domain.ValidationError
	var validatorErrs validator.ValidationErrors

	switch {
	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Oversized uploads
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	// Bad request errors
	case errors.As(err, &validationErr),
		errors.As(err, &validatorErrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, ErrMalformedBody),
		errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest

	// Upstream unavailable
	case errors.Is(err, service.ErrQueueUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var maxBytesErr *http.MaxBytesError
	var validationErr *domain.ValidationError
	var validatorErrs validator.ValidationErrors

	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.As(err, &maxBytesErr):
		return "File too large"

	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)

	case errors.As(err, &validatorErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrInvalidImage):
		return "Uploaded file is not an image"

	case errors.Is(err, ErrMalformedBody):
		return "Invalid request body"

	case errors.Is(err, ErrMissingFile):
		return "Invalid file: required field"

	case errors.Is(err, service.ErrQueueUnavailable):
		return "Image processing queue is unavailable, try again later"

	case errors.Is(err, service.ErrFileWrite):
		return "Failed to store file"

	case errors.Is(err, service.ErrStore):
		return "Failed to access user records"

	default:
		return genericErrorMessage
	}
}

// SanitizeValidationError renders the first validator failure without
// exposing Go type names.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(verrs[0].Tag()))
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the safe response for err and logs the redacted cause.
// A non-empty fallback replaces the generic message for unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if fallback != "" && message == genericErrorMessage {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusRequestEntityTooLarge {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
