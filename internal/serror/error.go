package serror

import "net/http"

type (
	// An SError represents the error format that can be rendered by savepoint server.
	SError struct {
		HTTPCode   int `json:"-"`
		FieldError err `json:"error"`
	}

	err struct {
		Tag     string `json:"tag,omitempty"`
		Message string `json:"message"`
	}
)

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	if serr, ok := err.(*SError); ok {
		return serr.HTTPCode
	}
	return http.StatusInternalServerError
}

// Tag returns the error tag, if any.
func Tag(err error) string {
	if serr, ok := err.(*SError); ok {
		return serr.FieldError.Tag
	}
	return ""
}

// New returns a new SError with the given code, tag and message.
func New(code int, tag, message string) *SError {
	return &SError{HTTPCode: code, FieldError: err{Tag: tag, Message: message}}
}

// Validation returns a new SError for a malformed or rejected payload.
func Validation(message string) *SError {
	return New(http.StatusBadRequest, "validation", message)
}

// NotFound returns a new SError for a missing resource.
func NotFound(message string) *SError {
	return New(http.StatusNotFound, "not-found", message)
}

// Conflict returns a new SError for a uniqueness violation.
func Conflict(message string) *SError {
	return New(http.StatusConflict, "conflict", message)
}

// Unauthorized returns a new SError for a failed authentication.
func Unauthorized(tag, message string) *SError {
	return New(http.StatusUnauthorized, tag, message)
}

// Forbidden returns a new SError for a denied operation.
func Forbidden(message string) *SError {
	return New(http.StatusForbidden, "forbidden", message)
}

// Error implements error interface.
func (e *SError) Error() string {
	return e.FieldError.Message
}
