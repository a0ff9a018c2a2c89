// Package apperr defines the application error taxonomy.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Run-fatal errors: surfaced to the trigger caller
	CodeAuthError      = "AUTH_ERROR"
	CodeTransientFetch = "TRANSIENT_FETCH_ERROR"
	CodeStorageError   = "STORAGE_ERROR"

	// Locally recovered errors: logged, never surfaced via HTTP
	CodeExtractionParse = "EXTRACTION_PARSE_ERROR"
	CodeExtractionCall  = "EXTRACTION_CALL_ERROR"
	CodeDecodeError     = "DECODE_ERROR"

	// Generic errors
	CodeBadRequest       = "BAD_REQUEST"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Auth returns an AuthError: the credential is missing, invalid, or could not
// be refreshed. Fatal to a pipeline run. The failing credential is the
// service's own, not the trigger caller's, so the status is 5xx: the caller
// cannot fix it by changing the request.
func Auth(message string, err error) *AppError {
	if message == "" {
		message = "credential missing or invalid"
	}
	return &AppError{
		Code:    CodeAuthError,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// TransientFetch returns a TransientFetchError: the mail service call failed.
// Fatal to a pipeline run; retry is left to the caller.
func TransientFetch(err error) *AppError {
	return &AppError{
		Code:    CodeTransientFetch,
		Message: "mail service call failed",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// ExtractionParse returns an ExtractionParseError: the model output was not a
// valid JSON array. Recovered per message.
func ExtractionParse(err error) *AppError {
	return &AppError{
		Code:    CodeExtractionParse,
		Message: "model output is not valid structured JSON",
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// ExtractionCall returns an error for a failed model invocation. Recovered per
// message.
func ExtractionCall(err error) *AppError {
	return &AppError{
		Code:    CodeExtractionCall,
		Message: "model call failed",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Storage returns a StorageError: a row failed to insert. Fatal to the persist
// call; rows already written stay written.
func Storage(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: fmt.Sprintf("storage error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Decode marks a message body that could not be base64-decoded. The fetch
// degrades to a sentinel body instead of failing; this error is log-only.
func Decode(err error) *AppError {
	return &AppError{
		Code:    CodeDecodeError,
		Message: "message body could not be decoded",
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// DeadlineExceeded returns an error for a caller deadline expiring during a
// limiter wait or remote call.
func DeadlineExceeded(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDeadlineExceeded,
		Message: fmt.Sprintf("deadline exceeded: %s", operation),
		Status:  http.StatusGatewayTimeout,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsAuth(err error) bool           { return IsCode(err, CodeAuthError) }
func IsTransientFetch(err error) bool { return IsCode(err, CodeTransientFetch) }
func IsStorage(err error) bool        { return IsCode(err, CodeStorageError) }

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
