package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the client-side failure taxonomy.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrAuthExpired          = errors.New("session expired")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrInternal             = errors.New("internal error")
	ErrServiceUnavail       = errors.New("service unavailable")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrIdentityFetch        = errors.New("identity fetch failed")
	ErrBalanceReadExhausted = errors.New("balance read exhausted")
)

// AppError is a structured error carrying the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// AuthExpired marks a 401 that could not be recovered by a credential refresh.
// The cause is either the original 401 or the failed refresh call.
func AuthExpired(cause error) *AppError {
	return &AppError{
		Code:    "AUTH_EXPIRED",
		Message: "session expired, please log in again",
		Status:  http.StatusUnauthorized,
		Err:     errors.Join(ErrAuthExpired, cause),
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "PERMISSION_DENIED",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// PaymentFailed creates a 422 error for a rejected order or payment verification.
func PaymentFailed(message string) *AppError {
	return &AppError{
		Code:    "PAYMENT_FAILED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrPaymentFailed,
	}
}

// IdentityFetchFailed reports a /auth/me call that left the session without an identity.
func IdentityFetchFailed(cause error) *AppError {
	return &AppError{
		Code:    "IDENTITY_FETCH_FAILED",
		Message: "could not load the current user",
		Status:  HTTPStatus(cause),
		Err:     errors.Join(ErrIdentityFetch, cause),
	}
}

// BalanceReadExhausted reports that every credit refresh attempt failed.
func BalanceReadExhausted(attempts int, cause error) *AppError {
	return &AppError{
		Code:    "BALANCE_READ_EXHAUSTED",
		Message: fmt.Sprintf("credit balance unavailable after %d attempts", attempts),
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrBalanceReadExhausted, cause),
	}
}

// FromStatus maps a non-2xx API response onto the taxonomy. An empty message
// falls back to the status text.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return NotFound(message)
	case status == http.StatusBadRequest:
		return InvalidInput(message)
	case status == http.StatusUnauthorized:
		return Unauthorized(message)
	case status == http.StatusForbidden:
		return Forbidden(message)
	case status == http.StatusConflict:
		return Conflict(message)
	case status == http.StatusUnprocessableEntity:
		return PaymentFailed(message)
	case status == http.StatusServiceUnavailable:
		return &AppError{Code: "SERVICE_UNAVAILABLE", Message: message, Status: status, Err: ErrServiceUnavail}
	case status >= 500:
		return &AppError{Code: "SERVER_ERROR", Message: message, Status: status, Err: ErrInternal}
	default:
		return &AppError{Code: "HTTP_ERROR", Message: message, Status: status}
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrServiceUnavail), errors.Is(err, ErrBalanceReadExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage renders an error the way the UI shows it to a person: fixed
// wording for auth and lookup failures, the backend's own message otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch HTTPStatus(err) {
	case http.StatusUnauthorized:
		return "Unauthorized - please log in again"
	case http.StatusForbidden:
		return "Access denied - insufficient permissions"
	case http.StatusNotFound:
		return "Resource not found"
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
