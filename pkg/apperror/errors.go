package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of its transport mapping.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindConflict          Kind = "CONFLICT"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindSelfTransfer      Kind = "SELF_TRANSFER"
	KindInvalidToken      Kind = "INVALID_TOKEN"
	KindMissingToken      Kind = "MISSING_TOKEN"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindInternal          Kind = "INTERNAL"
)

// Parent returns the broader kind a specialised kind belongs to, or the kind
// itself when it has none.
func (k Kind) Parent() Kind {
	switch k {
	case KindInvalidToken:
		return KindUnauthorized
	case KindMissingToken, KindSelfTransfer:
		return KindInvalidInput
	default:
		return k
	}
}

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// Is matches another AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf reports the kind of err. Errors that are not AppErrors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is of the given kind, either directly or through
// its parent kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	return k == kind || k.Parent() == kind
}

// ---- Validation (VAL) ----

// Validation returns a generic invalid-input error.
func Validation(message string) *AppError {
	return New(KindInvalidInput, "VAL_001", message, http.StatusBadRequest)
}

func ErrCredentialsRequired() *AppError {
	return New(KindInvalidInput, "VAL_002", "Username and password are required", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New(KindInvalidInput, "VAL_003", "Amount must be a positive integer", http.StatusBadRequest)
}

func ErrBodyTooLarge() *AppError {
	return New(KindInvalidInput, "VAL_004", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Users (USR) ----

func ErrUsernameExists() *AppError {
	return New(KindConflict, "USR_001", "User already exists", http.StatusConflict)
}

func ErrUserNotFound() *AppError {
	return New(KindNotFound, "USR_002", "User does not exist", http.StatusNotFound)
}

func ErrRecipientNotFound() *AppError {
	return New(KindNotFound, "USR_003", "Recipient does not exist", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidPassword() *AppError {
	return New(KindUnauthorized, "AUTH_001", "Invalid password", http.StatusUnauthorized)
}

func ErrInvalidToken(err error) *AppError {
	return Wrap(KindInvalidToken, "AUTH_002", "Invalid token", http.StatusUnauthorized, err)
}

func ErrMissingToken() *AppError {
	return New(KindMissingToken, "AUTH_003", "Refresh token is required", http.StatusBadRequest)
}

func ErrMissingBearer() *AppError {
	return New(KindUnauthorized, "AUTH_004", "Bearer token is required", http.StatusUnauthorized)
}

// ---- Transfers (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, "TRF_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrSelfTransfer() *AppError {
	return New(KindSelfTransfer, "TRF_002", "Cannot transfer to yourself", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(KindRateLimited, "RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
