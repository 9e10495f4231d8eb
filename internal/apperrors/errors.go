package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when an unexpected failure is hidden from the caller.
var ErrInternal = errors.New("internal error")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// Money and account errors.
var (
	ErrCurrencyMismatch           = errors.New("currency mismatch")
	ErrOverflow                   = errors.New("amount overflow")
	ErrUnknownAccount             = errors.New("unknown account")
	ErrAccountClosed              = errors.New("account is closed")
	ErrAccountFrozen              = errors.New("account is frozen")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientAvailableFunds = errors.New("insufficient available funds")
)

// Ledger integrity errors. ErrUnbalanced always travels wrapped in ErrIntegrity.
var (
	ErrUnbalanced             = errors.New("ledger entries are not balanced")
	ErrIntegrity              = errors.New("ledger integrity fault")
	ErrDuplicateGroupID       = errors.New("posting group already exists")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// Transfer workflow errors.
var (
	ErrLimitExceeded     = errors.New("transfer limit exceeded")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrOtpExpired        = errors.New("otp expired")
	ErrOtpInvalid        = errors.New("otp invalid")
	ErrPinInvalid        = errors.New("pin invalid")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyInProgress = errors.New("operation already in progress")
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Failure reason codes persisted on failed transfers.
const (
	ReasonInsufficientFunds          = "INSUFFICIENT_FUNDS"
	ReasonInsufficientAvailableFunds = "INSUFFICIENT_AVAILABLE_FUNDS"
	ReasonLimitExceeded              = "LIMIT_EXCEEDED"
	ReasonTooManyAttempts            = "TOO_MANY_ATTEMPTS"
	ReasonAccountClosed              = "ACCOUNT_CLOSED"
	ReasonAccountFrozen              = "ACCOUNT_FROZEN"
	ReasonUnknownAccount             = "UNKNOWN_ACCOUNT"
	ReasonCurrencyMismatch           = "CURRENCY_MISMATCH"
	ReasonIntegrity                  = "LEDGER_INTEGRITY_FAULT"
	ReasonCancelled                  = "CANCELLED"
	ReasonValidation                 = "VALIDATION_ERROR"
	ReasonInternal                   = "INTERNAL_ERROR"
)

// ReasonCode maps an error onto the failure reason code stored on a transfer.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIntegrity), errors.Is(err, ErrUnbalanced):
		return ReasonIntegrity
	case errors.Is(err, ErrInsufficientAvailableFunds):
		return ReasonInsufficientAvailableFunds
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrLimitExceeded):
		return ReasonLimitExceeded
	case errors.Is(err, ErrTooManyAttempts):
		return ReasonTooManyAttempts
	case errors.Is(err, ErrAccountClosed):
		return ReasonAccountClosed
	case errors.Is(err, ErrAccountFrozen):
		return ReasonAccountFrozen
	case errors.Is(err, ErrUnknownAccount):
		return ReasonUnknownAccount
	case errors.Is(err, ErrCurrencyMismatch):
		return ReasonCurrencyMismatch
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	default:
		return ReasonInternal
	}
}
