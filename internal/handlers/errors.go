package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrDuplicateGroupID),
		errors.Is(err, apperrors.ErrAlreadyInProgress),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrIntegrity), errors.Is(err, apperrors.ErrUnbalanced):
		return http.StatusInternalServerError
	case errors.Is(err, apperrors.ErrCurrencyMismatch),
		errors.Is(err, apperrors.ErrAccountClosed),
		errors.Is(err, apperrors.ErrAccountFrozen),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInsufficientAvailableFunds),
		errors.Is(err, apperrors.ErrLimitExceeded),
		errors.Is(err, apperrors.ErrOtpExpired),
		errors.Is(err, apperrors.ErrOtpInvalid),
		errors.Is(err, apperrors.ErrPinInvalid),
		errors.Is(err, apperrors.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &appErr):
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status. Server-side faults are logged with the cause
// and answered with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, errorBody(err))
}

// errorBody carries the message and, when one applies, the failure reason code.
func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	if reason := apperrors.ReasonCode(err); reason != apperrors.ReasonInternal {
		body["reason"] = reason
	}
	return body
}

// bindError answers malformed bodies and query strings.
func bindError(c *gin.Context, logger *slog.Logger, err error, what string) {
	logger.Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + ": " + err.Error()})
}
