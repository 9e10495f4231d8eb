package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: amount", apperrors.ErrValidation), http.StatusBadRequest},
		{apperrors.ErrUnknownAccount, http.StatusNotFound},
		{fmt.Errorf("load: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.ErrDuplicateGroupID, http.StatusConflict},
		{apperrors.ErrInvalidTransition, http.StatusConflict},
		{apperrors.ErrTooManyAttempts, http.StatusTooManyRequests},
		{fmt.Errorf("%w: %w", apperrors.ErrIntegrity, apperrors.ErrUnbalanced), http.StatusInternalServerError},
		{apperrors.ErrInsufficientAvailableFunds, http.StatusUnprocessableEntity},
		{apperrors.ErrPinInvalid, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: pin of alice", apperrors.ErrForbidden), http.StatusForbidden},
		{apperrors.NewAppError(http.StatusServiceUnavailable, "store offline", nil), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestErrorBodyOmitsInternalReason(t *testing.T) {
	body := errorBody(apperrors.ErrAccountFrozen)
	assert.Equal(t, apperrors.ReasonAccountFrozen, body["reason"])

	body = errorBody(apperrors.ErrOtpInvalid)
	assert.NotContains(t, body, "reason")
	assert.Equal(t, "otp invalid", body["error"])
}
