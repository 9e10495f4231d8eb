package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// CredentialRepository stores owner PIN hashes.
type CredentialRepository interface {
	// SavePinHash creates or replaces the PIN hash of an owner.
	SavePinHash(ctx context.Context, ownerID string, pinHash string, now time.Time) error

	// FindPinHash returns apperrors.ErrNotFound when the owner never set a PIN.
	FindPinHash(ctx context.Context, ownerID string) (string, error)
}

// OTPRepository stores one-time codes issued for transfers.
type OTPRepository interface {
	SaveOTP(ctx context.Context, otp domain.OTP) error

	// FindLatestOTP returns the most recently issued code of a transfer.
	FindLatestOTP(ctx context.Context, transferID string) (*domain.OTP, error)

	// ConsumeOTP marks the code used. It returns apperrors.ErrConcurrentModification
	// if the code was already consumed.
	ConsumeOTP(ctx context.Context, otpID string, now time.Time) error
}
