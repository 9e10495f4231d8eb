package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func (s *Store) SavePinHash(_ context.Context, ownerID string, pinHash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinHashes[ownerID] = pinHash
	return nil
}

func (s *Store) FindPinHash(_ context.Context, ownerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.pinHashes[ownerID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return hash, nil
}

func (s *Store) SaveOTP(_ context.Context, otp domain.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.otps[otp.OtpID]; exists {
		return fmt.Errorf("%w: otp %s already exists", apperrors.ErrDuplicate, otp.OtpID)
	}
	s.otps[otp.OtpID] = otp
	s.otpsByTransfer[otp.TransferID] = append(s.otpsByTransfer[otp.TransferID], otp.OtpID)
	return nil
}

func (s *Store) FindLatestOTP(_ context.Context, transferID string) (*domain.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.otpsByTransfer[transferID]
	if len(ids) == 0 {
		return nil, apperrors.ErrNotFound
	}
	otp := s.otps[ids[len(ids)-1]]
	return &otp, nil
}

func (s *Store) ConsumeOTP(_ context.Context, otpID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[otpID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if otp.IsUsed() {
		return fmt.Errorf("%w: otp %s already used", apperrors.ErrConcurrentModification, otpID)
	}
	otp.UsedAt = &now
	s.otps[otpID] = otp
	return nil
}
