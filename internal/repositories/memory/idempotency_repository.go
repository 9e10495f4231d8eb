package memory

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func (s *Store) GetIdempotencyRecord(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.idempotency[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rec, nil
}

func (s *Store) CreateIdempotencyRecord(_ context.Context, record domain.IdempotencyRecord) (*domain.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idempotency[record.Key]; ok {
		return &existing, false, nil
	}
	s.idempotency[record.Key] = record
	return &record, true, nil
}

func (s *Store) UpdateIdempotencyResult(_ context.Context, key string, resultStatus string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.idempotency[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	rec.ResultStatus = resultStatus
	rec.UpdatedAt = now
	s.idempotency[key] = rec
	return nil
}
