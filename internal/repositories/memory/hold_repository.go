package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func (s *Store) SaveHold(_ context.Context, hold domain.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[hold.HoldID]; exists {
		return fmt.Errorf("%w: hold %s already exists", apperrors.ErrDuplicate, hold.HoldID)
	}
	s.holds[hold.HoldID] = hold
	return nil
}

func (s *Store) FindHoldByID(_ context.Context, holdID string) (*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holds[holdID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &h, nil
}

func (s *Store) ListActiveHoldsByAccount(_ context.Context, accountID string) ([]domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Hold{}
	for _, h := range s.holds {
		if h.AccountID == accountID && h.Status == domain.HoldActive {
			out = append(out, h)
		}
	}
	sortHolds(out)
	return out, nil
}

func (s *Store) FindExpiredHolds(_ context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Hold{}
	for _, h := range s.holds {
		if h.Status == domain.HoldActive && h.ReleaseAt != nil && !h.ReleaseAt.After(now) {
			out = append(out, h)
		}
	}
	sortHolds(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateHoldStatus(_ context.Context, holdID string, from, to domain.HoldStatus, forfeitGroupID string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if h.Status != from {
		return fmt.Errorf("%w: hold %s is %s, expected %s", apperrors.ErrConcurrentModification, holdID, h.Status, from)
	}
	h.Status = to
	h.ResolvedAt = nil
	if to != domain.HoldActive {
		h.ResolvedAt = &resolvedAt
	}
	if forfeitGroupID != "" {
		h.ForfeitGroupID = forfeitGroupID
	}
	s.holds[holdID] = h
	return nil
}

func sortHolds(holds []domain.Hold) {
	sort.Slice(holds, func(i, j int) bool {
		if holds[i].CreatedAt.Equal(holds[j].CreatedAt) {
			return holds[i].HoldID < holds[j].HoldID
		}
		return holds[i].CreatedAt.Before(holds[j].CreatedAt)
	})
}
