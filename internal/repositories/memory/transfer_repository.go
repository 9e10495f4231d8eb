package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func (s *Store) SaveTransfer(_ context.Context, transfer domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transferByRef[transfer.ReferenceNumber]; exists {
		return fmt.Errorf("%w: transfer reference %s already exists", apperrors.ErrDuplicate, transfer.ReferenceNumber)
	}
	if _, exists := s.transfers[transfer.TransferID]; exists {
		return fmt.Errorf("%w: transfer %s already exists", apperrors.ErrDuplicate, transfer.TransferID)
	}
	s.transfers[transfer.TransferID] = transfer
	s.transferByRef[transfer.ReferenceNumber] = transfer.TransferID
	return nil
}

func (s *Store) UpdateTransfer(_ context.Context, transfer domain.Transfer, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.transfers[transfer.TransferID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: transfer %s is at version %d, expected %d", apperrors.ErrConcurrentModification, transfer.TransferID, stored.Version, expectedVersion)
	}
	transfer.Version = expectedVersion + 1
	s.transfers[transfer.TransferID] = transfer
	return nil
}

func (s *Store) FindTransferByID(_ context.Context, transferID string) (*domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[transferID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (s *Store) FindTransferByReference(_ context.Context, referenceNumber string) (*domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.transferByRef[referenceNumber]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	t := s.transfers[id]
	return &t, nil
}

func (s *Store) ListTransfersByAccount(_ context.Context, accountID string, limit int) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	s.mu.RLock()
	out := []domain.Transfer{}
	for _, t := range s.transfers {
		if t.SourceAccountID == accountID || t.DestinationAccountID == accountID {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TransferID > out[j].TransferID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SumOutgoingSince(_ context.Context, accountID string, transferType domain.TransferType, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, t := range s.transfers {
		if t.SourceAccountID != accountID || t.Type != transferType || t.ProcessingAt == nil || t.ProcessingAt.Before(since) {
			continue
		}
		if t.Status == domain.TransferProcessing || t.Status == domain.TransferCompleted {
			total += t.Amount.Amount
		}
	}
	return total, nil
}
