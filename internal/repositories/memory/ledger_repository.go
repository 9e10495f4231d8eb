package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/utils/pagination"
)

const defaultPageSize = 20

// SavePosting validates versions first and only then mutates, so a failure leaves no trace.
func (s *Store) SavePosting(_ context.Context, posting domain.Posting, updates []domain.BalanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postings[posting.GroupID]; exists {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateGroupID, posting.GroupID)
	}
	for _, u := range updates {
		acc, ok := s.accounts[u.AccountID]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, u.AccountID)
		}
		if acc.Version != u.ExpectedVersion {
			return fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrConcurrentModification, u.AccountID, acc.Version, u.ExpectedVersion)
		}
	}

	for _, u := range updates {
		acc := s.accounts[u.AccountID]
		acc.Balance = u.NewBalance
		acc.Version++
		acc.LastUpdatedAt = posting.PostedAt
		s.accounts[u.AccountID] = acc
	}
	stored := posting
	stored.Replayed = false
	stored.Entries = append([]domain.LedgerEntry(nil), posting.Entries...)
	s.postings[posting.GroupID] = stored
	for _, e := range stored.Entries {
		s.entriesByAccount[e.AccountID] = append(s.entriesByAccount[e.AccountID], e)
	}
	return nil
}

func (s *Store) FindPostingByGroupID(_ context.Context, groupID string) (*domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[groupID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Entries = append([]domain.LedgerEntry(nil), p.Entries...)
	return &p, nil
}

func (s *Store) ListEntriesByAccount(_ context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	s.mu.RLock()
	entries := append([]domain.LedgerEntry(nil), s.entriesByAccount[accountID]...)
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].EntryID > entries[j].EntryID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		idx := sort.Search(len(entries), func(i int) bool {
			return pagination.Before(entries[i].CreatedAt, entries[i].EntryID, cursorAt, cursorID)
		})
		entries = entries[idx:]
	}

	var next *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.EntryID)
		next = &token
		entries = entries[:limit]
	}
	return entries, next, nil
}

func (s *Store) SumEntriesByAccount(_ context.Context, accountID string) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var credits, debits int64
	for _, e := range s.entriesByAccount[accountID] {
		if e.Direction == domain.Credit {
			credits += e.Amount.Amount
		} else {
			debits += e.Amount.Amount
		}
	}
	return credits, debits, nil
}
