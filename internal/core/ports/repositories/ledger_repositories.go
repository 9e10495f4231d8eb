package repositories

import (
	"context"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// LedgerReader defines read operations for postings and their entries
type LedgerReader interface {
	// FindPostingByGroupID returns the posting header with its entries ordered by sequence.
	FindPostingByGroupID(ctx context.Context, groupID string) (*domain.Posting, error)

	// ListEntriesByAccount pages through an account's entries, newest first.
	// It returns the entries, a token for the next page, and an error.
	ListEntriesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumEntriesByAccount totals the credit and debit entries of an account.
	SumEntriesByAccount(ctx context.Context, accountID string) (credits int64, debits int64, err error)
}

// LedgerWriter defines the single write path of the ledger
type LedgerWriter interface {
	// SavePosting writes the posting header, its entries and the balance updates atomically.
	// Returns apperrors.ErrDuplicateGroupID when the group already exists and
	// apperrors.ErrConcurrentModification when an account version no longer matches.
	SavePosting(ctx context.Context, posting domain.Posting, updates []domain.BalanceUpdate) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
