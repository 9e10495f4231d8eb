package services

import (
	"context"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// LedgerWriterSvc is the only way balances change.
type LedgerWriterSvc interface {
	// Post writes a balanced group atomically. A group id that already exists returns the
	// stored posting with Replayed set and no error.
	Post(ctx context.Context, req domain.PostingRequest) (*domain.Posting, error)

	// PostReversal posts the mirror image of an existing group under a new group id.
	PostReversal(ctx context.Context, originalGroupID, reversalGroupID string, kind domain.PostingKind, checkAvailable bool) (*domain.Posting, error)
}

// LedgerReaderSvc defines read operations over the journal.
type LedgerReaderSvc interface {
	BalanceOf(ctx context.Context, accountID string) (domain.Money, error)
	GetPosting(ctx context.Context, groupID string) (*domain.Posting, error)
	ListEntries(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// Reconcile recomputes the balance from entries and compares it with the stored one.
	Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}
