package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	// Returns apperrors.ErrNotFound when absent.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing ids are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccountsByOwner lists every account held by an owner, oldest first.
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. Returns apperrors.ErrDuplicate if the id is taken.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountStatus changes the status if the stored version still equals expectedVersion,
	// otherwise it returns apperrors.ErrConcurrentModification.
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, expectedVersion int64, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
