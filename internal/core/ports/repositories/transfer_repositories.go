package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// TransferReader defines read operations for transfers
type TransferReader interface {
	FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error)

	// FindTransferByReference looks a transfer up by its client reference number.
	FindTransferByReference(ctx context.Context, referenceNumber string) (*domain.Transfer, error)

	// ListTransfersByAccount returns transfers where the account is source or destination, newest first.
	ListTransfersByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transfer, error)

	// SumOutgoingSince totals the amount of PROCESSING and COMPLETED transfers of a type
	// leaving the account that entered PROCESSING at or after since.
	SumOutgoingSince(ctx context.Context, accountID string, transferType domain.TransferType, since time.Time) (int64, error)
}

// TransferWriter defines write operations for transfers
type TransferWriter interface {
	// SaveTransfer persists a new transfer. Returns apperrors.ErrDuplicate if the reference is taken.
	SaveTransfer(ctx context.Context, transfer domain.Transfer) error

	// UpdateTransfer replaces the mutable fields when the stored version equals expectedVersion.
	UpdateTransfer(ctx context.Context, transfer domain.Transfer, expectedVersion int64) error
}

// TransferRepositoryFacade combines all transfer-related repository interfaces
type TransferRepositoryFacade interface {
	TransferReader
	TransferWriter
}
