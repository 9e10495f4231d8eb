package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// HoldReader defines read operations for holds
type HoldReader interface {
	FindHoldByID(ctx context.Context, holdID string) (*domain.Hold, error)

	// ListActiveHoldsByAccount returns holds still in ACTIVE status, including ones past ReleaseAt.
	ListActiveHoldsByAccount(ctx context.Context, accountID string) ([]domain.Hold, error)

	// FindExpiredHolds returns up to limit ACTIVE holds whose ReleaseAt is at or before now.
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error)
}

// HoldWriter defines write operations for holds
type HoldWriter interface {
	SaveHold(ctx context.Context, hold domain.Hold) error

	// UpdateHoldStatus moves a hold from one status to another. It returns
	// apperrors.ErrConcurrentModification when the stored status is no longer from.
	// Moving back to ACTIVE clears the resolution time.
	UpdateHoldStatus(ctx context.Context, holdID string, from, to domain.HoldStatus, forfeitGroupID string, resolvedAt time.Time) error
}

// HoldRepositoryFacade combines all hold-related repository interfaces
type HoldRepositoryFacade interface {
	HoldReader
	HoldWriter
}
