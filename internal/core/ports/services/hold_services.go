package services

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// HoldSvcFacade manages holds and provisional credits.
type HoldSvcFacade interface {
	PlaceHold(ctx context.Context, params domain.HoldParams) (*domain.Hold, error)
	ReleaseHold(ctx context.Context, holdID string) (*domain.Hold, error)

	// ForfeitHold reverses the provisional credit behind a hold and marks it FORFEITED.
	ForfeitHold(ctx context.Context, holdID, reason string) (*domain.Hold, error)

	// DepositCheck credits the account provisionally and holds the same amount for holdPeriod.
	DepositCheck(ctx context.Context, movement domain.CashMovement, holdPeriod time.Duration) (*domain.Hold, error)

	// SweepExpired marks up to limit expired holds RELEASED and returns how many it changed.
	SweepExpired(ctx context.Context, limit int) (int, error)

	// SweepAllExpired sweeps in batches of batchSize until a batch finds fewer expired holds
	// than it asked for, and returns the total released.
	SweepAllExpired(ctx context.Context, batchSize int) (int, error)

	GetHold(ctx context.Context, holdID string) (*domain.Hold, error)
	ListActiveHolds(ctx context.Context, accountID string) ([]domain.Hold, error)
}
