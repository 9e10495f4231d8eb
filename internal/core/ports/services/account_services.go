package services

import (
	"context"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)

	// Balance is the raw ledger balance.
	Balance(ctx context.Context, accountID string) (domain.Money, error)

	// CurrentAvailable is the balance minus effective holds.
	CurrentAvailable(ctx context.Context, accountID string) (domain.Money, error)
}

// AccountWriterSvc defines account lifecycle operations
type AccountWriterSvc interface {
	OpenAccount(ctx context.Context, params domain.OpenAccountParams) (*domain.Account, error)

	// EnsureSystemAccount opens a settlement account if it does not exist yet.
	EnsureSystemAccount(ctx context.Context, accountID string, currency domain.Currency) (*domain.Account, error)

	Freeze(ctx context.Context, accountID, actorID string) (*domain.Account, error)
	Unfreeze(ctx context.Context, accountID, actorID string) (*domain.Account, error)
	Close(ctx context.Context, accountID, actorID string) (*domain.Account, error)

	// SetPin stores the bcrypt hash of an owner's transfer PIN.
	SetPin(ctx context.Context, ownerID, pin string) error
}

// AccountFundsSvc moves cash in and out and reserves funds
type AccountFundsSvc interface {
	Deposit(ctx context.Context, movement domain.CashMovement) (*domain.Posting, error)
	Withdraw(ctx context.Context, movement domain.CashMovement) (*domain.Posting, error)

	// Reserve places a hold after checking available funds under the account lock.
	Reserve(ctx context.Context, params domain.HoldParams) (*domain.Hold, error)
	Release(ctx context.Context, holdID string) (*domain.Hold, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountFundsSvc
}
