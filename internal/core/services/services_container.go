package services

import (
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Every service shares one account lock table so that postings, holds and status changes
// on the same account are linearized.
func NewServiceContainer(repos portsrepo.RepositoryProvider, system domain.SystemAccounts, options ...Option) *portssvc.ServiceContainer {
	shared := newBaseService(options...)
	options = append(options, WithAccountLocker(shared.accountLocks))
	idempotency := guard.NewIdempotencyGuard(repos.IdempotencyRepo, shared.clock)

	container := &portssvc.ServiceContainer{}

	// Ledger first since every other service posts through it
	container.Ledger = NewLedgerService(repos.AccountRepo, repos.LedgerRepo, repos.HoldRepo, options...)

	container.Hold = NewHoldService(repos.AccountRepo, repos.HoldRepo, container.Ledger, idempotency, system, options...)

	container.Account = NewAccountService(AccountDeps{
		AccountRepo:    repos.AccountRepo,
		HoldRepo:       repos.HoldRepo,
		CredentialRepo: repos.CredentialRepo,
		Ledger:         container.Ledger,
		Holds:          container.Hold,
		Idempotency:    idempotency,
		System:         system,
	}, options...)

	container.Transfer = NewTransferService(TransferDeps{
		AccountRepo:    repos.AccountRepo,
		TransferRepo:   repos.TransferRepo,
		CredentialRepo: repos.CredentialRepo,
		OTPRepo:        repos.OTPRepo,
		Ledger:         container.Ledger,
		Idempotency:    idempotency,
		System:         system,
	}, options...)

	return container
}
