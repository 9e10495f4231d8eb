package pgsql

import (
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool, accountRepo)
	transferRepo := newPgxTransferRepository(dbPool)
	holdRepo := newPgxHoldRepository(dbPool)
	idempotencyRepo := newPgxIdempotencyRepository(dbPool)
	credentialRepo := newPgxCredentialRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		LedgerRepo:      ledgerRepo,
		TransferRepo:    transferRepo,
		HoldRepo:        holdRepo,
		IdempotencyRepo: idempotencyRepo,
		CredentialRepo:  credentialRepo,
		OTPRepo:         credentialRepo,
	}
}
