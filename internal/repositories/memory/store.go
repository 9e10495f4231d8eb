// Package memory implements every repository port on top of in-process maps.
// It backs the test suites and the STORAGE_DRIVER=memory mode.
package memory

import (
	"sync"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
)

// Store holds all state behind a single mutex, so every write is one critical section.
type Store struct {
	mu sync.RWMutex

	accounts         map[string]domain.Account
	postings         map[string]domain.Posting
	entriesByAccount map[string][]domain.LedgerEntry
	transfers        map[string]domain.Transfer
	transferByRef    map[string]string
	holds            map[string]domain.Hold
	idempotency      map[string]domain.IdempotencyRecord
	pinHashes        map[string]string
	otps             map[string]domain.OTP
	otpsByTransfer   map[string][]string
}

func NewStore() *Store {
	return &Store{
		accounts:         make(map[string]domain.Account),
		postings:         make(map[string]domain.Posting),
		entriesByAccount: make(map[string][]domain.LedgerEntry),
		transfers:        make(map[string]domain.Transfer),
		transferByRef:    make(map[string]string),
		holds:            make(map[string]domain.Hold),
		idempotency:      make(map[string]domain.IdempotencyRecord),
		pinHashes:        make(map[string]string),
		otps:             make(map[string]domain.OTP),
		otpsByTransfer:   make(map[string][]string),
	}
}

// NewRepositoryProvider wires one shared Store into every repository slot.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return NewStore().Provider()
}

func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		LedgerRepo:      s,
		TransferRepo:    s,
		HoldRepo:        s,
		IdempotencyRepo: s,
		CredentialRepo:  s,
		OTPRepo:         s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade  = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade   = (*Store)(nil)
	_ portsrepo.TransferRepositoryFacade = (*Store)(nil)
	_ portsrepo.HoldRepositoryFacade     = (*Store)(nil)
	_ portsrepo.IdempotencyRepository    = (*Store)(nil)
	_ portsrepo.CredentialRepository     = (*Store)(nil)
	_ portsrepo.OTPRepository            = (*Store)(nil)
)
