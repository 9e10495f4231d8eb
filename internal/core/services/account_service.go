package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/utils"
	"github.com/google/uuid"
)

// SystemOwnerID owns every settlement account.
const SystemOwnerID = "bank"

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo    portsrepo.AccountRepositoryFacade
	holdRepo       portsrepo.HoldReader
	credentialRepo portsrepo.CredentialRepository
	ledger         portssvc.LedgerSvcFacade
	holds          portssvc.HoldSvcFacade
	idempotency    *guard.IdempotencyGuard
	system         domain.SystemAccounts
}

// AccountDeps groups the collaborators of the account service.
type AccountDeps struct {
	AccountRepo    portsrepo.AccountRepositoryFacade
	HoldRepo       portsrepo.HoldReader
	CredentialRepo portsrepo.CredentialRepository
	Ledger         portssvc.LedgerSvcFacade
	Holds          portssvc.HoldSvcFacade
	Idempotency    *guard.IdempotencyGuard
	System         domain.SystemAccounts
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(deps AccountDeps, options ...Option) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService:    newBaseService(options...),
		accountRepo:    deps.AccountRepo,
		holdRepo:       deps.HoldRepo,
		credentialRepo: deps.CredentialRepo,
		ledger:         deps.Ledger,
		holds:          deps.Holds,
		idempotency:    deps.Idempotency,
		system:         deps.System,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) OpenAccount(ctx context.Context, params domain.OpenAccountParams) (*domain.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	currency, _ := domain.ParseCurrency(string(params.Currency))

	accountID := params.AccountID
	if accountID == "" {
		accountID = uuid.NewString()
	}
	actor := params.ActorID
	if actor == "" {
		actor = params.OwnerID
	}
	now := s.clock.Now()
	account := domain.Account{
		AccountID:      accountID,
		OwnerID:        params.OwnerID,
		Kind:           params.Kind,
		Currency:       currency,
		MinimumBalance: params.MinimumBalance,
		Status:         domain.AccountActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to open account: %w", err)
	}
	s.LogInfo(ctx, "Account opened",
		slog.String("account_id", accountID),
		slog.String("owner_id", account.OwnerID),
		slog.String("kind", string(account.Kind)),
		slog.String("currency", string(account.Currency)))
	return &account, nil
}

func (s *accountService) EnsureSystemAccount(ctx context.Context, accountID string, currency domain.Currency) (*domain.Account, error) {
	existing, err := s.accountRepo.FindAccountByID(ctx, accountID)
	switch {
	case err == nil:
		if existing.Currency != currency {
			return nil, fmt.Errorf("%w: system account %s holds %s, configured as %s", apperrors.ErrCurrencyMismatch, accountID, existing.Currency, currency)
		}
		return existing, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to load system account %s: %w", accountID, err)
	}

	account, err := s.OpenAccount(ctx, domain.OpenAccountParams{
		AccountID:      accountID,
		OwnerID:        SystemOwnerID,
		Kind:           domain.AccountKindSystem,
		Currency:       currency,
		MinimumBalance: domain.UnboundedMinimum,
		ActorID:        SystemOwnerID,
	})
	if errors.Is(err, apperrors.ErrDuplicate) {
		return s.accountRepo.FindAccountByID(ctx, accountID)
	}
	return account, err
}

func (s *accountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, accountID)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return acc, nil
}

func (s *accountService) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of %s: %w", ownerID, err)
	}
	return accounts, nil
}

func (s *accountService) Balance(ctx context.Context, accountID string) (domain.Money, error) {
	return s.ledger.BalanceOf(ctx, accountID)
}

func (s *accountService) CurrentAvailable(ctx context.Context, accountID string) (domain.Money, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}
	holds, err := s.holdRepo.ListActiveHoldsByAccount(ctx, accountID)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to load holds of %s: %w", accountID, err)
	}
	held, err := domain.SumEffectiveHolds(holds, s.clock.Now())
	if err != nil {
		return domain.Money{}, err
	}
	return acc.BalanceMoney().Subtract(domain.Money{Amount: held, Currency: acc.Currency})
}

func (s *accountService) Reserve(ctx context.Context, params domain.HoldParams) (*domain.Hold, error) {
	if params.Kind == "" {
		params.Kind = domain.HoldReservation
	}
	return s.holds.PlaceHold(ctx, params)
}

func (s *accountService) Release(ctx context.Context, holdID string) (*domain.Hold, error) {
	return s.holds.ReleaseHold(ctx, holdID)
}

func (s *accountService) Freeze(ctx context.Context, accountID, actorID string) (*domain.Account, error) {
	return s.changeStatus(ctx, accountID, actorID, domain.AccountFrozen, domain.AccountActive)
}

func (s *accountService) Unfreeze(ctx context.Context, accountID, actorID string) (*domain.Account, error) {
	return s.changeStatus(ctx, accountID, actorID, domain.AccountActive, domain.AccountFrozen)
}

// Close keeps the balance readable but rejects every further posting.
func (s *accountService) Close(ctx context.Context, accountID, actorID string) (*domain.Account, error) {
	return s.changeStatus(ctx, accountID, actorID, domain.AccountClosed, domain.AccountActive, domain.AccountFrozen)
}

func (s *accountService) changeStatus(ctx context.Context, accountID, actorID string, to domain.AccountStatus, from ...domain.AccountStatus) (*domain.Account, error) {
	unlock, err := s.accountLocks.Lock(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	defer unlock()

	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.Status == to {
		return acc, nil
	}
	allowed := false
	for _, f := range from {
		allowed = allowed || acc.Status == f
	}
	if !allowed {
		return nil, fmt.Errorf("%w: account %s is %s, cannot become %s", apperrors.ErrInvalidTransition, accountID, acc.Status, to)
	}
	if err := s.accountRepo.UpdateAccountStatus(ctx, accountID, to, acc.Version, actorID, s.clock.Now()); err != nil {
		s.LogError(ctx, err, "Failed to update account status", slog.String("account_id", accountID), slog.String("status", string(to)))
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account status changed",
		slog.String("account_id", accountID),
		slog.String("from", string(acc.Status)),
		slog.String("to", string(to)),
		slog.String("actor_id", actorID))
	return s.GetAccount(ctx, accountID)
}

func (s *accountService) Deposit(ctx context.Context, movement domain.CashMovement) (*domain.Posting, error) {
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	clearing, err := s.system.DepositClearingAccount(movement.Amount.Currency)
	if err != nil {
		return nil, err
	}
	return s.moveCash(ctx, "deposit", domain.PostingDeposit, movement, clearing, movement.AccountID, false)
}

func (s *accountService) Withdraw(ctx context.Context, movement domain.CashMovement) (*domain.Posting, error) {
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	clearing, err := s.system.DepositClearingAccount(movement.Amount.Currency)
	if err != nil {
		return nil, err
	}
	return s.moveCash(ctx, "withdrawal", domain.PostingWithdrawal, movement, movement.AccountID, clearing, true)
}

// moveCash posts debit->credit under a reference-keyed idempotency lease.
func (s *accountService) moveCash(ctx context.Context, operation string, kind domain.PostingKind, movement domain.CashMovement, debitAccount, creditAccount string, checkAvailable bool) (*domain.Posting, error) {
	key := operation + ":" + movement.Reference
	lease, err := s.idempotency.Acquire(ctx, key)
	if err != nil {
		var done *guard.AlreadyCompletedError
		if errors.As(err, &done) {
			s.metrics.ObserveReplay(operation)
			posting, err := s.ledger.GetPosting(ctx, done.Record.ResultID)
			if err != nil {
				return nil, err
			}
			posting.Replayed = true
			return posting, nil
		}
		return nil, err
	}
	defer lease.Release()

	posting, err := s.ledger.Post(ctx, domain.PostingRequest{
		GroupID:   deterministicID(operation, movement.Reference),
		Kind:      kind,
		Reference: movement.Reference,
		Lines: []domain.EntryLine{
			{AccountID: debitAccount, Direction: domain.Debit, Amount: movement.Amount, Memo: movement.Memo},
			{AccountID: creditAccount, Direction: domain.Credit, Amount: movement.Amount, Memo: movement.Memo},
		},
		CheckAvailable: checkAvailable,
	})
	if err != nil {
		return nil, err
	}
	if _, err := lease.Complete(ctx, "POSTED", posting.GroupID); err != nil {
		s.LogError(ctx, err, "Failed to record cash movement outcome", slog.String("reference", movement.Reference))
	}
	return posting, nil
}

func (s *accountService) SetPin(ctx context.Context, ownerID, pin string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", apperrors.ErrValidation)
	}
	if len(pin) < 4 || len(pin) > 6 {
		return fmt.Errorf("%w: pin must have 4 to 6 digits", apperrors.ErrValidation)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: pin must be numeric", apperrors.ErrValidation)
		}
	}
	hash, err := utils.HashSecret(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.credentialRepo.SavePinHash(ctx, ownerID, hash, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to store pin of %s: %w", ownerID, err)
	}
	s.LogInfo(ctx, "PIN updated", slog.String("owner_id", ownerID))
	return nil
}
