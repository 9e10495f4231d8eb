package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/google/uuid"
)

// maxPostAttempts bounds retries after ErrConcurrentModification.
const maxPostAttempts = 3

// ledgerService is the single writer of balances.
type ledgerService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	holdRepo    portsrepo.HoldReader
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, holdRepo portsrepo.HoldReader, options ...Option) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(options...),
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		holdRepo:    holdRepo,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) Post(ctx context.Context, req domain.PostingRequest) (*domain.Posting, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", req.GroupID), slog.String("kind", string(req.Kind)))

	if err := req.Validate(); err != nil {
		if errors.Is(err, apperrors.ErrIntegrity) {
			s.integrityFault(ctx, err, req.GroupID)
		}
		s.metrics.ObservePosting(string(req.Kind), err)
		return nil, err
	}

	if stored, err := s.replay(ctx, req.GroupID); stored != nil || err != nil {
		return stored, err
	}

	accountIDs := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		accountIDs = append(accountIDs, l.AccountID)
	}
	accountIDs = guard.SortedUnique(accountIDs)

	unlock, err := s.accountLocks.LockAll(ctx, accountIDs...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts for posting %s: %w", req.GroupID, err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		posting, err := s.postLocked(ctx, req, accountIDs)
		switch {
		case err == nil:
			s.metrics.ObservePosting(string(req.Kind), nil)
			logger.Info("Posting committed", slog.Int("entries", len(posting.Entries)))
			return posting, nil
		case errors.Is(err, apperrors.ErrDuplicateGroupID):
			// lost a race against another writer of the same group
			if stored, rerr := s.replay(ctx, req.GroupID); stored != nil || rerr != nil {
				return stored, rerr
			}
			return nil, err
		case errors.Is(err, apperrors.ErrConcurrentModification) && attempt < maxPostAttempts:
			s.metrics.ObservePostingRetry()
			logger.Warn("Concurrent balance modification, retrying posting", slog.Int("attempt", attempt))
			continue
		case errors.Is(err, apperrors.ErrIntegrity):
			s.integrityFault(ctx, err, req.GroupID)
		default:
			logger.Warn("Posting rejected", slog.String("error", err.Error()))
		}
		s.metrics.ObservePosting(string(req.Kind), err)
		return nil, err
	}
}

// replay returns the stored posting flagged as replayed, or nil when the group is new.
func (s *ledgerService) replay(ctx context.Context, groupID string) (*domain.Posting, error) {
	stored, err := s.ledgerRepo.FindPostingByGroupID(ctx, groupID)
	switch {
	case err == nil:
		stored.Replayed = true
		s.metrics.ObserveReplay("posting")
		s.LogInfo(ctx, "Posting group already exists, returning stored result", slog.String("group_id", groupID))
		return stored, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to look up posting %s: %w", groupID, err)
	}
}

// postLocked validates against freshly read balances and writes the group. Callers hold the account locks.
func (s *ledgerService) postLocked(ctx context.Context, req domain.PostingRequest, accountIDs []string) (*domain.Posting, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for posting %s: %w", req.GroupID, err)
	}

	net := make(map[string]domain.Money, len(accountIDs))
	for _, l := range req.Lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, l.AccountID)
		}
		if acc.Currency != l.Amount.Currency {
			return nil, fmt.Errorf("%w: account %s holds %s, entry is %s", apperrors.ErrCurrencyMismatch, acc.AccountID, acc.Currency, l.Amount.Currency)
		}
		current, ok := net[l.AccountID]
		if !ok {
			current = domain.Zero(acc.Currency)
		}
		signed := domain.Money{Amount: l.Direction.Signed(l.Amount.Amount), Currency: l.Amount.Currency}
		if net[l.AccountID], err = current.Add(signed); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	updates := make([]domain.BalanceUpdate, 0, len(accountIDs))
	for _, id := range accountIDs {
		acc := accounts[id]
		change := net[id]
		if err := acc.CanPost(change.Amount); err != nil {
			return nil, err
		}
		newBalance, err := acc.BalanceMoney().Add(change)
		if err != nil {
			return nil, err
		}
		if change.IsNegative() && acc.MinimumBalance != domain.UnboundedMinimum {
			if newBalance.Amount < acc.MinimumBalance {
				return nil, fmt.Errorf("%w: account %s balance %d, debit %d, minimum %d",
					apperrors.ErrInsufficientFunds, id, acc.Balance, -change.Amount, acc.MinimumBalance)
			}
			if req.CheckAvailable {
				if err := s.checkAvailable(ctx, acc, newBalance.Amount, now); err != nil {
					return nil, err
				}
			}
		}
		updates = append(updates, domain.BalanceUpdate{
			AccountID:       id,
			Delta:           change.Amount,
			NewBalance:      newBalance.Amount,
			ExpectedVersion: acc.Version,
		})
	}

	running := make(map[string]int64, len(accountIDs))
	for id, acc := range accounts {
		running[id] = acc.Balance
	}
	entries := make([]domain.LedgerEntry, len(req.Lines))
	for i, l := range req.Lines {
		running[l.AccountID] += l.Direction.Signed(l.Amount.Amount)
		entries[i] = domain.LedgerEntry{
			EntryID:      uuid.NewString(),
			GroupID:      req.GroupID,
			AccountID:    l.AccountID,
			Direction:    l.Direction,
			Amount:       l.Amount,
			Sequence:     i + 1,
			BalanceAfter: running[l.AccountID],
			Memo:         l.Memo,
			CreatedAt:    now,
		}
	}
	for _, u := range updates {
		if running[u.AccountID] != u.NewBalance {
			return nil, fmt.Errorf("%w: running balance of %s ends at %d, expected %d", apperrors.ErrIntegrity, u.AccountID, running[u.AccountID], u.NewBalance)
		}
	}

	posting := domain.Posting{
		GroupID:   req.GroupID,
		Kind:      req.Kind,
		Reference: req.Reference,
		Entries:   entries,
		PostedAt:  now,
	}
	if err := s.ledgerRepo.SavePosting(ctx, posting, updates); err != nil {
		return nil, err
	}
	return &posting, nil
}

func (s *ledgerService) checkAvailable(ctx context.Context, acc domain.Account, newBalance int64, now time.Time) error {
	holds, err := s.holdRepo.ListActiveHoldsByAccount(ctx, acc.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load holds of %s: %w", acc.AccountID, err)
	}
	held, err := domain.SumEffectiveHolds(holds, now)
	if err != nil {
		return err
	}
	if newBalance-held < acc.MinimumBalance {
		return fmt.Errorf("%w: account %s would have %d available after the debit, minimum %d",
			apperrors.ErrInsufficientAvailableFunds, acc.AccountID, newBalance-held, acc.MinimumBalance)
	}
	return nil
}

func (s *ledgerService) integrityFault(ctx context.Context, err error, groupID string) {
	s.metrics.ObserveIntegrityFault()
	s.LogError(ctx, err, "Ledger integrity fault, posting aborted", slog.String("group_id", groupID))
}

func (s *ledgerService) PostReversal(ctx context.Context, originalGroupID, reversalGroupID string, kind domain.PostingKind, checkAvailable bool) (*domain.Posting, error) {
	original, err := s.ledgerRepo.FindPostingByGroupID(ctx, originalGroupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: posting %s", apperrors.ErrNotFound, originalGroupID)
		}
		return nil, fmt.Errorf("failed to load posting %s: %w", originalGroupID, err)
	}
	return s.Post(ctx, domain.PostingRequest{
		GroupID:        reversalGroupID,
		Kind:           kind,
		Reference:      originalGroupID,
		Lines:          domain.MirrorLines(original.Entries, "reversal of "+originalGroupID),
		CheckAvailable: checkAvailable,
	})
}

func (s *ledgerService) BalanceOf(ctx context.Context, accountID string) (domain.Money, error) {
	acc, err := s.findAccount(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}
	return acc.BalanceMoney(), nil
}

func (s *ledgerService) GetPosting(ctx context.Context, groupID string) (*domain.Posting, error) {
	posting, err := s.ledgerRepo.FindPostingByGroupID(ctx, groupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: posting %s", apperrors.ErrNotFound, groupID)
		}
		return nil, fmt.Errorf("failed to load posting %s: %w", groupID, err)
	}
	return posting, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if _, err := s.findAccount(ctx, accountID); err != nil {
		return nil, nil, err
	}
	return s.ledgerRepo.ListEntriesByAccount(ctx, accountID, limit, nextToken)
}

func (s *ledgerService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	acc, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	credits, debits, err := s.ledgerRepo.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum entries of %s: %w", accountID, err)
	}
	rec := &domain.Reconciliation{
		AccountID:     accountID,
		StoredBalance: acc.Balance,
		Credits:       credits,
		Debits:        debits,
		EntryBalance:  credits - debits,
	}
	rec.Consistent = rec.EntryBalance == rec.StoredBalance
	if !rec.Consistent {
		s.integrityFault(ctx, fmt.Errorf("%w: stored balance %d, entries sum to %d", apperrors.ErrIntegrity, rec.StoredBalance, rec.EntryBalance), accountID)
	}
	return rec, nil
}

func (s *ledgerService) findAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, accountID)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return acc, nil
}
