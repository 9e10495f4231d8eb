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

type holdService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	holdRepo    portsrepo.HoldRepositoryFacade
	ledger      portssvc.LedgerSvcFacade
	idempotency *guard.IdempotencyGuard
	system      domain.SystemAccounts
}

// NewHoldService creates the hold and provisional-credit manager.
func NewHoldService(
	accountRepo portsrepo.AccountReader,
	holdRepo portsrepo.HoldRepositoryFacade,
	ledger portssvc.LedgerSvcFacade,
	idempotency *guard.IdempotencyGuard,
	system domain.SystemAccounts,
	options ...Option,
) portssvc.HoldSvcFacade {
	return &holdService{
		BaseService: newBaseService(options...),
		accountRepo: accountRepo,
		holdRepo:    holdRepo,
		ledger:      ledger,
		idempotency: idempotency,
		system:      system,
	}
}

var _ portssvc.HoldSvcFacade = (*holdService)(nil)

func (s *holdService) PlaceHold(ctx context.Context, params domain.HoldParams) (*domain.Hold, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.placeHold(ctx, params, uuid.NewString(), true)
}

// placeHold runs under the account lock so that the availability check and the insert
// cannot interleave with a posting on the same account.
func (s *holdService) placeHold(ctx context.Context, params domain.HoldParams, holdID string, checkFunds bool) (*domain.Hold, error) {
	unlock, err := s.accountLocks.Lock(ctx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", params.AccountID, err)
	}
	defer unlock()

	acc, err := s.accountRepo.FindAccountByID(ctx, params.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, params.AccountID)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", params.AccountID, err)
	}
	if acc.Status == domain.AccountClosed {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountClosed, acc.AccountID)
	}
	if acc.Currency != params.Amount.Currency {
		return nil, fmt.Errorf("%w: account %s holds %s, hold is %s", apperrors.ErrCurrencyMismatch, acc.AccountID, acc.Currency, params.Amount.Currency)
	}

	now := s.clock.Now()
	if checkFunds {
		if acc.Status == domain.AccountFrozen {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountFrozen, acc.AccountID)
		}
		active, err := s.holdRepo.ListActiveHoldsByAccount(ctx, acc.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load holds of %s: %w", acc.AccountID, err)
		}
		held, err := domain.SumEffectiveHolds(active, now)
		if err != nil {
			return nil, err
		}
		available := acc.Balance - held
		if acc.MinimumBalance != domain.UnboundedMinimum && available-params.Amount.Amount < acc.MinimumBalance {
			return nil, fmt.Errorf("%w: account %s has %d available, hold needs %d",
				apperrors.ErrInsufficientAvailableFunds, acc.AccountID, available-acc.MinimumBalance, params.Amount.Amount)
		}
	}

	hold := domain.Hold{
		HoldID:        holdID,
		AccountID:     params.AccountID,
		Amount:        params.Amount,
		Kind:          params.Kind,
		Reason:        params.Reason,
		ReleaseAt:     params.ReleaseAt,
		Status:        domain.HoldActive,
		SourceGroupID: params.SourceGroupID,
		CreatedAt:     now,
	}
	if err := s.holdRepo.SaveHold(ctx, hold); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.holdRepo.FindHoldByID(ctx, holdID)
		}
		return nil, fmt.Errorf("failed to save hold on %s: %w", params.AccountID, err)
	}
	s.LogInfo(ctx, "Hold placed",
		slog.String("hold_id", hold.HoldID),
		slog.String("account_id", hold.AccountID),
		slog.Int64("amount", hold.Amount.Amount))
	return &hold, nil
}

func (s *holdService) ReleaseHold(ctx context.Context, holdID string) (*domain.Hold, error) {
	hold, err := s.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	switch hold.Status {
	case domain.HoldReleased:
		return hold, nil
	case domain.HoldForfeited:
		return nil, fmt.Errorf("%w: hold %s is already forfeited", apperrors.ErrInvalidTransition, holdID)
	}
	if err := s.holdRepo.UpdateHoldStatus(ctx, holdID, domain.HoldActive, domain.HoldReleased, "", s.clock.Now()); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			// someone else resolved it first; report whatever won
			return s.ReleaseHold(ctx, holdID)
		}
		return nil, fmt.Errorf("failed to release hold %s: %w", holdID, err)
	}
	s.LogInfo(ctx, "Hold released", slog.String("hold_id", holdID))
	return s.GetHold(ctx, holdID)
}

func (s *holdService) ForfeitHold(ctx context.Context, holdID, reason string) (*domain.Hold, error) {
	hold, err := s.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.Status == domain.HoldForfeited {
		return hold, nil
	}
	if hold.SourceGroupID == "" {
		return nil, fmt.Errorf("%w: hold %s has no provisional credit to forfeit", apperrors.ErrValidation, holdID)
	}
	now := s.clock.Now()
	if !hold.IsEffective(now) {
		return nil, fmt.Errorf("%w: hold %s is no longer active", apperrors.ErrInvalidTransition, holdID)
	}

	forfeitGroupID := deterministicID("forfeit", holdID)
	if _, err := s.ledger.PostReversal(ctx, hold.SourceGroupID, forfeitGroupID, domain.PostingHoldForfeit, false); err != nil {
		s.LogError(ctx, err, "Failed to reverse provisional credit", slog.String("hold_id", holdID))
		return nil, err
	}

	if err := s.holdRepo.UpdateHoldStatus(ctx, holdID, domain.HoldActive, domain.HoldForfeited, forfeitGroupID, now); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			return nil, fmt.Errorf("failed to mark hold %s forfeited: %w", holdID, err)
		}
		// a concurrent release or sweep won the status race after the credit was already reversed
		if err := s.holdRepo.UpdateHoldStatus(ctx, holdID, domain.HoldReleased, domain.HoldForfeited, forfeitGroupID, now); err != nil &&
			!errors.Is(err, apperrors.ErrConcurrentModification) {
			return nil, fmt.Errorf("failed to mark hold %s forfeited: %w", holdID, err)
		}
	}

	s.LogInfo(ctx, "Hold forfeited", slog.String("hold_id", holdID), slog.String("reason", reason))
	s.publish(ctx, domain.EventHoldForfeited, holdID, map[string]any{
		"holdID":         holdID,
		"accountID":      hold.AccountID,
		"amountMinor":    hold.Amount.Amount,
		"currency":       string(hold.Amount.Currency),
		"forfeitGroupID": forfeitGroupID,
		"reason":         reason,
	})
	return s.GetHold(ctx, holdID)
}

func (s *holdService) DepositCheck(ctx context.Context, movement domain.CashMovement, holdPeriod time.Duration) (*domain.Hold, error) {
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	if holdPeriod <= 0 {
		return nil, fmt.Errorf("%w: hold period must be positive", apperrors.ErrValidation)
	}
	clearing, err := s.system.CheckClearingAccount(movement.Amount.Currency)
	if err != nil {
		return nil, err
	}

	lease, err := s.idempotency.Acquire(ctx, "check-deposit:"+movement.Reference)
	if err != nil {
		var done *guard.AlreadyCompletedError
		if errors.As(err, &done) {
			s.metrics.ObserveReplay("check_deposit")
			return s.GetHold(ctx, done.Record.ResultID)
		}
		return nil, err
	}
	defer lease.Release()

	groupID := deterministicID("check-deposit", movement.Reference)
	holdID := deterministicID("check-hold", movement.Reference)
	releaseAt := s.clock.Now().Add(holdPeriod)
	// the hold goes in before the credit so the provisional funds are never spendable
	hold, err := s.placeHold(ctx, domain.HoldParams{
		AccountID:     movement.AccountID,
		Amount:        movement.Amount,
		Kind:          domain.HoldCheckDeposit,
		Reason:        movement.Memo,
		ReleaseAt:     &releaseAt,
		SourceGroupID: groupID,
	}, holdID, false)
	if err != nil {
		return nil, err
	}
	if hold.AccountID != movement.AccountID || hold.Amount != movement.Amount {
		return nil, fmt.Errorf("%w: check reference %s was already used for another deposit", apperrors.ErrDuplicate, movement.Reference)
	}
	if hold.Status != domain.HoldActive {
		// an earlier attempt with this reference placed the hold
		settled, err := s.resumeCheckHold(ctx, hold, groupID)
		if err != nil {
			return nil, err
		}
		if settled {
			if _, err := lease.Complete(ctx, string(hold.Status), hold.HoldID); err != nil {
				s.LogError(ctx, err, "Failed to record check deposit outcome", slog.String("reference", movement.Reference))
			}
			return hold, nil
		}
		if hold, err = s.GetHold(ctx, holdID); err != nil {
			return nil, err
		}
	}

	_, err = s.ledger.Post(ctx, domain.PostingRequest{
		GroupID:   groupID,
		Kind:      domain.PostingCheckDeposit,
		Reference: movement.Reference,
		Lines: []domain.EntryLine{
			{AccountID: clearing, Direction: domain.Debit, Amount: movement.Amount, Memo: movement.Memo},
			{AccountID: movement.AccountID, Direction: domain.Credit, Amount: movement.Amount, Memo: movement.Memo},
		},
	})
	if err != nil {
		if rerr := s.holdRepo.UpdateHoldStatus(ctx, hold.HoldID, domain.HoldActive, domain.HoldReleased, "", s.clock.Now()); rerr != nil {
			s.LogError(ctx, rerr, "Failed to release hold after rejected check deposit", slog.String("hold_id", hold.HoldID))
		}
		return nil, err
	}

	if _, err := lease.Complete(ctx, string(hold.Status), hold.HoldID); err != nil {
		s.LogError(ctx, err, "Failed to record check deposit outcome", slog.String("reference", movement.Reference))
	}
	return hold, nil
}

// resumeCheckHold handles a check hold that an earlier attempt already resolved. It reports
// true when that attempt's credit was posted, so the hold stands as it is. Otherwise the credit
// was rejected and the hold released; it is taken back to ACTIVE before the credit is retried.
func (s *holdService) resumeCheckHold(ctx context.Context, hold *domain.Hold, groupID string) (bool, error) {
	_, err := s.ledger.GetPosting(ctx, groupID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}
	if hold.Status != domain.HoldReleased {
		return false, fmt.Errorf("%w: hold %s is %s without its credit", apperrors.ErrIntegrity, hold.HoldID, hold.Status)
	}
	err = s.holdRepo.UpdateHoldStatus(ctx, hold.HoldID, domain.HoldReleased, domain.HoldActive, "", time.Time{})
	if err != nil && !errors.Is(err, apperrors.ErrConcurrentModification) {
		return false, fmt.Errorf("failed to reactivate hold %s: %w", hold.HoldID, err)
	}
	return false, nil
}

const defaultSweepBatch = 500

func (s *holdService) SweepExpired(ctx context.Context, limit int) (int, error) {
	_, released, err := s.sweepBatch(ctx, limit)
	return released, err
}

// SweepAllExpired stops on the found count, not the released count: holds resolved by
// someone else between the read and the update are found but not released.
func (s *holdService) SweepAllExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}
	total := 0
	for batches := 1; ; batches++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		found, released, err := s.sweepBatch(ctx, batchSize)
		total += released
		if err != nil {
			return total, err
		}
		if found < batchSize {
			s.LogInfo(ctx, "Expired hold sweep finished", slog.Int("batches", batches), slog.Int("released", total))
			return total, nil
		}
	}
}

// sweepBatch leaves every hold it found non-ACTIVE unless it returns an error, so repeated
// batches always make progress.
func (s *holdService) sweepBatch(ctx context.Context, limit int) (found, released int, err error) {
	if limit <= 0 {
		limit = defaultSweepBatch
	}
	now := s.clock.Now()
	expired, err := s.holdRepo.FindExpiredHolds(ctx, now, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find expired holds: %w", err)
	}
	for _, h := range expired {
		err := s.holdRepo.UpdateHoldStatus(ctx, h.HoldID, domain.HoldActive, domain.HoldReleased, "", now)
		switch {
		case err == nil:
			released++
		case errors.Is(err, apperrors.ErrConcurrentModification):
			// resolved by someone else in the meantime
		default:
			s.metrics.ObserveHoldsSwept(released)
			return len(expired), released, fmt.Errorf("failed to release expired hold %s: %w", h.HoldID, err)
		}
	}
	s.metrics.ObserveHoldsSwept(released)
	s.LogInfo(ctx, "Expired holds swept", slog.Int("found", len(expired)), slog.Int("released", released))
	return len(expired), released, nil
}

func (s *holdService) GetHold(ctx context.Context, holdID string) (*domain.Hold, error) {
	hold, err := s.holdRepo.FindHoldByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: hold %s", apperrors.ErrNotFound, holdID)
		}
		return nil, fmt.Errorf("failed to load hold %s: %w", holdID, err)
	}
	return hold, nil
}

// ListActiveHolds returns the holds that currently reduce the available balance.
func (s *holdService) ListActiveHolds(ctx context.Context, accountID string) ([]domain.Hold, error) {
	holds, err := s.holdRepo.ListActiveHoldsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holds of %s: %w", accountID, err)
	}
	now := s.clock.Now()
	effective := make([]domain.Hold, 0, len(holds))
	for _, h := range holds {
		if h.IsEffective(now) {
			effective = append(effective, h)
		}
	}
	return effective, nil
}
