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
	"github.com/SscSPs/digital_bank_ledger/internal/utils"
	"github.com/google/uuid"
)

const otpDigits = 6

// TransferDeps groups the collaborators of the transfer orchestrator.
type TransferDeps struct {
	AccountRepo    portsrepo.AccountReader
	TransferRepo   portsrepo.TransferRepositoryFacade
	CredentialRepo portsrepo.CredentialRepository
	OTPRepo        portsrepo.OTPRepository
	Ledger         portssvc.LedgerSvcFacade
	Idempotency    *guard.IdempotencyGuard
	System         domain.SystemAccounts
}

// transferService drives transfers through PIN, OTP and settlement.
type transferService struct {
	BaseService
	TransferDeps
	transferLocks *guard.KeyedLocker
}

// NewTransferService creates the transfer orchestrator.
func NewTransferService(deps TransferDeps, options ...Option) portssvc.TransferSvcFacade {
	return &transferService{
		BaseService:   newBaseService(options...),
		TransferDeps:  deps,
		transferLocks: guard.NewKeyedLocker(),
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func submitKey(reference string) string {
	return "transfer:" + reference
}

func (s *transferService) Submit(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lease, err := s.Idempotency.Acquire(ctx, submitKey(req.ReferenceNumber))
	if err != nil {
		var done *guard.AlreadyCompletedError
		if errors.As(err, &done) {
			s.metrics.ObserveReplay("transfer_submit")
			s.LogInfo(ctx, "Transfer reference already submitted", slog.String("reference", req.ReferenceNumber))
			return s.Status(ctx, done.Record.ResultID)
		}
		return nil, err
	}
	defer lease.Release()

	// a previous attempt may have saved the transfer and crashed before recording the outcome
	if existing, err := s.TransferRepo.FindTransferByReference(ctx, req.ReferenceNumber); err == nil {
		s.complete(ctx, lease, existing)
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up transfer reference %s: %w", req.ReferenceNumber, err)
	}

	source, err := s.findAccount(ctx, req.SourceAccountID)
	if err != nil {
		return nil, err
	}
	if source.Status == domain.AccountClosed {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountClosed, source.AccountID)
	}
	if source.Currency != req.Amount.Currency {
		return nil, fmt.Errorf("%w: source account %s holds %s, transfer is %s", apperrors.ErrCurrencyMismatch, source.AccountID, source.Currency, req.Amount.Currency)
	}
	if !req.Type.IsExternal() {
		dest, err := s.findAccount(ctx, req.DestinationAccountID)
		if err != nil {
			return nil, err
		}
		if dest.Status == domain.AccountClosed {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountClosed, dest.AccountID)
		}
	}

	now := s.clock.Now()
	transfer := domain.Transfer{
		TransferID:           uuid.NewString(),
		ReferenceNumber:      req.ReferenceNumber,
		Type:                 req.Type,
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Beneficiary:          req.Beneficiary,
		Amount:               req.Amount,
		Fee:                  domain.Zero(req.Amount.Currency),
		CreditedAmount:       req.Amount,
		Status:               domain.TransferPending,
		Narration:            req.Narration,
		CreatedAt:            now,
		UpdatedAt:            now,
		Version:              1,
	}
	if err := s.TransferRepo.SaveTransfer(ctx, transfer); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// another process won the unique reference constraint
			existing, ferr := s.TransferRepo.FindTransferByReference(ctx, req.ReferenceNumber)
			if ferr != nil {
				return nil, fmt.Errorf("failed to load transfer reference %s: %w", req.ReferenceNumber, ferr)
			}
			s.complete(ctx, lease, existing)
			return existing, nil
		}
		s.LogError(ctx, err, "Failed to save transfer", slog.String("reference", req.ReferenceNumber))
		return nil, fmt.Errorf("failed to save transfer: %w", err)
	}
	s.complete(ctx, lease, &transfer)

	s.LogInfo(ctx, "Transfer submitted",
		slog.String("transfer_id", transfer.TransferID),
		slog.String("reference", transfer.ReferenceNumber),
		slog.String("type", string(transfer.Type)),
		slog.Int64("amount", transfer.Amount.Amount))
	return &transfer, nil
}

func (s *transferService) complete(ctx context.Context, lease *guard.Lease, t *domain.Transfer) {
	if _, err := lease.Complete(ctx, string(t.Status), t.TransferID); err != nil {
		s.LogError(ctx, err, "Failed to record transfer submission", slog.String("transfer_id", t.TransferID))
	}
}

func (s *transferService) VerifyPin(ctx context.Context, transferID, pin string, policy domain.TransferPolicy) (*domain.Transfer, error) {
	limits := limitsWithDefaults(policy.Limits)
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		if t.Status != domain.TransferPending {
			return t, fmt.Errorf("%w: transfer %s is %s, pin is only verified while %s", apperrors.ErrInvalidTransition, t.TransferID, t.Status, domain.TransferPending)
		}
		source, err := s.findAccount(ctx, t.SourceAccountID)
		if err != nil {
			return t, err
		}
		hash, err := s.CredentialRepo.FindPinHash(ctx, source.OwnerID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return t, fmt.Errorf("failed to load pin of %s: %w", source.OwnerID, err)
		}

		now := s.clock.Now()
		if hash == "" || !utils.CheckSecretHash(pin, hash) {
			t.PinAttempts++
			t.UpdatedAt = now
			if t.PinAttempts >= limits.MaxPinAttempts {
				return s.fail(ctx, t, fmt.Errorf("%w: pin failed %d times", apperrors.ErrTooManyAttempts, t.PinAttempts))
			}
			if err := s.update(ctx, t); err != nil {
				return nil, err
			}
			s.LogInfo(ctx, "PIN rejected", slog.String("transfer_id", t.TransferID), slog.Int("attempts", t.PinAttempts))
			return t, apperrors.ErrPinInvalid
		}

		if err := t.TransitionTo(domain.TransferPinVerified, now); err != nil {
			return t, err
		}
		code, otp, err := s.issueOtp(ctx, t, limits.OtpTTL)
		if err != nil {
			return nil, err
		}
		if err := s.update(ctx, t); err != nil {
			return nil, err
		}
		s.LogInfo(ctx, "PIN verified", slog.String("transfer_id", t.TransferID))
		s.publishOtp(ctx, t, source.OwnerID, code, otp)
		return t, nil
	})
}

func (s *transferService) ResendOtp(ctx context.Context, transferID string, policy domain.TransferPolicy) (*domain.Transfer, error) {
	limits := limitsWithDefaults(policy.Limits)
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		if t.Status != domain.TransferPinVerified {
			return t, fmt.Errorf("%w: transfer %s is %s, codes are only issued while %s", apperrors.ErrInvalidTransition, t.TransferID, t.Status, domain.TransferPinVerified)
		}
		source, err := s.findAccount(ctx, t.SourceAccountID)
		if err != nil {
			return t, err
		}
		code, otp, err := s.issueOtp(ctx, t, limits.OtpTTL)
		if err != nil {
			return nil, err
		}
		s.publishOtp(ctx, t, source.OwnerID, code, otp)
		return t, nil
	})
}

// issueOtp stores the hash of a fresh code and returns the plaintext for delivery.
func (s *transferService) issueOtp(ctx context.Context, t *domain.Transfer, ttl time.Duration) (string, *domain.OTP, error) {
	code, err := utils.GenerateNumericCode(otpDigits)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := utils.HashSecret(code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash otp: %w", err)
	}
	now := s.clock.Now()
	otp := domain.OTP{
		OtpID:      uuid.NewString(),
		TransferID: t.TransferID,
		CodeHash:   hash,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.OTPRepo.SaveOTP(ctx, otp); err != nil {
		return "", nil, fmt.Errorf("failed to save otp of %s: %w", t.TransferID, err)
	}
	return code, &otp, nil
}

func (s *transferService) publishOtp(ctx context.Context, t *domain.Transfer, ownerID, code string, otp *domain.OTP) {
	s.publish(ctx, domain.EventTransferOtpIssued, t.TransferID, map[string]any{
		"transferID": t.TransferID,
		"ownerID":    ownerID,
		"code":       code,
		"expiresAt":  otp.ExpiresAt,
	})
}

func (s *transferService) VerifyOtp(ctx context.Context, transferID, code string, policy domain.TransferPolicy) (*domain.Transfer, error) {
	limits := limitsWithDefaults(policy.Limits)
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		if t.Status != domain.TransferPinVerified {
			return t, fmt.Errorf("%w: transfer %s is %s, otp is only verified while %s", apperrors.ErrInvalidTransition, t.TransferID, t.Status, domain.TransferPinVerified)
		}
		otp, err := s.OTPRepo.FindLatestOTP(ctx, t.TransferID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return t, fmt.Errorf("%w: no code was issued", apperrors.ErrOtpInvalid)
			}
			return t, fmt.Errorf("failed to load otp of %s: %w", t.TransferID, err)
		}

		now := s.clock.Now()
		if otp.IsUsed() {
			return t, fmt.Errorf("%w: code already used", apperrors.ErrOtpInvalid)
		}
		if otp.IsExpired(now) {
			return t, apperrors.ErrOtpExpired
		}
		if !utils.CheckSecretHash(code, otp.CodeHash) {
			t.OtpAttempts++
			t.UpdatedAt = now
			if t.OtpAttempts >= limits.MaxOtpAttempts {
				return s.fail(ctx, t, fmt.Errorf("%w: otp failed %d times", apperrors.ErrTooManyAttempts, t.OtpAttempts))
			}
			if err := s.update(ctx, t); err != nil {
				return nil, err
			}
			s.LogInfo(ctx, "OTP rejected", slog.String("transfer_id", t.TransferID), slog.Int("attempts", t.OtpAttempts))
			return t, apperrors.ErrOtpInvalid
		}
		if err := s.OTPRepo.ConsumeOTP(ctx, otp.OtpID, now); err != nil {
			if errors.Is(err, apperrors.ErrConcurrentModification) {
				return t, fmt.Errorf("%w: code already used", apperrors.ErrOtpInvalid)
			}
			return t, fmt.Errorf("failed to consume otp of %s: %w", t.TransferID, err)
		}

		if err := t.TransitionTo(domain.TransferOtpVerified, now); err != nil {
			return t, err
		}
		if err := s.update(ctx, t); err != nil {
			return nil, err
		}
		s.LogInfo(ctx, "OTP verified", slog.String("transfer_id", t.TransferID))
		return s.settle(ctx, t, policy)
	})
}

func (s *transferService) Resume(ctx context.Context, transferID string, policy domain.TransferPolicy) (*domain.Transfer, error) {
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		switch {
		case t.Status == domain.TransferOtpVerified, t.Status == domain.TransferProcessing:
			s.LogInfo(ctx, "Resuming transfer", slog.String("transfer_id", t.TransferID), slog.String("status", string(t.Status)))
			return s.settle(ctx, t, policy)
		case t.Status.IsTerminal():
			return t, nil
		default:
			return t, fmt.Errorf("%w: transfer %s is %s and awaits verification", apperrors.ErrInvalidTransition, t.TransferID, t.Status)
		}
	})
}

// settle moves an OTP_VERIFIED transfer through PROCESSING and posts it. A PROCESSING
// transfer is posted with the amounts fixed when it entered PROCESSING.
func (s *transferService) settle(ctx context.Context, t *domain.Transfer, policy domain.TransferPolicy) (*domain.Transfer, error) {
	if t.Status == domain.TransferOtpVerified {
		if err := s.price(ctx, t, policy); err != nil {
			if isBusinessFailure(err) {
				return s.fail(ctx, t, err)
			}
			return t, err
		}
		if err := t.TransitionTo(domain.TransferProcessing, s.clock.Now()); err != nil {
			return t, err
		}
		if err := s.update(ctx, t); err != nil {
			return nil, err
		}
	}

	lines, err := s.postingLines(t)
	if err != nil {
		return s.fail(ctx, t, err)
	}
	_, err = s.Ledger.Post(ctx, domain.PostingRequest{
		GroupID:        t.TransferID,
		Kind:           domain.PostingTransfer,
		Reference:      t.ReferenceNumber,
		Lines:          lines,
		CheckAvailable: true,
	})
	if err != nil {
		if isBusinessFailure(err) {
			return s.fail(ctx, t, err)
		}
		// left in PROCESSING; Resume re-drives it with the same group id
		s.LogError(ctx, err, "Transfer posting interrupted", slog.String("transfer_id", t.TransferID))
		return t, err
	}
	return s.markCompleted(ctx, t)
}

func (s *transferService) markCompleted(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error) {
	if err := t.TransitionTo(domain.TransferCompleted, s.clock.Now()); err != nil {
		return t, err
	}
	if err := s.update(ctx, t); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Transfer completed",
		slog.String("transfer_id", t.TransferID),
		slog.Int64("amount", t.Amount.Amount),
		slog.Int64("fee", t.Fee.Amount))
	s.terminal(ctx, t)
	return t, nil
}

// price applies limits and fixes the fee, rate and credited amount on the transfer.
func (s *transferService) price(ctx context.Context, t *domain.Transfer, policy domain.TransferPolicy) error {
	dayStart := startOfDay(s.clock.Now())
	usedToday, err := s.TransferRepo.SumOutgoingSince(ctx, t.SourceAccountID, t.Type, dayStart)
	if err != nil {
		return fmt.Errorf("failed to sum outgoing transfers of %s: %w", t.SourceAccountID, err)
	}
	if err := policy.Limits.Check(t.Type, t.Amount.Amount, usedToday); err != nil {
		return err
	}
	fee, err := policy.Fees.FeeFor(t.Type, t.Amount)
	if err != nil {
		return err
	}
	t.Fee = fee
	t.CreditedAmount = t.Amount
	t.ExchangeRate = nil

	if t.Type.IsExternal() {
		return nil
	}
	dest, err := s.findAccount(ctx, t.DestinationAccountID)
	if err != nil {
		return err
	}
	if dest.Currency == t.Amount.Currency {
		return nil
	}
	rate, ok := policy.Rates.Rate(t.Amount.Currency, dest.Currency)
	if !ok {
		return fmt.Errorf("%w: no exchange rate for %s", apperrors.ErrCurrencyMismatch, domain.PairKey(t.Amount.Currency, dest.Currency))
	}
	credited, err := t.Amount.MultiplyByRate(rate, dest.Currency)
	if err != nil {
		return err
	}
	if !credited.IsPositive() {
		return fmt.Errorf("%w: %s converts to nothing at %s", apperrors.ErrValidation, t.Amount, rate)
	}
	t.CreditedAmount = credited
	t.ExchangeRate = &rate
	return nil
}

// postingLines builds the balanced group for a priced transfer.
func (s *transferService) postingLines(t *domain.Transfer) ([]domain.EntryLine, error) {
	debit, err := t.Amount.Add(t.Fee)
	if err != nil {
		return nil, err
	}
	memo := t.Narration
	lines := []domain.EntryLine{{AccountID: t.SourceAccountID, Direction: domain.Debit, Amount: debit, Memo: memo}}

	destination := t.DestinationAccountID
	if t.Type.IsExternal() {
		if destination, err = s.System.ExternalClearingAccount(t.Amount.Currency); err != nil {
			return nil, err
		}
	}

	if t.CreditedAmount.Currency == t.Amount.Currency {
		lines = append(lines, domain.EntryLine{AccountID: destination, Direction: domain.Credit, Amount: t.Amount, Memo: memo})
	} else {
		sourcePosition, err := s.System.FxPositionAccount(t.Amount.Currency)
		if err != nil {
			return nil, err
		}
		targetPosition, err := s.System.FxPositionAccount(t.CreditedAmount.Currency)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			domain.EntryLine{AccountID: sourcePosition, Direction: domain.Credit, Amount: t.Amount, Memo: memo},
			domain.EntryLine{AccountID: targetPosition, Direction: domain.Debit, Amount: t.CreditedAmount, Memo: memo},
			domain.EntryLine{AccountID: destination, Direction: domain.Credit, Amount: t.CreditedAmount, Memo: memo},
		)
	}

	if t.Fee.IsPositive() {
		feeAccount, err := s.System.FeeAccount(t.Fee.Currency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.EntryLine{AccountID: feeAccount, Direction: domain.Credit, Amount: t.Fee, Memo: "fee " + t.ReferenceNumber})
	}
	return lines, nil
}

func (s *transferService) Cancel(ctx context.Context, transferID, reason string) (*domain.Transfer, error) {
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		if t.Status == domain.TransferFailed && t.FailureReason == apperrors.ReasonCancelled {
			return t, nil
		}
		if t.Status.IsTerminal() {
			return t, fmt.Errorf("%w: transfer %s is already %s", apperrors.ErrInvalidTransition, t.TransferID, t.Status)
		}
		if t.Status == domain.TransferProcessing {
			_, err := s.Ledger.GetPosting(ctx, t.TransferID)
			switch {
			case err == nil:
				// the money already moved; record that instead of cancelling
				completed, cerr := s.markCompleted(ctx, t)
				if cerr != nil {
					return completed, cerr
				}
				return completed, fmt.Errorf("%w: transfer %s was already settled", apperrors.ErrInvalidTransition, t.TransferID)
			case !errors.Is(err, apperrors.ErrNotFound):
				return t, err
			}
		}
		s.LogInfo(ctx, "Cancelling transfer", slog.String("transfer_id", t.TransferID), slog.String("reason", reason))
		cancelled, err := s.fail(ctx, t, errCancelled)
		if errors.Is(err, errCancelled) {
			return cancelled, nil
		}
		return cancelled, err
	})
}

var errCancelled = errors.New("cancelled")

func (s *transferService) Reverse(ctx context.Context, transferID, reason string) (*domain.Transfer, error) {
	return s.withTransfer(ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
		if t.Status == domain.TransferReversed {
			return t, nil
		}
		if t.Status != domain.TransferCompleted {
			return t, fmt.Errorf("%w: transfer %s is %s, only completed transfers can be reversed", apperrors.ErrInvalidTransition, t.TransferID, t.Status)
		}
		reversalID := deterministicID("reversal", t.TransferID)
		if _, err := s.Ledger.PostReversal(ctx, t.TransferID, reversalID, domain.PostingTransferReverse, false); err != nil {
			s.LogError(ctx, err, "Failed to post transfer reversal", slog.String("transfer_id", t.TransferID))
			return t, err
		}
		if err := t.TransitionTo(domain.TransferReversed, s.clock.Now()); err != nil {
			return t, err
		}
		t.ReversalGroupID = reversalID
		t.ReversalReason = reason
		if err := s.update(ctx, t); err != nil {
			return nil, err
		}
		s.LogInfo(ctx, "Transfer reversed", slog.String("transfer_id", t.TransferID), slog.String("reason", reason))
		s.terminal(ctx, t)
		return t, nil
	})
}

func (s *transferService) Status(ctx context.Context, transferID string) (*domain.Transfer, error) {
	t, err := s.TransferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: transfer %s", apperrors.ErrNotFound, transferID)
		}
		return nil, fmt.Errorf("failed to load transfer %s: %w", transferID, err)
	}
	return t, nil
}

func (s *transferService) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transfer, error) {
	if _, err := s.findAccount(ctx, accountID); err != nil {
		return nil, err
	}
	transfers, err := s.TransferRepo.ListTransfersByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers of %s: %w", accountID, err)
	}
	return transfers, nil
}

// withTransfer loads the transfer under its lock and hands it to fn.
func (s *transferService) withTransfer(ctx context.Context, transferID string, fn func(*domain.Transfer) (*domain.Transfer, error)) (*domain.Transfer, error) {
	unlock, err := s.transferLocks.Lock(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock transfer %s: %w", transferID, err)
	}
	defer unlock()

	t, err := s.Status(ctx, transferID)
	if err != nil {
		return nil, err
	}
	return fn(t)
}

func (s *transferService) update(ctx context.Context, t *domain.Transfer) error {
	if err := s.TransferRepo.UpdateTransfer(ctx, *t, t.Version); err != nil {
		s.LogError(ctx, err, "Failed to update transfer", slog.String("transfer_id", t.TransferID), slog.String("status", string(t.Status)))
		return fmt.Errorf("failed to update transfer %s: %w", t.TransferID, err)
	}
	t.Version++
	return nil
}

// fail moves t to FAILED with the reason code of cause and returns both.
func (s *transferService) fail(ctx context.Context, t *domain.Transfer, cause error) (*domain.Transfer, error) {
	reason := apperrors.ReasonCode(cause)
	if errors.Is(cause, errCancelled) {
		reason = apperrors.ReasonCancelled
	}
	if err := t.Fail(reason, s.clock.Now()); err != nil {
		return t, err
	}
	if err := s.update(ctx, t); err != nil {
		return nil, err
	}
	s.GetLogger(ctx).Warn("Transfer failed",
		slog.String("transfer_id", t.TransferID),
		slog.String("reason", reason),
		slog.String("error", cause.Error()))
	s.terminal(ctx, t)
	return t, cause
}

// terminal records the final state for replays, metrics and collaborators.
func (s *transferService) terminal(ctx context.Context, t *domain.Transfer) {
	if err := s.Idempotency.UpdateResult(ctx, submitKey(t.ReferenceNumber), string(t.Status)); err != nil {
		s.LogError(ctx, err, "Failed to update idempotency record", slog.String("transfer_id", t.TransferID))
	}
	s.metrics.ObserveTransferTerminal(string(t.Type), string(t.Status), t.FailureReason)

	eventType := domain.EventTransferCompleted
	switch t.Status {
	case domain.TransferFailed:
		eventType = domain.EventTransferFailed
	case domain.TransferReversed:
		eventType = domain.EventTransferReversed
	}
	s.publish(ctx, eventType, t.TransferID, map[string]any{
		"transferID":      t.TransferID,
		"referenceNumber": t.ReferenceNumber,
		"type":            string(t.Type),
		"status":          string(t.Status),
		"sourceAccountID": t.SourceAccountID,
		"amountMinor":     t.Amount.Amount,
		"feeMinor":        t.Fee.Amount,
		"currency":        string(t.Amount.Currency),
		"failureReason":   t.FailureReason,
	})
}

func (s *transferService) findAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, accountID)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return acc, nil
}

// isBusinessFailure separates rejections that end a transfer from infrastructure errors
// that leave it resumable.
func isBusinessFailure(err error) bool {
	for _, target := range []error{
		apperrors.ErrInsufficientFunds,
		apperrors.ErrInsufficientAvailableFunds,
		apperrors.ErrLimitExceeded,
		apperrors.ErrAccountClosed,
		apperrors.ErrAccountFrozen,
		apperrors.ErrUnknownAccount,
		apperrors.ErrCurrencyMismatch,
		apperrors.ErrIntegrity,
		apperrors.ErrValidation,
		apperrors.ErrOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func limitsWithDefaults(l domain.LimitsConfig) domain.LimitsConfig {
	defaults := domain.DefaultTransferPolicy().Limits
	if l.MaxPinAttempts <= 0 {
		l.MaxPinAttempts = defaults.MaxPinAttempts
	}
	if l.MaxOtpAttempts <= 0 {
		l.MaxOtpAttempts = defaults.MaxOtpAttempts
	}
	if l.OtpTTL <= 0 {
		l.OtpTTL = defaults.OtpTTL
	}
	return l
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
