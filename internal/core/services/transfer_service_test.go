package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TransferServiceTestSuite struct {
	engineSuite
	policy domain.TransferPolicy
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

func (s *TransferServiceTestSuite) SetupTest() {
	s.engineSuite.SetupTest()
	s.policy = domain.DefaultTransferPolicy()
	s.policy.Fees.ByType[domain.TransferInternal] = domain.FeeRule{Flat: 100}
	s.policy.Fees.ByType[domain.TransferWire] = domain.FeeRule{BasisPoints: 100, Min: 1000, Max: 5000}

	s.openFunded("acc-a", "alice", usd, 10000)
	s.openFunded("acc-b", "bob", usd, 0)
	s.Require().NoError(s.svc.Account.SetPin(s.ctx, "alice", "1234"))
}

func (s *TransferServiceTestSuite) submit(ref string, amount int64) *domain.Transfer {
	t, err := s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type:                 domain.TransferInternal,
		ReferenceNumber:      ref,
		SourceAccountID:      "acc-a",
		DestinationAccountID: "acc-b",
		Amount:               money(amount, usd),
		Narration:            "rent",
	})
	s.Require().NoError(err)
	return t
}

// authorize passes both verification gates and returns the outcome of the OTP step.
func (s *TransferServiceTestSuite) authorize(transferID string) (*domain.Transfer, error) {
	t, err := s.svc.Transfer.VerifyPin(s.ctx, transferID, "1234", s.policy)
	s.Require().NoError(err)
	s.Require().Equal(domain.TransferPinVerified, t.Status)
	return s.svc.Transfer.VerifyOtp(s.ctx, transferID, s.publisher.lastOtp(transferID), s.policy)
}

func (s *TransferServiceTestSuite) TestInternalTransfer_SettlesWithFee() {
	t := s.submit("ref-1", 2500)
	s.Equal(domain.TransferPending, t.Status)

	done, err := s.authorize(t.TransferID)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, done.Status)
	s.Equal(int64(100), done.Fee.Amount)
	s.NotNil(done.CompletedAt)

	s.Equal(int64(7400), s.balance("acc-a"))
	s.Equal(int64(2500), s.balance("acc-b"))
	s.Equal(int64(100), s.balance("sys-fee-usd"))

	posting, err := s.svc.Ledger.GetPosting(s.ctx, t.TransferID)
	s.Require().NoError(err)
	s.Len(posting.Entries, 3)

	status, err := s.svc.Transfer.Status(s.ctx, t.TransferID)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, status.Status)
	s.Len(s.publisher.ofType(domain.EventTransferCompleted), 1)
}

func (s *TransferServiceTestSuite) TestZeroFee_HasNoFeeLine() {
	delete(s.policy.Fees.ByType, domain.TransferInternal)
	t := s.submit("ref-free", 500)
	_, err := s.authorize(t.TransferID)
	s.Require().NoError(err)

	posting, err := s.svc.Ledger.GetPosting(s.ctx, t.TransferID)
	s.Require().NoError(err)
	s.Len(posting.Entries, 2)
	s.Equal(int64(0), s.balance("sys-fee-usd"))
}

func (s *TransferServiceTestSuite) TestSubmit_DuplicateReferenceReturnsOriginal() {
	first := s.submit("ref-dup", 2500)
	again := s.submit("ref-dup", 9999)
	s.Equal(first.TransferID, again.TransferID)
	s.Equal(int64(2500), again.Amount.Amount)

	_, err := s.authorize(first.TransferID)
	s.Require().NoError(err)

	replay := s.submit("ref-dup", 2500)
	s.Equal(first.TransferID, replay.TransferID)
	s.Equal(domain.TransferCompleted, replay.Status)
	s.Equal(int64(7400), s.balance("acc-a"))
}

func (s *TransferServiceTestSuite) TestSubmit_ConcurrentDuplicatesShareOneTransfer() {
	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t, err := s.svc.Transfer.Submit(context.Background(), domain.TransferRequest{
				Type:                 domain.TransferInternal,
				ReferenceNumber:      "ref-race",
				SourceAccountID:      "acc-a",
				DestinationAccountID: "acc-b",
				Amount:               money(100, usd),
			})
			if !assert.NoError(s.T(), err) {
				return
			}
			ids <- t.TransferID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	s.Len(seen, 1)
}

func (s *TransferServiceTestSuite) TestSubmit_Validation() {
	_, err := s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type: domain.TransferInternal, ReferenceNumber: "ref-v", SourceAccountID: "acc-a", DestinationAccountID: "acc-a", Amount: money(1, usd),
	})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type: domain.TransferInternal, ReferenceNumber: "ref-v", SourceAccountID: "acc-a", DestinationAccountID: "acc-nope", Amount: money(1, usd),
	})
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	// the rejected reference stays usable
	t := s.submit("ref-v", 10)
	s.Equal(domain.TransferPending, t.Status)
}

func (s *TransferServiceTestSuite) TestVerifyPin_TooManyAttempts() {
	t := s.submit("ref-pin", 100)

	got, err := s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "0000", s.policy)
	s.ErrorIs(err, apperrors.ErrPinInvalid)
	s.Equal(1, got.PinAttempts)
	s.Equal(domain.TransferPending, got.Status)

	_, err = s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "0000", s.policy)
	s.ErrorIs(err, apperrors.ErrPinInvalid)

	got, err = s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "0000", s.policy)
	s.ErrorIs(err, apperrors.ErrTooManyAttempts)
	s.Equal(domain.TransferFailed, got.Status)
	s.Equal(apperrors.ReasonTooManyAttempts, got.FailureReason)

	_, err = s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "1234", s.policy)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	s.Len(s.publisher.ofType(domain.EventTransferFailed), 1)
}

func (s *TransferServiceTestSuite) TestVerifyOtp_WrongCodeCountsAttempts() {
	t := s.submit("ref-otp", 100)
	_, err := s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "1234", s.policy)
	s.Require().NoError(err)

	for i := 1; i < 3; i++ {
		got, err := s.svc.Transfer.VerifyOtp(s.ctx, t.TransferID, "not-it", s.policy)
		s.ErrorIs(err, apperrors.ErrOtpInvalid)
		s.Equal(i, got.OtpAttempts)
	}
	got, err := s.svc.Transfer.VerifyOtp(s.ctx, t.TransferID, "not-it", s.policy)
	s.ErrorIs(err, apperrors.ErrTooManyAttempts)
	s.Equal(domain.TransferFailed, got.Status)
	s.Equal(int64(10000), s.balance("acc-a"))
}

func (s *TransferServiceTestSuite) TestVerifyOtp_ExpiredCodeCanBeReissued() {
	t := s.submit("ref-exp", 100)
	_, err := s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "1234", s.policy)
	s.Require().NoError(err)
	stale := s.publisher.lastOtp(t.TransferID)

	s.clock.Advance(s.policy.Limits.OtpTTL)
	got, err := s.svc.Transfer.VerifyOtp(s.ctx, t.TransferID, stale, s.policy)
	s.ErrorIs(err, apperrors.ErrOtpExpired)
	s.Equal(domain.TransferPinVerified, got.Status)
	s.Equal(0, got.OtpAttempts)

	_, err = s.svc.Transfer.ResendOtp(s.ctx, t.TransferID, s.policy)
	s.Require().NoError(err)
	fresh := s.publisher.lastOtp(t.TransferID)
	s.Len(fresh, 6)

	got, err = s.svc.Transfer.VerifyOtp(s.ctx, t.TransferID, fresh, s.policy)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, got.Status)

	// a consumed code cannot be replayed
	_, err = s.svc.Transfer.VerifyOtp(s.ctx, t.TransferID, fresh, s.policy)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *TransferServiceTestSuite) TestLimits_FailTransfer() {
	s.policy.Limits.ByType[domain.TransferInternal] = domain.TransferLimit{PerTransaction: 2000, Daily: 3000}

	big := s.submit("ref-big", 2500)
	got, err := s.authorize(big.TransferID)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)
	s.Equal(domain.TransferFailed, got.Status)
	s.Equal(apperrors.ReasonLimitExceeded, got.FailureReason)

	first := s.submit("ref-day-1", 2000)
	_, err = s.authorize(first.TransferID)
	s.Require().NoError(err)

	second := s.submit("ref-day-2", 2000)
	_, err = s.authorize(second.TransferID)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)

	// the daily window starts over at midnight UTC
	s.clock.Advance(24 * time.Hour)
	third := s.submit("ref-day-3", 2000)
	got, err = s.authorize(third.TransferID)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, got.Status)
}

func (s *TransferServiceTestSuite) TestLimits_DailyUsageCountsFromSettlement() {
	s.policy.Limits.ByType[domain.TransferInternal] = domain.TransferLimit{PerTransaction: 2000, Daily: 3000}

	// submitted before midnight, settled after it: the amount belongs to the new day
	s.clock.Set(time.Date(2026, 3, 2, 23, 50, 0, 0, time.UTC))
	late := s.submit("ref-late", 2000)
	s.clock.Set(time.Date(2026, 3, 3, 0, 10, 0, 0, time.UTC))
	got, err := s.authorize(late.TransferID)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, got.Status)
	s.Require().NotNil(got.ProcessingAt)
	s.True(got.ProcessingAt.Equal(s.clock.Now()))

	next := s.submit("ref-next", 2000)
	got, err = s.authorize(next.TransferID)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)
	s.Equal(domain.TransferFailed, got.Status)

	used, err := s.store.SumOutgoingSince(s.ctx, "acc-a", domain.TransferInternal, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(int64(2000), used)
}

func (s *TransferServiceTestSuite) TestInsufficientFunds_FailsWithoutMovingMoney() {
	t := s.submit("ref-poor", 9950)
	got, err := s.authorize(t.TransferID)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.Equal(domain.TransferFailed, got.Status)
	s.Equal(apperrors.ReasonInsufficientFunds, got.FailureReason)
	s.Equal(int64(10000), s.balance("acc-a"))
	s.Equal(int64(0), s.balance("acc-b"))
}

func (s *TransferServiceTestSuite) TestHeldFunds_AreNotSpendable() {
	_, err := s.svc.Account.Reserve(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(9000, usd), Reason: "card auth"})
	s.Require().NoError(err)

	t := s.submit("ref-held", 2500)
	got, err := s.authorize(t.TransferID)
	s.ErrorIs(err, apperrors.ErrInsufficientAvailableFunds)
	s.Equal(apperrors.ReasonInsufficientAvailableFunds, got.FailureReason)
	s.Equal(int64(10000), s.balance("acc-a"))
}

func (s *TransferServiceTestSuite) TestReverse_RestoresBalances() {
	t := s.submit("ref-rev", 2500)
	_, err := s.authorize(t.TransferID)
	s.Require().NoError(err)

	got, err := s.svc.Transfer.Reverse(s.ctx, t.TransferID, "customer dispute")
	s.Require().NoError(err)
	s.Equal(domain.TransferReversed, got.Status)
	s.NotEmpty(got.ReversalGroupID)
	s.Equal(int64(10000), s.balance("acc-a"))
	s.Equal(int64(0), s.balance("acc-b"))
	s.Equal(int64(0), s.balance("sys-fee-usd"))

	again, err := s.svc.Transfer.Reverse(s.ctx, t.TransferID, "customer dispute")
	s.Require().NoError(err)
	s.Equal(got.ReversalGroupID, again.ReversalGroupID)
	s.Len(s.publisher.ofType(domain.EventTransferReversed), 1)

	pending := s.submit("ref-rev-pending", 10)
	_, err = s.svc.Transfer.Reverse(s.ctx, pending.TransferID, "nope")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *TransferServiceTestSuite) TestCancel() {
	t := s.submit("ref-cancel", 100)
	got, err := s.svc.Transfer.Cancel(s.ctx, t.TransferID, "changed my mind")
	s.Require().NoError(err)
	s.Equal(domain.TransferFailed, got.Status)
	s.Equal(apperrors.ReasonCancelled, got.FailureReason)

	_, err = s.svc.Transfer.Cancel(s.ctx, t.TransferID, "again")
	s.Require().NoError(err)

	_, err = s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "1234", s.policy)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	done := s.submit("ref-cancel-done", 100)
	_, err = s.authorize(done.TransferID)
	s.Require().NoError(err)
	_, err = s.svc.Transfer.Cancel(s.ctx, done.TransferID, "too late")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *TransferServiceTestSuite) TestWireTransfer_SettlesIntoClearing() {
	t, err := s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type:            domain.TransferWire,
		ReferenceNumber: "ref-wire",
		SourceAccountID: "acc-a",
		Beneficiary:     &domain.ExternalBeneficiary{Name: "Carol", AccountNumber: "DE89370400440532013000", SwiftCode: "COBADEFF"},
		Amount:          money(3000, usd),
	})
	s.Require().NoError(err)

	got, err := s.authorize(t.TransferID)
	s.Require().NoError(err)
	s.Equal(int64(1000), got.Fee.Amount)
	s.Equal(int64(6000), s.balance("acc-a"))
	s.Equal(int64(3000), s.balance("sys-ext-usd"))
	s.Equal(int64(1000), s.balance("sys-fee-usd"))
}

func (s *TransferServiceTestSuite) TestCrossCurrencyTransfer() {
	s.openFunded("acc-e", "erin", eur, 0)
	s.policy.Rates[domain.PairKey(usd, eur)] = decimal.RequireFromString("0.9")

	t, err := s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type:                 domain.TransferAccount,
		ReferenceNumber:      "ref-fx",
		SourceAccountID:      "acc-a",
		DestinationAccountID: "acc-e",
		Amount:               money(1000, usd),
	})
	s.Require().NoError(err)
	got, err := s.authorize(t.TransferID)
	s.Require().NoError(err)
	s.Equal(money(900, eur), got.CreditedAmount)
	s.Require().NotNil(got.ExchangeRate)

	s.Equal(int64(9000), s.balance("acc-a"))
	s.Equal(int64(900), s.balance("acc-e"))
	s.Equal(int64(1000), s.balance("sys-fx-usd"))
	s.Equal(int64(-900), s.balance("sys-fx-eur"))

	delete(s.policy.Rates, domain.PairKey(usd, eur))
	missing, err := s.svc.Transfer.Submit(s.ctx, domain.TransferRequest{
		Type:                 domain.TransferAccount,
		ReferenceNumber:      "ref-fx-2",
		SourceAccountID:      "acc-a",
		DestinationAccountID: "acc-e",
		Amount:               money(1000, usd),
	})
	s.Require().NoError(err)
	got, err = s.authorize(missing.TransferID)
	s.ErrorIs(err, apperrors.ErrCurrencyMismatch)
	s.Equal(apperrors.ReasonCurrencyMismatch, got.FailureReason)
}

func (s *TransferServiceTestSuite) TestResume_SettlesInterruptedTransfer() {
	t := s.submit("ref-resume", 2500)
	_, err := s.svc.Transfer.VerifyPin(s.ctx, t.TransferID, "1234", s.policy)
	s.Require().NoError(err)

	// keep the source account busy so the posting cannot take its lock
	unlock, err := s.locker.Lock(s.ctx, "acc-a")
	s.Require().NoError(err)
	ctx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	got, err := s.svc.Transfer.VerifyOtp(ctx, t.TransferID, s.publisher.lastOtp(t.TransferID), s.policy)
	cancel()
	unlock()
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(domain.TransferProcessing, got.Status)
	s.Equal(int64(10000), s.balance("acc-a"))

	got, err = s.svc.Transfer.Resume(s.ctx, t.TransferID, s.policy)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, got.Status)
	s.Equal(int64(7400), s.balance("acc-a"))

	got, err = s.svc.Transfer.Resume(s.ctx, t.TransferID, s.policy)
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, got.Status)
	s.Equal(int64(7400), s.balance("acc-a"))
}

func (s *TransferServiceTestSuite) TestListByAccount() {
	s.submit("ref-l1", 10)
	s.clock.Advance(time.Second)
	s.submit("ref-l2", 20)

	list, err := s.svc.Transfer.ListByAccount(s.ctx, "acc-b", 10)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("ref-l2", list[0].ReferenceNumber)
}
