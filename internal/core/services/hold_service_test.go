package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/digital_bank_ledger/internal/core/services"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/metrics"
	"github.com/SscSPs/digital_bank_ledger/internal/repositories/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const checkHoldPeriod = 5 * 24 * time.Hour

type HoldServiceTestSuite struct {
	engineSuite
}

func TestHoldServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HoldServiceTestSuite))
}

func (s *HoldServiceTestSuite) depositCheck(ref string, amount int64) *domain.Hold {
	hold, err := s.svc.Hold.DepositCheck(s.ctx, domain.CashMovement{
		AccountID: "acc-a",
		Amount:    money(amount, usd),
		Reference: ref,
		Memo:      "check #" + ref,
	}, checkHoldPeriod)
	s.Require().NoError(err)
	return hold
}

func (s *HoldServiceTestSuite) TestPlaceAndRelease() {
	s.openFunded("acc-a", "alice", usd, 1000)

	hold, err := s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(500, usd), Kind: domain.HoldReservation})
	s.Require().NoError(err)
	s.Equal(domain.HoldActive, hold.Status)
	s.Equal(int64(1000), s.balance("acc-a"))
	s.Equal(int64(500), s.available("acc-a"))

	_, err = s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(501, usd), Kind: domain.HoldReservation})
	s.ErrorIs(err, apperrors.ErrInsufficientAvailableFunds)

	released, err := s.svc.Hold.ReleaseHold(s.ctx, hold.HoldID)
	s.Require().NoError(err)
	s.Equal(domain.HoldReleased, released.Status)
	s.NotNil(released.ResolvedAt)
	s.Equal(int64(1000), s.available("acc-a"))

	again, err := s.svc.Hold.ReleaseHold(s.ctx, hold.HoldID)
	s.Require().NoError(err)
	s.Equal(domain.HoldReleased, again.Status)

	_, err = s.svc.Hold.ReleaseHold(s.ctx, "hold-missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *HoldServiceTestSuite) TestPlaceHold_Rejections() {
	s.openFunded("acc-a", "alice", usd, 1000)

	_, err := s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(10, eur), Kind: domain.HoldReservation})
	s.ErrorIs(err, apperrors.ErrCurrencyMismatch)

	_, err = s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(0, usd), Kind: domain.HoldReservation})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-missing", Amount: money(10, usd), Kind: domain.HoldReservation})
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	_, err = s.svc.Account.Freeze(s.ctx, "acc-a", "ops")
	s.Require().NoError(err)
	_, err = s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(10, usd), Kind: domain.HoldReservation})
	s.ErrorIs(err, apperrors.ErrAccountFrozen)
}

func (s *HoldServiceTestSuite) TestDepositCheck_HoldsUntilReleaseAt() {
	s.openFunded("acc-a", "alice", usd, 0)

	hold := s.depositCheck("chk-1", 1000)
	s.Equal(domain.HoldCheckDeposit, hold.Kind)
	s.Require().NotNil(hold.ReleaseAt)
	s.Equal(int64(1000), s.balance("acc-a"))
	s.Equal(int64(0), s.available("acc-a"))
	s.Equal(int64(-1000), s.balance("sys-check-usd"))

	replay := s.depositCheck("chk-1", 1000)
	s.Equal(hold.HoldID, replay.HoldID)
	s.Equal(int64(1000), s.balance("acc-a"))

	s.clock.Advance(checkHoldPeriod)
	s.Equal(int64(1000), s.available("acc-a"))

	active, err := s.svc.Hold.ListActiveHolds(s.ctx, "acc-a")
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *HoldServiceTestSuite) TestForfeitHold_ReversesProvisionalCredit() {
	s.openFunded("acc-a", "alice", usd, 200)
	hold := s.depositCheck("chk-bounce", 1000)

	forfeited, err := s.svc.Hold.ForfeitHold(s.ctx, hold.HoldID, "check bounced")
	s.Require().NoError(err)
	s.Equal(domain.HoldForfeited, forfeited.Status)
	s.NotEmpty(forfeited.ForfeitGroupID)
	s.Equal(int64(200), s.balance("acc-a"))
	s.Equal(int64(200), s.available("acc-a"))
	s.Equal(int64(0), s.balance("sys-check-usd"))

	again, err := s.svc.Hold.ForfeitHold(s.ctx, hold.HoldID, "check bounced")
	s.Require().NoError(err)
	s.Equal(forfeited.ForfeitGroupID, again.ForfeitGroupID)
	s.Equal(int64(200), s.balance("acc-a"))
	s.Len(s.publisher.ofType(domain.EventHoldForfeited), 1)

	_, err = s.svc.Hold.ReleaseHold(s.ctx, hold.HoldID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *HoldServiceTestSuite) TestForfeitHold_RequiresProvisionalCredit() {
	s.openFunded("acc-a", "alice", usd, 1000)
	hold, err := s.svc.Hold.PlaceHold(s.ctx, domain.HoldParams{AccountID: "acc-a", Amount: money(100, usd), Kind: domain.HoldReservation})
	s.Require().NoError(err)

	_, err = s.svc.Hold.ForfeitHold(s.ctx, hold.HoldID, "no")
	s.ErrorIs(err, apperrors.ErrValidation)

	expired := s.depositCheck("chk-late", 100)
	s.clock.Advance(checkHoldPeriod)
	_, err = s.svc.Hold.ForfeitHold(s.ctx, expired.HoldID, "too late")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *HoldServiceTestSuite) TestSweepExpired() {
	s.openFunded("acc-a", "alice", usd, 0)
	first := s.depositCheck("chk-s1", 100)
	s.clock.Advance(time.Hour)
	s.depositCheck("chk-s2", 100)

	swept, err := s.svc.Hold.SweepExpired(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal(0, swept)

	s.clock.Advance(checkHoldPeriod - time.Hour)
	swept, err = s.svc.Hold.SweepExpired(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal(1, swept)

	got, err := s.svc.Hold.GetHold(s.ctx, first.HoldID)
	s.Require().NoError(err)
	s.Equal(domain.HoldReleased, got.Status)

	s.clock.Advance(time.Hour)
	swept, err = s.svc.Hold.SweepExpired(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(1, swept)
}

// racingHoldRepo releases a hold on behalf of another worker just before the sweep's own update.
type racingHoldRepo struct {
	portsrepo.HoldRepositoryFacade
	races int
}

func (r *racingHoldRepo) UpdateHoldStatus(ctx context.Context, holdID string, from, to domain.HoldStatus, forfeitGroupID string, resolvedAt time.Time) error {
	if r.races > 0 {
		r.races--
		if err := r.HoldRepositoryFacade.UpdateHoldStatus(ctx, holdID, from, domain.HoldReleased, "", resolvedAt); err != nil {
			return err
		}
	}
	return r.HoldRepositoryFacade.UpdateHoldStatus(ctx, holdID, from, to, forfeitGroupID, resolvedAt)
}

func (s *HoldServiceTestSuite) TestSweepAllExpired_ContinuesPastConcurrentlyResolvedHolds() {
	s.openFunded("acc-a", "alice", usd, 0)
	for _, ref := range []string{"chk-r1", "chk-r2", "chk-r3"} {
		s.depositCheck(ref, 100)
	}
	s.clock.Advance(checkHoldPeriod)

	repos := s.store.Provider()
	repos.HoldRepo = &racingHoldRepo{HoldRepositoryFacade: repos.HoldRepo, races: 1}
	sweeper := services.NewServiceContainer(repos, testSystemAccounts,
		services.WithClock(s.clock),
		services.WithMetrics(metrics.New(prometheus.NewRegistry())),
		services.WithAccountLocker(s.locker),
	)

	// the first batch finds two holds but releases one; the run must not stop there
	released, err := sweeper.Hold.SweepAllExpired(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(2, released)

	left, err := s.store.FindExpiredHolds(s.ctx, s.clock.Now(), 10)
	s.Require().NoError(err)
	s.Empty(left)
	s.Equal(int64(300), s.available("acc-a"))
}

func (s *HoldServiceTestSuite) TestSweepAllExpired_FullBatchesThenEmpty() {
	s.openFunded("acc-a", "alice", usd, 0)
	for _, ref := range []string{"chk-f1", "chk-f2", "chk-f3", "chk-f4"} {
		s.depositCheck(ref, 50)
	}
	s.clock.Advance(checkHoldPeriod)

	released, err := s.svc.Hold.SweepAllExpired(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(4, released)

	released, err = s.svc.Hold.SweepAllExpired(s.ctx, 2)
	s.Require().NoError(err)
	s.Zero(released)
}

// A second engine over the same ledger storage but with its own idempotency records, as when
// two processes share Postgres and keep idempotency locally.
func (s *HoldServiceTestSuite) TestDepositCheck_ReplayWithoutIdempotencyRecord() {
	s.openFunded("acc-a", "alice", usd, 1000)
	first := s.depositCheck("chk-1", 400)

	repos := s.store.Provider()
	repos.IdempotencyRepo = memory.NewStore()
	other := services.NewServiceContainer(repos, testSystemAccounts,
		services.WithClock(s.clock),
		services.WithMetrics(metrics.New(prometheus.NewRegistry())),
		services.WithAccountLocker(s.locker),
	)

	second, err := other.Hold.DepositCheck(s.ctx, domain.CashMovement{
		AccountID: "acc-a",
		Amount:    money(400, usd),
		Reference: "chk-1",
	}, checkHoldPeriod)
	s.Require().NoError(err)
	s.Equal(first.HoldID, second.HoldID)

	active, err := s.svc.Hold.ListActiveHolds(s.ctx, "acc-a")
	s.Require().NoError(err)
	s.Len(active, 1)
	s.Equal(int64(1400), s.balance("acc-a"))
	s.Equal(int64(1000), s.available("acc-a"))

	// the same reference for a different amount is not a replay
	_, err = other.Hold.DepositCheck(s.ctx, domain.CashMovement{
		AccountID: "acc-a",
		Amount:    money(900, usd),
		Reference: "chk-1",
	}, checkHoldPeriod)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *HoldServiceTestSuite) TestDepositCheck_ReplayAfterHoldReleased() {
	s.openFunded("acc-a", "alice", usd, 0)
	hold := s.depositCheck("chk-1", 300)
	_, err := s.svc.Hold.ReleaseHold(s.ctx, hold.HoldID)
	s.Require().NoError(err)

	repos := s.store.Provider()
	repos.IdempotencyRepo = memory.NewStore()
	other := services.NewServiceContainer(repos, testSystemAccounts,
		services.WithClock(s.clock),
		services.WithAccountLocker(s.locker),
	)
	again, err := other.Hold.DepositCheck(s.ctx, domain.CashMovement{
		AccountID: "acc-a",
		Amount:    money(300, usd),
		Reference: "chk-1",
	}, checkHoldPeriod)
	s.Require().NoError(err)
	s.Equal(domain.HoldReleased, again.Status)
	s.Equal(int64(300), s.balance("acc-a"))
	s.Equal(int64(300), s.available("acc-a"))
}
