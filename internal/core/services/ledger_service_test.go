package services_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	engineSuite
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func transferLines(from, to string, amount int64) []domain.EntryLine {
	return []domain.EntryLine{
		{AccountID: from, Direction: domain.Debit, Amount: money(amount, usd)},
		{AccountID: to, Direction: domain.Credit, Amount: money(amount, usd)},
	}
}

func (s *LedgerServiceTestSuite) TestPost_MovesBalancesAndReplays() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)

	req := domain.PostingRequest{GroupID: "g-1", Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-b", 300)}
	posting, err := s.svc.Ledger.Post(s.ctx, req)
	s.Require().NoError(err)
	s.False(posting.Replayed)
	s.Len(posting.Entries, 2)
	s.Equal(int64(700), posting.Entries[0].BalanceAfter)
	s.Equal(int64(300), posting.Entries[1].BalanceAfter)

	replayed, err := s.svc.Ledger.Post(s.ctx, req)
	s.Require().NoError(err)
	s.True(replayed.Replayed)
	s.Equal(posting.Entries[0].EntryID, replayed.Entries[0].EntryID)

	s.Equal(int64(700), s.balance("acc-a"))
	s.Equal(int64(300), s.balance("acc-b"))
}

func (s *LedgerServiceTestSuite) TestPost_RejectsUnbalanced() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)

	_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{
		GroupID: "g-bad",
		Kind:    domain.PostingTransfer,
		Lines: []domain.EntryLine{
			{AccountID: "acc-a", Direction: domain.Debit, Amount: money(300, usd)},
			{AccountID: "acc-b", Direction: domain.Credit, Amount: money(299, usd)},
		},
	})
	s.ErrorIs(err, apperrors.ErrUnbalanced)
	s.ErrorIs(err, apperrors.ErrIntegrity)
	s.Equal(int64(1000), s.balance("acc-a"))

	_, err = s.svc.Ledger.GetPosting(s.ctx, "g-bad")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestPost_IsAtomic() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)

	_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{
		GroupID: "g-unknown",
		Kind:    domain.PostingTransfer,
		Lines: []domain.EntryLine{
			{AccountID: "acc-a", Direction: domain.Debit, Amount: money(300, usd)},
			{AccountID: "acc-b", Direction: domain.Credit, Amount: money(200, usd)},
			{AccountID: "acc-missing", Direction: domain.Credit, Amount: money(100, usd)},
		},
	})
	s.ErrorIs(err, apperrors.ErrUnknownAccount)
	s.Equal(int64(1000), s.balance("acc-a"))
	s.Equal(int64(0), s.balance("acc-b"))

	entries, _, err := s.svc.Ledger.ListEntries(s.ctx, "acc-b", 10, nil)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *LedgerServiceTestSuite) TestPost_BusinessRejections() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)
	s.openFunded("acc-e", "erin", eur, 0)

	_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-over", Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-b", 1001)})
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	_, err = s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-cur", Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-e", 10)})
	s.ErrorIs(err, apperrors.ErrCurrencyMismatch)

	_, err = s.svc.Account.Freeze(s.ctx, "acc-a", "ops")
	s.Require().NoError(err)
	_, err = s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-frozen-out", Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-b", 10)})
	s.ErrorIs(err, apperrors.ErrAccountFrozen)

	_, err = s.svc.Account.Close(s.ctx, "acc-b", "ops")
	s.Require().NoError(err)
	_, err = s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-closed", Kind: domain.PostingTransfer, Lines: transferLines("sys-cash-usd", "acc-b", 10)})
	s.ErrorIs(err, apperrors.ErrAccountClosed)

	s.Equal(int64(1000), s.balance("acc-a"))
}

func (s *LedgerServiceTestSuite) TestPost_FrozenAccountAcceptsCredits() {
	s.openFunded("acc-a", "alice", usd, 100)
	_, err := s.svc.Account.Freeze(s.ctx, "acc-a", "ops")
	s.Require().NoError(err)

	_, err = s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-in", Kind: domain.PostingDeposit, Lines: transferLines("sys-cash-usd", "acc-a", 50)})
	s.Require().NoError(err)
	s.Equal(int64(150), s.balance("acc-a"))
}

func (s *LedgerServiceTestSuite) TestPostReversal_RestoresBalances() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)

	_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: "g-1", Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-b", 400)})
	s.Require().NoError(err)

	reversal, err := s.svc.Ledger.PostReversal(s.ctx, "g-1", "g-1-rev", domain.PostingTransferReverse, false)
	s.Require().NoError(err)
	s.Equal("g-1", reversal.Reference)
	s.Equal(domain.Credit, reversal.Entries[0].Direction)

	s.Equal(int64(1000), s.balance("acc-a"))
	s.Equal(int64(0), s.balance("acc-b"))

	original, err := s.svc.Ledger.GetPosting(s.ctx, "g-1")
	s.Require().NoError(err)
	s.Equal(domain.Debit, original.Entries[0].Direction)

	_, err = s.svc.Ledger.PostReversal(s.ctx, "g-missing", "g-missing-rev", domain.PostingTransferReverse, false)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestListEntries_Paginates() {
	s.openFunded("acc-a", "alice", usd, 1000)
	s.openFunded("acc-b", "bob", usd, 0)
	for i := 0; i < 5; i++ {
		_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: fmt.Sprintf("g-%d", i), Kind: domain.PostingTransfer, Lines: transferLines("acc-a", "acc-b", 10)})
		s.Require().NoError(err)
		s.clock.Advance(1)
	}

	first, next, err := s.svc.Ledger.ListEntries(s.ctx, "acc-b", 3, nil)
	s.Require().NoError(err)
	s.Len(first, 3)
	s.Require().NotNil(next)
	s.Equal("g-4", first[0].GroupID)

	rest, next, err := s.svc.Ledger.ListEntries(s.ctx, "acc-b", 3, next)
	s.Require().NoError(err)
	s.Len(rest, 2)
	s.Nil(next)
	s.Equal("g-0", rest[1].GroupID)

	_, _, err = s.svc.Ledger.ListEntries(s.ctx, "acc-missing", 3, nil)
	s.ErrorIs(err, apperrors.ErrUnknownAccount)
}

func (s *LedgerServiceTestSuite) TestConcurrentDebits_NeverOverdraw() {
	s.openFunded("acc-a", "alice", usd, 300)
	s.openFunded("acc-b", "bob", usd, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.svc.Ledger.Post(context.Background(), domain.PostingRequest{
				GroupID: fmt.Sprintf("g-%d", i),
				Kind:    domain.PostingTransfer,
				Lines:   transferLines("acc-a", "acc-b", 10),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(s.T(), err, apperrors.ErrInsufficientFunds)
		}(i)
	}
	wg.Wait()

	s.Equal(30, succeeded)
	s.Equal(int64(0), s.balance("acc-a"))
	s.Equal(int64(300), s.balance("acc-b"))
}

// Random postings keep the books balanced and every stored balance equal to its entries.
func (s *LedgerServiceTestSuite) TestRandomPostings_KeepInvariants() {
	accounts := []string{"acc-0", "acc-1", "acc-2", "acc-3", "acc-4"}
	for _, id := range accounts {
		s.openFunded(id, "owner-"+id, usd, 500)
	}
	all := append([]string{"sys-cash-usd"}, accounts...)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		from := all[rng.Intn(len(all))]
		to := all[rng.Intn(len(all))]
		if from == to {
			continue
		}
		amount := int64(rng.Intn(400) + 1)
		_, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{GroupID: fmt.Sprintf("rnd-%d", i), Kind: domain.PostingTransfer, Lines: transferLines(from, to, amount)})
		if err != nil {
			s.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
		}
	}

	var total int64
	for _, id := range append(all, "sys-fee-usd", "sys-ext-usd", "sys-check-usd", "sys-fx-usd") {
		rec, err := s.svc.Ledger.Reconcile(s.ctx, id)
		s.Require().NoError(err)
		s.True(rec.Consistent, id)
		total += rec.StoredBalance
	}
	s.Equal(int64(0), total)
	for _, id := range accounts {
		s.GreaterOrEqual(s.balance(id), int64(0))
	}
}
