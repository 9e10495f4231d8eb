package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/core/services"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/clock"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/metrics"
	"github.com/SscSPs/digital_bank_ledger/internal/repositories/memory"
	"github.com/SscSPs/digital_bank_ledger/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const (
	usd domain.Currency = "USD"
	eur domain.Currency = "EUR"
)

var testSystemAccounts = domain.SystemAccounts{
	Fee:              map[domain.Currency]string{usd: "sys-fee-usd", eur: "sys-fee-eur"},
	ExternalClearing: map[domain.Currency]string{usd: "sys-ext-usd"},
	DepositClearing:  map[domain.Currency]string{usd: "sys-cash-usd", eur: "sys-cash-eur"},
	CheckClearing:    map[domain.Currency]string{usd: "sys-check-usd"},
	FxPosition:       map[domain.Currency]string{usd: "sys-fx-usd", eur: "sys-fx-eur"},
}

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) ofType(eventType string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// lastOtp returns the code most recently issued for a transfer.
func (p *capturePublisher) lastOtp(transferID string) string {
	issued := p.ofType(domain.EventTransferOtpIssued)
	for i := len(issued) - 1; i >= 0; i-- {
		if issued[i].Key == transferID {
			return issued[i].Payload["code"].(string)
		}
	}
	return ""
}

// engineSuite wires every service on top of the in-memory store.
type engineSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	clock     *clock.Manual
	publisher *capturePublisher
	locker    *guard.KeyedLocker
	svc       *portssvc.ServiceContainer
}

func (s *engineSuite) SetupSuite() {
	utils.HashCost = bcrypt.MinCost
}

func (s *engineSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.clock = clock.NewManual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s.publisher = &capturePublisher{}
	s.locker = guard.NewKeyedLocker()
	s.svc = services.NewServiceContainer(s.store.Provider(), testSystemAccounts,
		services.WithClock(s.clock),
		services.WithPublisher(s.publisher),
		services.WithMetrics(metrics.New(prometheus.NewRegistry())),
		services.WithAccountLocker(s.locker),
	)
	for id, currency := range testSystemAccounts.All() {
		_, err := s.svc.Account.EnsureSystemAccount(s.ctx, id, currency)
		s.Require().NoError(err)
	}
}

// openFunded opens a customer account and deposits amount into it when positive.
func (s *engineSuite) openFunded(id, owner string, currency domain.Currency, amount int64) *domain.Account {
	acc, err := s.svc.Account.OpenAccount(s.ctx, domain.OpenAccountParams{
		AccountID: id,
		OwnerID:   owner,
		Kind:      domain.AccountKindCustomer,
		Currency:  currency,
	})
	s.Require().NoError(err)
	if amount > 0 {
		_, err = s.svc.Account.Deposit(s.ctx, domain.CashMovement{
			AccountID: id,
			Amount:    domain.Money{Amount: amount, Currency: currency},
			Reference: "fund-" + id,
		})
		s.Require().NoError(err)
	}
	return acc
}

func (s *engineSuite) balance(accountID string) int64 {
	b, err := s.svc.Account.Balance(s.ctx, accountID)
	s.Require().NoError(err)
	return b.Amount
}

func (s *engineSuite) available(accountID string) int64 {
	b, err := s.svc.Account.CurrentAvailable(s.ctx, accountID)
	s.Require().NoError(err)
	return b.Amount
}

func money(amount int64, currency domain.Currency) domain.Money {
	return domain.Money{Amount: amount, Currency: currency}
}
