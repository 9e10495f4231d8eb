package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// ParseAccountStatus rejects values outside the closed set.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(strings.ToUpper(s)); st {
	case AccountActive, AccountFrozen, AccountClosed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, s)
	}
}

// AccountKind separates customer accounts from the bank's own settlement accounts.
type AccountKind string

const (
	AccountKindCustomer AccountKind = "CUSTOMER"
	AccountKindSystem   AccountKind = "SYSTEM"
)

// ParseAccountKind rejects values outside the closed set.
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToUpper(s)); k {
	case AccountKindCustomer, AccountKindSystem:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown account kind %q", apperrors.ErrValidation, s)
	}
}

// UnboundedMinimum is the minimum balance of settlement accounts that mirror the outside world
// and are therefore allowed to run negative.
const UnboundedMinimum int64 = math.MinInt64

// Account represents a ledger account. Its balance is only ever changed by ledger postings.
type Account struct {
	AccountID      string        `json:"accountID"`
	OwnerID        string        `json:"ownerID"`
	Kind           AccountKind   `json:"kind"`
	Currency       Currency      `json:"currency"`
	Balance        int64         `json:"balanceMinor"`
	MinimumBalance int64         `json:"minimumBalanceMinor"`
	Status         AccountStatus `json:"status"`
	Version        int64         `json:"version"` // bumped on every balance or status mutation
	ClosedAt       *time.Time    `json:"closedAt,omitempty"`
	AuditFields
}

// BalanceMoney returns the raw balance as Money.
func (a Account) BalanceMoney() Money {
	return Money{Amount: a.Balance, Currency: a.Currency}
}

// CanPost reports whether the account accepts a posting with the given net change.
func (a Account) CanPost(netChange int64) error {
	switch a.Status {
	case AccountClosed:
		return fmt.Errorf("%w: %s", apperrors.ErrAccountClosed, a.AccountID)
	case AccountFrozen:
		if netChange < 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountFrozen, a.AccountID)
		}
	}
	return nil
}

// OpenAccountParams describes a new account.
type OpenAccountParams struct {
	AccountID      string // optional, generated when empty
	OwnerID        string
	Kind           AccountKind
	Currency       Currency
	MinimumBalance int64
	ActorID        string
}

// Validate checks the params before any lock is taken.
func (p OpenAccountParams) Validate() error {
	if p.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", apperrors.ErrValidation)
	}
	if _, err := ParseCurrency(string(p.Currency)); err != nil {
		return err
	}
	if _, err := ParseAccountKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Kind == AccountKindCustomer && p.MinimumBalance < 0 {
		return fmt.Errorf("%w: customer accounts cannot have a negative minimum balance", apperrors.ErrValidation)
	}
	return nil
}
