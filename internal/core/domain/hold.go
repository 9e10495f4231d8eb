package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

// HoldStatus is the lifecycle of a hold.
type HoldStatus string

const (
	HoldActive    HoldStatus = "ACTIVE"
	HoldReleased  HoldStatus = "RELEASED"
	HoldForfeited HoldStatus = "FORFEITED"
)

// ParseHoldStatus rejects values outside the closed set.
func ParseHoldStatus(s string) (HoldStatus, error) {
	switch st := HoldStatus(strings.ToUpper(s)); st {
	case HoldActive, HoldReleased, HoldForfeited:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown hold status %q", apperrors.ErrValidation, s)
	}
}

// HoldKind tells why funds are held.
type HoldKind string

const (
	HoldReservation  HoldKind = "RESERVATION"
	HoldCheckDeposit HoldKind = "CHECK_DEPOSIT"
)

// ParseHoldKind rejects values outside the closed set.
func ParseHoldKind(s string) (HoldKind, error) {
	switch k := HoldKind(strings.ToUpper(s)); k {
	case HoldReservation, HoldCheckDeposit:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown hold kind %q", apperrors.ErrValidation, s)
	}
}

// Hold reduces the available balance of an account without touching its raw balance.
type Hold struct {
	HoldID         string     `json:"holdID"`
	AccountID      string     `json:"accountID"`
	Amount         Money      `json:"amount"`
	Kind           HoldKind   `json:"kind"`
	Reason         string     `json:"reason"`
	ReleaseAt      *time.Time `json:"releaseAt,omitempty"`
	Status         HoldStatus `json:"status"`
	SourceGroupID  string     `json:"sourceGroupID,omitempty"` // provisional credit backing the hold
	ForfeitGroupID string     `json:"forfeitGroupID,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// IsEffective reports whether the hold still reduces available funds at now.
// Holds past ReleaseAt stop counting even before a sweep marks them released.
func (h Hold) IsEffective(now time.Time) bool {
	if h.Status != HoldActive {
		return false
	}
	return h.ReleaseAt == nil || now.Before(*h.ReleaseAt)
}

// HoldParams describes a new hold.
type HoldParams struct {
	AccountID     string
	Amount        Money
	Kind          HoldKind
	Reason        string
	ReleaseAt     *time.Time
	SourceGroupID string
}

// Validate checks the params before any lock is taken.
func (p HoldParams) Validate() error {
	if p.AccountID == "" {
		return fmt.Errorf("%w: account id is required", apperrors.ErrValidation)
	}
	if _, err := ParseCurrency(string(p.Amount.Currency)); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: hold amount must be positive", apperrors.ErrValidation)
	}
	if _, err := ParseHoldKind(string(p.Kind)); err != nil {
		return err
	}
	return nil
}

// SumEffectiveHolds totals the holds that still count at now.
func SumEffectiveHolds(holds []Hold, now time.Time) (int64, error) {
	var total int64
	for _, h := range holds {
		if !h.IsEffective(now) {
			continue
		}
		var err error
		if total, err = addInt64(total, h.Amount.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// CashMovement is a deposit or withdrawal against the bank's clearing account.
type CashMovement struct {
	AccountID string
	Amount    Money
	Reference string
	Memo      string
}

// Validate checks the movement before any lock is taken.
func (m CashMovement) Validate() error {
	if m.AccountID == "" {
		return fmt.Errorf("%w: account id is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(m.Reference) == "" {
		return fmt.Errorf("%w: reference is required", apperrors.ErrValidation)
	}
	if _, err := ParseCurrency(string(m.Amount.Currency)); err != nil {
		return err
	}
	if !m.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	return nil
}
