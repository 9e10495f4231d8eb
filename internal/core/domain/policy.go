package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransferLimit caps a transfer type in minor units of the source currency. Zero means no cap.
type TransferLimit struct {
	PerTransaction int64 `json:"perTransaction"`
	Daily          int64 `json:"daily"`
}

// LimitsConfig holds verification and amount limits. It is passed into each call, never read globally.
type LimitsConfig struct {
	ByType         map[TransferType]TransferLimit
	MaxPinAttempts int
	MaxOtpAttempts int
	OtpTTL         time.Duration
}

// Check returns ErrLimitExceeded when amount breaks the per-transaction cap or pushes
// usedToday over the daily cap.
func (l LimitsConfig) Check(t TransferType, amount, usedToday int64) error {
	limit, ok := l.ByType[t]
	if !ok {
		return nil
	}
	if limit.PerTransaction > 0 && amount > limit.PerTransaction {
		return fmt.Errorf("%w: %s amount %d exceeds per-transaction limit %d", apperrors.ErrLimitExceeded, t, amount, limit.PerTransaction)
	}
	if limit.Daily > 0 {
		total, err := addInt64(usedToday, amount)
		if err != nil || total > limit.Daily {
			return fmt.Errorf("%w: %s daily total would be %d, limit %d", apperrors.ErrLimitExceeded, t, total, limit.Daily)
		}
	}
	return nil
}

// FeeRule computes flat + basis point fees clamped to [Min, Max]. Max of zero means no cap.
type FeeRule struct {
	Flat        int64 `json:"flat"`
	BasisPoints int64 `json:"basisPoints"`
	Min         int64 `json:"min"`
	Max         int64 `json:"max"`
}

// FeeSchedule maps transfer types to fee rules.
type FeeSchedule struct {
	ByType map[TransferType]FeeRule
}

var tenThousand = decimal.NewFromInt(10000)

// FeeFor returns the fee charged on amount, in the amount's currency.
func (f FeeSchedule) FeeFor(t TransferType, amount Money) (Money, error) {
	rule, ok := f.ByType[t]
	if !ok {
		return Zero(amount.Currency), nil
	}
	variable := decimal.NewFromInt(amount.Amount).Mul(decimal.NewFromInt(rule.BasisPoints)).Div(tenThousand).Round(0)
	fee := decimal.NewFromInt(rule.Flat).Add(variable)
	if rule.Min > 0 && fee.LessThan(decimal.NewFromInt(rule.Min)) {
		fee = decimal.NewFromInt(rule.Min)
	}
	if rule.Max > 0 && fee.GreaterThan(decimal.NewFromInt(rule.Max)) {
		fee = decimal.NewFromInt(rule.Max)
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Money{}, fmt.Errorf("%w: fee rule for %s produced %s", apperrors.ErrValidation, t, fee)
	}
	return Money{Amount: fee.IntPart(), Currency: amount.Currency}, nil
}

// ExchangeRates maps "FROM/TO" pairs to the rate applied to FROM amounts.
type ExchangeRates map[string]decimal.Decimal

// Rate looks up the conversion rate for a currency pair.
func (r ExchangeRates) Rate(from, to Currency) (decimal.Decimal, bool) {
	rate, ok := r[PairKey(from, to)]
	return rate, ok
}

// PairKey formats a currency pair.
func PairKey(from, to Currency) string {
	return strings.ToUpper(string(from)) + "/" + strings.ToUpper(string(to))
}

// TransferPolicy bundles everything the orchestrator reads from settings.
type TransferPolicy struct {
	Limits LimitsConfig
	Fees   FeeSchedule
	Rates  ExchangeRates
}

// DefaultTransferPolicy is used when settings leave a value unset.
func DefaultTransferPolicy() TransferPolicy {
	return TransferPolicy{
		Limits: LimitsConfig{
			ByType:         map[TransferType]TransferLimit{},
			MaxPinAttempts: 3,
			MaxOtpAttempts: 3,
			OtpTTL:         5 * time.Minute,
		},
		Fees:  FeeSchedule{ByType: map[TransferType]FeeRule{}},
		Rates: ExchangeRates{},
	}
}

// SystemAccounts names the bank's settlement accounts per currency.
type SystemAccounts struct {
	Fee              map[Currency]string
	ExternalClearing map[Currency]string
	DepositClearing  map[Currency]string
	CheckClearing    map[Currency]string
	FxPosition       map[Currency]string
}

func lookupSystemAccount(m map[Currency]string, role string, c Currency) (string, error) {
	id, ok := m[c]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: no %s account configured for %s", apperrors.ErrUnknownAccount, role, c)
	}
	return id, nil
}

func (s SystemAccounts) FeeAccount(c Currency) (string, error) {
	return lookupSystemAccount(s.Fee, "fee", c)
}

func (s SystemAccounts) ExternalClearingAccount(c Currency) (string, error) {
	return lookupSystemAccount(s.ExternalClearing, "external clearing", c)
}

func (s SystemAccounts) DepositClearingAccount(c Currency) (string, error) {
	return lookupSystemAccount(s.DepositClearing, "deposit clearing", c)
}

func (s SystemAccounts) CheckClearingAccount(c Currency) (string, error) {
	return lookupSystemAccount(s.CheckClearing, "check clearing", c)
}

func (s SystemAccounts) FxPositionAccount(c Currency) (string, error) {
	return lookupSystemAccount(s.FxPosition, "fx position", c)
}

// All returns every configured account id with its currency, for bootstrapping.
func (s SystemAccounts) All() map[string]Currency {
	out := make(map[string]Currency)
	for _, m := range []map[Currency]string{s.Fee, s.ExternalClearing, s.DepositClearing, s.CheckClearing, s.FxPosition} {
		for c, id := range m {
			if id != "" {
				out[id] = c
			}
		}
	}
	return out
}
