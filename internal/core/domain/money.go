package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 style three letter code.
type Currency string

// ParseCurrency normalises and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency code %q must have 3 letters", apperrors.ErrValidation, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency code %q must be alphabetic", apperrors.ErrValidation, code)
		}
	}
	return Currency(code), nil
}

// Money is an amount in minor units (cents for USD) tagged with its currency.
type Money struct {
	Amount   int64    `json:"amountMinor"`
	Currency Currency `json:"currency"`
}

// NewMoney builds a Money value after validating the currency code.
func NewMoney(amount int64, currency string) (Money, error) {
	c, err := ParseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: c}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", apperrors.ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	sum, err := addInt64(m.Amount, other.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Subtract returns m - other. The result may be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.Amount == math.MinInt64 {
		return Money{}, apperrors.ErrOverflow
	}
	diff, err := addInt64(m.Amount, -other.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: diff, Currency: m.Currency}, nil
}

// MultiplyByRate converts m into target using rate, rounding half-up to a whole minor unit.
// Negative intermediates round half away from zero.
func (m Money) MultiplyByRate(rate decimal.Decimal, target Currency) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	converted := decimal.NewFromInt(m.Amount).Mul(rate).Round(0)
	if converted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || converted.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Money{}, apperrors.ErrOverflow
	}
	return Money{Amount: converted.IntPart(), Currency: target}, nil
}

// Compare returns -1, 0 or 1.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < other.Amount:
		return -1, nil
	case m.Amount > other.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }

// Neg flips the sign.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

func addInt64(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, apperrors.ErrOverflow
	}
	return s, nil
}
