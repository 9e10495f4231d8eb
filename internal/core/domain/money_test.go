package domain_test

import (
	"math"
	"testing"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount int64) domain.Money {
	return domain.Money{Amount: amount, Currency: "USD"}
}

func TestParseCurrency(t *testing.T) {
	c, err := domain.ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, domain.Currency("USD"), c)

	for _, bad := range []string{"", "US", "USDT", "U5D"} {
		_, err := domain.ParseCurrency(bad)
		assert.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	sum, err := usd(2500).Add(usd(100))
	require.NoError(t, err)
	assert.Equal(t, usd(2600), sum)

	diff, err := usd(100).Subtract(usd(2500))
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, int64(-2400), diff.Amount)

	_, err = usd(1).Add(domain.Money{Amount: 1, Currency: "EUR"})
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

	_, err = usd(1).Compare(domain.Money{Amount: 1, Currency: "EUR"})
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

	_, err = usd(math.MaxInt64).Add(usd(1))
	assert.ErrorIs(t, err, apperrors.ErrOverflow)

	_, err = usd(0).Subtract(usd(math.MinInt64))
	assert.ErrorIs(t, err, apperrors.ErrOverflow)
}

func TestMoney_Compare(t *testing.T) {
	tests := []struct {
		a, b domain.Money
		want int
	}{
		{usd(1), usd(2), -1},
		{usd(2), usd(2), 0},
		{usd(3), usd(2), 1},
	}
	for _, tt := range tests {
		got, err := tt.a.Compare(tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.True(t, usd(0).IsZero())
	assert.True(t, usd(5).IsPositive())
	assert.Equal(t, usd(-5), usd(5).Neg())
}

func TestMoney_MultiplyByRate(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   string
		want   int64
	}{
		{"exact", 10000, "0.92", 9200},
		{"rounds half up", 5, "0.5", 3},
		{"rounds down below half", 149, "0.01", 1},
		{"negative rounds away from zero", -5, "0.5", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usd(tt.amount).MultiplyByRate(decimal.RequireFromString(tt.rate), "EUR")
			require.NoError(t, err)
			assert.Equal(t, domain.Money{Amount: tt.want, Currency: "EUR"}, got)
		})
	}

	_, err := usd(1).MultiplyByRate(decimal.Zero, "EUR")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
