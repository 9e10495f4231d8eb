package domain_test

import (
	"testing"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeSchedule_FeeFor(t *testing.T) {
	fees := domain.FeeSchedule{ByType: map[domain.TransferType]domain.FeeRule{
		domain.TransferInternal: {Flat: 100},
		domain.TransferWire:     {Flat: 500, BasisPoints: 25, Min: 1000, Max: 5000},
		domain.TransferDomestic: {BasisPoints: 15},
	}}

	tests := []struct {
		name   string
		t      domain.TransferType
		amount int64
		want   int64
	}{
		{"flat", domain.TransferInternal, 2500, 100},
		{"min clamp", domain.TransferWire, 10000, 1000},
		{"max clamp", domain.TransferWire, 10_000_000, 5000},
		{"basis points in range", domain.TransferWire, 1_000_000, 3000},
		{"half rounds up", domain.TransferDomestic, 1000, 2},
		{"no rule", domain.TransferAccount, 2500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := fees.FeeFor(tt.t, usd(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, usd(tt.want), fee)
		})
	}
}

func TestLimitsConfig_Check(t *testing.T) {
	limits := domain.LimitsConfig{ByType: map[domain.TransferType]domain.TransferLimit{
		domain.TransferWire: {PerTransaction: 1000, Daily: 1500},
	}}

	assert.NoError(t, limits.Check(domain.TransferWire, 1000, 0))
	assert.ErrorIs(t, limits.Check(domain.TransferWire, 1001, 0), apperrors.ErrLimitExceeded)
	assert.ErrorIs(t, limits.Check(domain.TransferWire, 600, 1000), apperrors.ErrLimitExceeded)
	assert.NoError(t, limits.Check(domain.TransferWire, 500, 1000))
	assert.NoError(t, limits.Check(domain.TransferInternal, 1_000_000, 0))
}

func TestExchangeRates_Rate(t *testing.T) {
	rates := domain.ExchangeRates{"USD/EUR": decimal.RequireFromString("0.92")}
	r, ok := rates.Rate("USD", "EUR")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.RequireFromString("0.92")))
	_, ok = rates.Rate("EUR", "USD")
	assert.False(t, ok)
}

func TestSystemAccounts_Lookup(t *testing.T) {
	sys := domain.SystemAccounts{
		Fee:             map[domain.Currency]string{"USD": "sys-fee-usd"},
		DepositClearing: map[domain.Currency]string{"USD": "sys-cash-usd"},
	}
	id, err := sys.FeeAccount("USD")
	require.NoError(t, err)
	assert.Equal(t, "sys-fee-usd", id)

	_, err = sys.FeeAccount("EUR")
	assert.ErrorIs(t, err, apperrors.ErrUnknownAccount)

	assert.Len(t, sys.All(), 2)
}
