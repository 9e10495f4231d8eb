package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, DriverPostgres, cfg.IdempotencyDriver, "idempotency follows storage when unset")
	assert.Equal(t, 120*time.Hour, cfg.CheckHoldPeriod)

	policy := cfg.TransferPolicy()
	assert.Equal(t, 3, policy.Limits.MaxPinAttempts)
	assert.Equal(t, 5*time.Minute, policy.Limits.OtpTTL)

	fee, err := cfg.SystemAccounts().FeeAccount(domain.Currency("USD"))
	require.NoError(t, err)
	assert.Equal(t, "sys-fee-usd", fee)
}

func TestFromViperPolicy(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"STORAGE_DRIVER":       "memory",
		"IDEMPOTENCY_DRIVER":   "bolt",
		"LIMIT_WIRE_PER_TXN":   500000,
		"LIMIT_WIRE_DAILY":     1000000,
		"FEE_WIRE_BPS":         100,
		"FEE_WIRE_MIN":         1000,
		"FEE_INTERNAL_FLAT":    100,
		"FX_RATES":             "USD/EUR=0.9, EUR/USD=1.1",
		"FX_POSITION_ACCOUNTS": "USD=sys-fx-usd,EUR=sys-fx-eur",
		"KAFKA_BROKERS":        "k1:9092, k2:9092",
		"CORS_ALLOWED_ORIGINS": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverBolt, cfg.IdempotencyDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.CORSOrigins)

	policy := cfg.TransferPolicy()
	assert.Equal(t, domain.TransferLimit{PerTransaction: 500000, Daily: 1000000}, policy.Limits.ByType[domain.TransferWire])
	assert.Equal(t, domain.FeeRule{BasisPoints: 100, Min: 1000}, policy.Fees.ByType[domain.TransferWire])
	assert.Equal(t, domain.FeeRule{Flat: 100}, policy.Fees.ByType[domain.TransferInternal])
	_, hasDomestic := policy.Fees.ByType[domain.TransferDomestic]
	assert.False(t, hasDomestic)

	rate, ok := policy.Rates.Rate("USD", "EUR")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.9").Equal(rate))

	// copies are independent
	policy.Fees.ByType[domain.TransferWire] = domain.FeeRule{}
	assert.Equal(t, int64(100), cfg.TransferPolicy().Fees.ByType[domain.TransferWire].BasisPoints)

	fx, err := cfg.SystemAccounts().FxPositionAccount("EUR")
	require.NoError(t, err)
	assert.Equal(t, "sys-fx-eur", fx)
}

func TestFromViperRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]any{
		"storage driver":  {"STORAGE_DRIVER": "mongo"},
		"idem driver":     {"IDEMPOTENCY_DRIVER": "redis"},
		"fx rate":         {"FX_RATES": "USD/EUR=abc"},
		"fx pair":         {"FX_RATES": "USDEUR=0.9"},
		"negative rate":   {"FX_RATES": "USD/EUR=-1"},
		"account map":     {"FEE_ACCOUNTS": "USD"},
		"account code":    {"FEE_ACCOUNTS": "DOLLARS=sys-fee"},
		"otp ttl":         {"OTP_TTL": "0s"},
		"sweep batch":     {"SWEEP_BATCH_SIZE": 0},
		"prod jwt secret": {"IS_PRODUCTION": true},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(values))
			assert.Error(t, err)
		})
	}
}
