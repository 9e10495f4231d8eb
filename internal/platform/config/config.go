package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// Storage and idempotency drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	EnableDBCheck     bool
	JWTSecret         string
	JWTIssuer         string
	StorageDriver     string
	IdempotencyDriver string
	BoltPath          string
	MigrationsPath    string
	KafkaBrokers      []string
	KafkaTopic        string
	RateLimit         string
	ActorRateLimit    string
	CORSOrigins       []string
	CheckHoldPeriod   time.Duration
	SweepBatchSize    int

	policy   domain.TransferPolicy
	accounts domain.SystemAccounts
}

// TransferPolicy returns a fresh copy of the configured limits, fees and rates.
func (c *Config) TransferPolicy() domain.TransferPolicy {
	p := domain.TransferPolicy{
		Limits: c.policy.Limits,
		Fees:   domain.FeeSchedule{ByType: make(map[domain.TransferType]domain.FeeRule, len(c.policy.Fees.ByType))},
		Rates:  make(domain.ExchangeRates, len(c.policy.Rates)),
	}
	p.Limits.ByType = make(map[domain.TransferType]domain.TransferLimit, len(c.policy.Limits.ByType))
	for k, v := range c.policy.Limits.ByType {
		p.Limits.ByType[k] = v
	}
	for k, v := range c.policy.Fees.ByType {
		p.Fees.ByType[k] = v
	}
	for k, v := range c.policy.Rates {
		p.Rates[k] = v
	}
	return p
}

// SystemAccounts returns the configured settlement accounts.
func (c *Config) SystemAccounts() domain.SystemAccounts {
	return c.accounts
}

var transferTypes = []domain.TransferType{
	domain.TransferWire,
	domain.TransferDomestic,
	domain.TransferInternal,
	domain.TransferAccount,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("JWT_ISSUER", "digital-bank-ledger")
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("IDEMPOTENCY_DRIVER", "")
	v.SetDefault("BOLT_PATH", "idempotency.db")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "ledger-events")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("ACTOR_RATE_LIMIT", "60-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAX_PIN_ATTEMPTS", 3)
	v.SetDefault("MAX_OTP_ATTEMPTS", 3)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("CHECK_HOLD_PERIOD", "120h")
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("FEE_ACCOUNTS", "USD=sys-fee-usd")
	v.SetDefault("EXTERNAL_CLEARING_ACCOUNTS", "USD=sys-ext-usd")
	v.SetDefault("DEPOSIT_CLEARING_ACCOUNTS", "USD=sys-cash-usd")
	v.SetDefault("CHECK_CLEARING_ACCOUNTS", "USD=sys-check-usd")
	v.SetDefault("FX_POSITION_ACCOUNTS", "")
	v.SetDefault("FX_RATES", "")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:     v.GetString("PGSQL_URL"),
		Port:            v.GetString("PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:   v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		StorageDriver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
		BoltPath:        v.GetString("BOLT_PATH"),
		MigrationsPath:  v.GetString("MIGRATIONS_PATH"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		RateLimit:       v.GetString("RATE_LIMIT"),
		ActorRateLimit:  v.GetString("ACTOR_RATE_LIMIT"),
		CORSOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		CheckHoldPeriod: v.GetDuration("CHECK_HOLD_PERIOD"),
		SweepBatchSize:  v.GetInt("SWEEP_BATCH_SIZE"),
	}

	switch cfg.StorageDriver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	cfg.IdempotencyDriver = strings.ToLower(v.GetString("IDEMPOTENCY_DRIVER"))
	if cfg.IdempotencyDriver == "" {
		cfg.IdempotencyDriver = cfg.StorageDriver
	}
	switch cfg.IdempotencyDriver {
	case DriverPostgres, DriverMemory, DriverBolt:
	default:
		return nil, fmt.Errorf("unsupported IDEMPOTENCY_DRIVER %q", cfg.IdempotencyDriver)
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}
	if cfg.StorageDriver == DriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	policy := domain.DefaultTransferPolicy()
	policy.Limits.MaxPinAttempts = v.GetInt("MAX_PIN_ATTEMPTS")
	policy.Limits.MaxOtpAttempts = v.GetInt("MAX_OTP_ATTEMPTS")
	policy.Limits.OtpTTL = v.GetDuration("OTP_TTL")
	if policy.Limits.OtpTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be a positive duration")
	}
	for _, t := range transferTypes {
		name := string(t)
		limit := domain.TransferLimit{
			PerTransaction: v.GetInt64("LIMIT_" + name + "_PER_TXN"),
			Daily:          v.GetInt64("LIMIT_" + name + "_DAILY"),
		}
		if limit != (domain.TransferLimit{}) {
			policy.Limits.ByType[t] = limit
		}
		fee := domain.FeeRule{
			Flat:        v.GetInt64("FEE_" + name + "_FLAT"),
			BasisPoints: v.GetInt64("FEE_" + name + "_BPS"),
			Min:         v.GetInt64("FEE_" + name + "_MIN"),
			Max:         v.GetInt64("FEE_" + name + "_MAX"),
		}
		if fee != (domain.FeeRule{}) {
			policy.Fees.ByType[t] = fee
		}
	}
	rates, err := parseRates(v.GetString("FX_RATES"))
	if err != nil {
		return nil, err
	}
	policy.Rates = rates
	cfg.policy = policy

	if cfg.accounts.Fee, err = parseAccountMap("FEE_ACCOUNTS", v.GetString("FEE_ACCOUNTS")); err != nil {
		return nil, err
	}
	if cfg.accounts.ExternalClearing, err = parseAccountMap("EXTERNAL_CLEARING_ACCOUNTS", v.GetString("EXTERNAL_CLEARING_ACCOUNTS")); err != nil {
		return nil, err
	}
	if cfg.accounts.DepositClearing, err = parseAccountMap("DEPOSIT_CLEARING_ACCOUNTS", v.GetString("DEPOSIT_CLEARING_ACCOUNTS")); err != nil {
		return nil, err
	}
	if cfg.accounts.CheckClearing, err = parseAccountMap("CHECK_CLEARING_ACCOUNTS", v.GetString("CHECK_CLEARING_ACCOUNTS")); err != nil {
		return nil, err
	}
	if cfg.accounts.FxPosition, err = parseAccountMap("FX_POSITION_ACCOUNTS", v.GetString("FX_POSITION_ACCOUNTS")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAccountMap reads "USD=sys-fee-usd,EUR=sys-fee-eur".
func parseAccountMap(key, raw string) (map[domain.Currency]string, error) {
	out := make(map[domain.Currency]string)
	for _, pair := range splitList(raw) {
		code, id, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid %s entry %q, want CUR=accountID", key, pair)
		}
		cur, err := domain.ParseCurrency(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, pair, err)
		}
		out[cur] = strings.TrimSpace(id)
	}
	return out, nil
}

// parseRates reads "USD/EUR=0.9,EUR/USD=1.1".
func parseRates(raw string) (domain.ExchangeRates, error) {
	out := domain.ExchangeRates{}
	for _, pair := range splitList(raw) {
		currencies, value, ok := strings.Cut(pair, "=")
		from, to, okPair := strings.Cut(currencies, "/")
		if !ok || !okPair {
			return nil, fmt.Errorf("invalid FX_RATES entry %q, want FROM/TO=rate", pair)
		}
		fromCur, err := domain.ParseCurrency(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid FX_RATES entry %q: %w", pair, err)
		}
		toCur, err := domain.ParseCurrency(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("invalid FX_RATES entry %q: %w", pair, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid FX_RATES rate in %q", pair)
		}
		out[domain.PairKey(fromCur, toCur)] = rate
	}
	return out, nil
}
