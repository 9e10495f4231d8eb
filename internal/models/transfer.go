package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is a row of the transfers table. The beneficiary is stored as JSONB.
type Transfer struct {
	TransferID           string              `db:"transfer_id"`
	ReferenceNumber      string              `db:"reference_number"`
	TransferType         string              `db:"transfer_type"`
	SourceAccountID      string              `db:"source_account_id"`
	DestinationAccountID sql.NullString      `db:"destination_account_id"`
	Beneficiary          []byte              `db:"beneficiary"`
	Amount               int64               `db:"amount"`
	CurrencyCode         string              `db:"currency_code"`
	Fee                  int64               `db:"fee"`
	CreditedAmount       int64               `db:"credited_amount"`
	CreditedCurrency     string              `db:"credited_currency"`
	ExchangeRate         decimal.NullDecimal `db:"exchange_rate"`
	Status               string              `db:"status"`
	PinAttempts          int                 `db:"pin_attempts"`
	OtpAttempts          int                 `db:"otp_attempts"`
	FailureReason        sql.NullString      `db:"failure_reason"`
	ReversalGroupID      sql.NullString      `db:"reversal_group_id"`
	ReversalReason       sql.NullString      `db:"reversal_reason"`
	Narration            sql.NullString      `db:"narration"`
	CreatedAt            time.Time           `db:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at"`
	ProcessingAt         *time.Time          `db:"processing_at"`
	CompletedAt          *time.Time          `db:"completed_at"`
	ReversedAt           *time.Time          `db:"reversed_at"`
	Version              int64               `db:"version"`
}

// TransferOTP is a row of transfer_otps.
type TransferOTP struct {
	OtpID      string     `db:"otp_id"`
	TransferID string     `db:"transfer_id"`
	CodeHash   string     `db:"code_hash"`
	ExpiresAt  time.Time  `db:"expires_at"`
	UsedAt     *time.Time `db:"used_at"`
	CreatedAt  time.Time  `db:"created_at"`
}
