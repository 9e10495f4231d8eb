package models

import (
	"database/sql"
	"time"
)

// Hold is a row of the holds table.
type Hold struct {
	HoldID         string         `db:"hold_id"`
	AccountID      string         `db:"account_id"`
	Amount         int64          `db:"amount"`
	CurrencyCode   string         `db:"currency_code"`
	Kind           string         `db:"kind"`
	Reason         sql.NullString `db:"reason"`
	ReleaseAt      *time.Time     `db:"release_at"`
	Status         string         `db:"status"`
	SourceGroupID  sql.NullString `db:"source_group_id"`
	ForfeitGroupID sql.NullString `db:"forfeit_group_id"`
	CreatedAt      time.Time      `db:"created_at"`
	ResolvedAt     *time.Time     `db:"resolved_at"`
}

// IdempotencyRecord is a row of idempotency_records.
type IdempotencyRecord struct {
	Key          string    `db:"idempotency_key"`
	ResultStatus string    `db:"result_status"`
	ResultID     string    `db:"result_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
