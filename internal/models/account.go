package models

import "time"

// Account is a row of the accounts table.
type Account struct {
	AccountID      string     `db:"account_id"`
	OwnerID        string     `db:"owner_id"`
	Kind           string     `db:"kind"`
	CurrencyCode   string     `db:"currency_code"`
	Balance        int64      `db:"balance"`
	MinimumBalance int64      `db:"minimum_balance"`
	Status         string     `db:"status"`
	Version        int64      `db:"version"`
	ClosedAt       *time.Time `db:"closed_at"` // Nullable
	AuditFields
}
