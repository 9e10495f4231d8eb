package models

import (
	"database/sql"
	"time"
)

// Posting is a row of ledger_postings. Its entries live in ledger_entries.
type Posting struct {
	GroupID   string         `db:"group_id"`
	Kind      string         `db:"kind"`
	Reference sql.NullString `db:"reference"`
	PostedAt  time.Time      `db:"posted_at"`
}

// LedgerEntry is an append-only row of ledger_entries.
type LedgerEntry struct {
	EntryID      string         `db:"entry_id"`
	GroupID      string         `db:"group_id"`
	AccountID    string         `db:"account_id"`
	Direction    string         `db:"direction"`
	Amount       int64          `db:"amount"`
	CurrencyCode string         `db:"currency_code"`
	Sequence     int            `db:"sequence"`
	BalanceAfter int64          `db:"balance_after"`
	Memo         sql.NullString `db:"memo"`
	CreatedAt    time.Time      `db:"created_at"`
}
