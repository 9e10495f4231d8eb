package mapping

import (
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
)

// ToModelPosting converts the header of a domain Posting.
func ToModelPosting(d domain.Posting) models.Posting {
	return models.Posting{
		GroupID:   d.GroupID,
		Kind:      string(d.Kind),
		Reference: nullString(d.Reference),
		PostedAt:  d.PostedAt,
	}
}

// ToDomainPosting joins a posting header with its entries.
func ToDomainPosting(m models.Posting, entries []models.LedgerEntry) (domain.Posting, error) {
	kind, err := domain.ParsePostingKind(m.Kind)
	if err != nil {
		return domain.Posting{}, corruptRow("posting", m.GroupID, err)
	}
	des, err := ToDomainLedgerEntrySlice(entries)
	if err != nil {
		return domain.Posting{}, err
	}
	return domain.Posting{
		GroupID:   m.GroupID,
		Kind:      kind,
		Reference: m.Reference.String,
		Entries:   des,
		PostedAt:  m.PostedAt,
	}, nil
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:      d.EntryID,
		GroupID:      d.GroupID,
		AccountID:    d.AccountID,
		Direction:    string(d.Direction),
		Amount:       d.Amount.Amount,
		CurrencyCode: string(d.Amount.Currency),
		Sequence:     d.Sequence,
		BalanceAfter: d.BalanceAfter,
		Memo:         nullString(d.Memo),
		CreatedAt:    d.CreatedAt,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) (domain.LedgerEntry, error) {
	direction, err := domain.ParseDirection(m.Direction)
	if err != nil {
		return domain.LedgerEntry{}, corruptRow("ledger entry", m.EntryID, err)
	}
	currency, err := domain.ParseCurrency(m.CurrencyCode)
	if err != nil {
		return domain.LedgerEntry{}, corruptRow("ledger entry", m.EntryID, err)
	}
	return domain.LedgerEntry{
		EntryID:      m.EntryID,
		GroupID:      m.GroupID,
		AccountID:    m.AccountID,
		Direction:    direction,
		Amount:       domain.Money{Amount: m.Amount, Currency: currency},
		Sequence:     m.Sequence,
		BalanceAfter: m.BalanceAfter,
		Memo:         m.Memo.String,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// ToDomainLedgerEntrySlice converts a slice of model entries to domain entries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) ([]domain.LedgerEntry, error) {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		d, err := ToDomainLedgerEntry(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
