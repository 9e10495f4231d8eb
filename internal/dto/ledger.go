package dto

import (
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// LedgerEntryResponse is one line of a posting.
type LedgerEntryResponse struct {
	EntryID           string    `json:"entryID"`
	GroupID           string    `json:"groupID"`
	AccountID         string    `json:"accountID"`
	Direction         string    `json:"direction"`
	Amount            MoneyDTO  `json:"amount"`
	Sequence          int       `json:"sequence"`
	BalanceAfterMinor int64     `json:"balanceAfterMinor"`
	Memo              string    `json:"memo,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PostingResponse is a posting group with its entries.
type PostingResponse struct {
	GroupID   string                `json:"groupID"`
	Kind      string                `json:"kind"`
	Reference string                `json:"reference,omitempty"`
	PostedAt  time.Time             `json:"postedAt"`
	Replayed  bool                  `json:"replayed"`
	Entries   []LedgerEntryResponse `json:"entries"`
}

// ListEntriesParams defines query parameters for paging an account's entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:           e.EntryID,
		GroupID:           e.GroupID,
		AccountID:         e.AccountID,
		Direction:         string(e.Direction),
		Amount:            ToMoneyDTO(e.Amount),
		Sequence:          e.Sequence,
		BalanceAfterMinor: e.BalanceAfter,
		Memo:              e.Memo,
		CreatedAt:         e.CreatedAt,
	}
}

func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	res := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = ToLedgerEntryResponse(e)
	}
	return res
}

func ToPostingResponse(p *domain.Posting) PostingResponse {
	return PostingResponse{
		GroupID:   p.GroupID,
		Kind:      string(p.Kind),
		Reference: p.Reference,
		PostedAt:  p.PostedAt,
		Replayed:  p.Replayed,
		Entries:   ToLedgerEntryResponses(p.Entries),
	}
}
