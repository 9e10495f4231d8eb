package domain_test

import (
	"testing"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestPostingRequest_Validate(t *testing.T) {
	balanced := []domain.EntryLine{
		{AccountID: "a", Direction: domain.Debit, Amount: usd(2600)},
		{AccountID: "b", Direction: domain.Credit, Amount: usd(2500)},
		{AccountID: "fee", Direction: domain.Credit, Amount: usd(100)},
	}

	tests := []struct {
		name    string
		req     domain.PostingRequest
		wantErr error
	}{
		{
			name: "balanced three legs",
			req:  domain.PostingRequest{GroupID: "g1", Kind: domain.PostingTransfer, Lines: balanced},
		},
		{
			name:    "missing group",
			req:     domain.PostingRequest{Kind: domain.PostingTransfer, Lines: balanced},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "empty",
			req:     domain.PostingRequest{GroupID: "g1", Kind: domain.PostingTransfer},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "non positive amount",
			req: domain.PostingRequest{GroupID: "g1", Kind: domain.PostingTransfer, Lines: []domain.EntryLine{
				{AccountID: "a", Direction: domain.Debit, Amount: usd(0)},
				{AccountID: "b", Direction: domain.Credit, Amount: usd(0)},
			}},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "unbalanced",
			req: domain.PostingRequest{GroupID: "g1", Kind: domain.PostingTransfer, Lines: []domain.EntryLine{
				{AccountID: "a", Direction: domain.Debit, Amount: usd(100)},
				{AccountID: "b", Direction: domain.Credit, Amount: usd(99)},
			}},
			wantErr: apperrors.ErrUnbalanced,
		},
		{
			name: "balanced in total but not per currency",
			req: domain.PostingRequest{GroupID: "g1", Kind: domain.PostingTransfer, Lines: []domain.EntryLine{
				{AccountID: "a", Direction: domain.Debit, Amount: usd(100)},
				{AccountID: "b", Direction: domain.Credit, Amount: domain.Money{Amount: 100, Currency: "EUR"}},
			}},
			wantErr: apperrors.ErrIntegrity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMirrorLines(t *testing.T) {
	entries := []domain.LedgerEntry{
		{AccountID: "a", Direction: domain.Debit, Amount: usd(2600)},
		{AccountID: "b", Direction: domain.Credit, Amount: usd(2600)},
	}
	lines := domain.MirrorLines(entries, "reversal")
	assert.Equal(t, domain.Credit, lines[0].Direction)
	assert.Equal(t, domain.Debit, lines[1].Direction)
	assert.NoError(t, domain.CheckBalanced(lines))
}
