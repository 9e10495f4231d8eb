package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAccount() domain.Account {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.Account{
		AccountID:      "acc-1",
		OwnerID:        "owner-1",
		Kind:           domain.AccountKindCustomer,
		Currency:       "USD",
		Balance:        1500,
		MinimumBalance: 100,
		Status:         domain.AccountActive,
		Version:        3,
		AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: "owner-1", LastUpdatedAt: now, LastUpdatedBy: "owner-1"},
	}
}

func TestToDomainAccount_RoundTrip(t *testing.T) {
	acc := sampleAccount()
	got, err := ToDomainAccount(ToModelAccount(acc))
	require.NoError(t, err)
	assert.Equal(t, acc, got)
}

func TestToDomainAccount_UnknownStoredValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Account)
	}{
		{"status", func(m *models.Account) { m.Status = "SUSPENDED" }},
		{"kind", func(m *models.Account) { m.Kind = "BROKER" }},
		{"currency", func(m *models.Account) { m.CurrencyCode = "U$" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ToModelAccount(sampleAccount())
			tt.mutate(&m)

			_, err := ToDomainAccount(m)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrIntegrity)
			assert.NotErrorIs(t, err, apperrors.ErrValidation, "a bad row must not surface as a caller error")
			assert.Contains(t, err.Error(), "acc-1")
		})
	}
}

func TestToDomainAccountSlice_StopsOnCorruptRow(t *testing.T) {
	good := ToModelAccount(sampleAccount())
	bad := good
	bad.AccountID = "acc-2"
	bad.Status = "?"

	accounts, err := ToDomainAccountSlice([]models.Account{good, bad})
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
	assert.Nil(t, accounts)
}

func TestToDomainHold_UnknownStoredValues(t *testing.T) {
	hold := domain.Hold{
		HoldID:    "hold-1",
		AccountID: "acc-1",
		Amount:    domain.Money{Amount: 200, Currency: "USD"},
		Kind:      domain.HoldReservation,
		Status:    domain.HoldActive,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	got, err := ToDomainHold(ToModelHold(hold))
	require.NoError(t, err)
	assert.Equal(t, hold, got)

	m := ToModelHold(hold)
	m.Status = "LAPSED"
	_, err = ToDomainHold(m)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)

	m = ToModelHold(hold)
	m.Kind = "LIEN"
	_, err = ToDomainHoldSlice([]models.Hold{m})
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestToDomainLedgerEntry_UnknownDirection(t *testing.T) {
	entry := models.LedgerEntry{
		EntryID:      "e-1",
		GroupID:      "g-1",
		AccountID:    "acc-1",
		Direction:    "SIDEWAYS",
		Amount:       10,
		CurrencyCode: "USD",
		Sequence:     1,
	}
	_, err := ToDomainLedgerEntry(entry)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)

	entry.Direction = string(domain.Credit)
	_, err = ToDomainPosting(models.Posting{GroupID: "g-1", Kind: "GIFT"}, []models.LedgerEntry{entry})
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)

	p, err := ToDomainPosting(models.Posting{GroupID: "g-1", Kind: string(domain.PostingDeposit)}, []models.LedgerEntry{entry})
	require.NoError(t, err)
	assert.Equal(t, domain.Credit, p.Entries[0].Direction)
}

func TestToDomainTransfer_UnknownStoredValues(t *testing.T) {
	base := models.Transfer{
		TransferID:       "tr-1",
		ReferenceNumber:  "REF1",
		TransferType:     string(domain.TransferInternal),
		SourceAccountID:  "acc-1",
		Amount:           500,
		CurrencyCode:     "USD",
		CreditedAmount:   500,
		CreditedCurrency: "USD",
		Status:           string(domain.TransferPending),
	}
	got, err := ToDomainTransfer(base)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferPending, got.Status)

	badStatus := base
	badStatus.Status = "QUEUED"
	_, err = ToDomainTransfer(badStatus)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)

	badType := base
	badType.TransferType = "SWIFT"
	_, err = ToDomainTransfer(badType)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}
