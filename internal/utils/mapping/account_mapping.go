package mapping

import (
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:      d.AccountID,
		OwnerID:        d.OwnerID,
		Kind:           string(d.Kind),
		CurrencyCode:   string(d.Currency),
		Balance:        d.Balance,
		MinimumBalance: d.MinimumBalance,
		Status:         string(d.Status),
		Version:        d.Version,
		ClosedAt:       d.ClosedAt,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account. Unknown kind, status or
// currency values in the row are reported as an integrity fault.
func ToDomainAccount(m models.Account) (domain.Account, error) {
	kind, err := domain.ParseAccountKind(m.Kind)
	if err != nil {
		return domain.Account{}, corruptRow("account", m.AccountID, err)
	}
	status, err := domain.ParseAccountStatus(m.Status)
	if err != nil {
		return domain.Account{}, corruptRow("account", m.AccountID, err)
	}
	currency, err := domain.ParseCurrency(m.CurrencyCode)
	if err != nil {
		return domain.Account{}, corruptRow("account", m.AccountID, err)
	}
	return domain.Account{
		AccountID:      m.AccountID,
		OwnerID:        m.OwnerID,
		Kind:           kind,
		Currency:       currency,
		Balance:        m.Balance,
		MinimumBalance: m.MinimumBalance,
		Status:         status,
		Version:        m.Version,
		ClosedAt:       m.ClosedAt,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) ([]domain.Account, error) {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		d, err := ToDomainAccount(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
