package mapping

import (
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
)

// ToModelHold converts a domain Hold to a model Hold
func ToModelHold(d domain.Hold) models.Hold {
	return models.Hold{
		HoldID:         d.HoldID,
		AccountID:      d.AccountID,
		Amount:         d.Amount.Amount,
		CurrencyCode:   string(d.Amount.Currency),
		Kind:           string(d.Kind),
		Reason:         nullString(d.Reason),
		ReleaseAt:      d.ReleaseAt,
		Status:         string(d.Status),
		SourceGroupID:  nullString(d.SourceGroupID),
		ForfeitGroupID: nullString(d.ForfeitGroupID),
		CreatedAt:      d.CreatedAt,
		ResolvedAt:     d.ResolvedAt,
	}
}

// ToDomainHold converts a model Hold to a domain Hold
func ToDomainHold(m models.Hold) (domain.Hold, error) {
	kind, err := domain.ParseHoldKind(m.Kind)
	if err != nil {
		return domain.Hold{}, corruptRow("hold", m.HoldID, err)
	}
	status, err := domain.ParseHoldStatus(m.Status)
	if err != nil {
		return domain.Hold{}, corruptRow("hold", m.HoldID, err)
	}
	currency, err := domain.ParseCurrency(m.CurrencyCode)
	if err != nil {
		return domain.Hold{}, corruptRow("hold", m.HoldID, err)
	}
	return domain.Hold{
		HoldID:         m.HoldID,
		AccountID:      m.AccountID,
		Amount:         domain.Money{Amount: m.Amount, Currency: currency},
		Kind:           kind,
		Reason:         m.Reason.String,
		ReleaseAt:      m.ReleaseAt,
		Status:         status,
		SourceGroupID:  m.SourceGroupID.String,
		ForfeitGroupID: m.ForfeitGroupID.String,
		CreatedAt:      m.CreatedAt,
		ResolvedAt:     m.ResolvedAt,
	}, nil
}

// ToDomainHoldSlice converts a slice of model Holds to a slice of domain Holds
func ToDomainHoldSlice(ms []models.Hold) ([]domain.Hold, error) {
	ds := make([]domain.Hold, len(ms))
	for i, m := range ms {
		d, err := ToDomainHold(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// ToDomainIdempotencyRecord converts a model IdempotencyRecord to its domain form
func ToDomainIdempotencyRecord(m models.IdempotencyRecord) domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		Key:          m.Key,
		ResultStatus: m.ResultStatus,
		ResultID:     m.ResultID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
