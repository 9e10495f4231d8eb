package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelTransfer converts a domain Transfer to a model Transfer
func ToModelTransfer(d domain.Transfer) (models.Transfer, error) {
	m := models.Transfer{
		TransferID:           d.TransferID,
		ReferenceNumber:      d.ReferenceNumber,
		TransferType:         string(d.Type),
		SourceAccountID:      d.SourceAccountID,
		DestinationAccountID: nullString(d.DestinationAccountID),
		Amount:               d.Amount.Amount,
		CurrencyCode:         string(d.Amount.Currency),
		Fee:                  d.Fee.Amount,
		CreditedAmount:       d.CreditedAmount.Amount,
		CreditedCurrency:     string(d.CreditedAmount.Currency),
		Status:               string(d.Status),
		PinAttempts:          d.PinAttempts,
		OtpAttempts:          d.OtpAttempts,
		FailureReason:        nullString(d.FailureReason),
		ReversalGroupID:      nullString(d.ReversalGroupID),
		ReversalReason:       nullString(d.ReversalReason),
		Narration:            nullString(d.Narration),
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
		ProcessingAt:         d.ProcessingAt,
		CompletedAt:          d.CompletedAt,
		ReversedAt:           d.ReversedAt,
		Version:              d.Version,
	}
	if d.ExchangeRate != nil {
		m.ExchangeRate = decimal.NullDecimal{Decimal: *d.ExchangeRate, Valid: true}
	}
	if d.Beneficiary != nil {
		raw, err := json.Marshal(d.Beneficiary)
		if err != nil {
			return models.Transfer{}, fmt.Errorf("failed to encode beneficiary: %w", err)
		}
		m.Beneficiary = raw
	}
	return m, nil
}

// ToDomainTransfer converts a model Transfer to a domain Transfer
func ToDomainTransfer(m models.Transfer) (domain.Transfer, error) {
	transferType, err := domain.ParseTransferType(m.TransferType)
	if err != nil {
		return domain.Transfer{}, corruptRow("transfer", m.TransferID, err)
	}
	status, err := domain.ParseTransferStatus(m.Status)
	if err != nil {
		return domain.Transfer{}, corruptRow("transfer", m.TransferID, err)
	}
	currency, err := domain.ParseCurrency(m.CurrencyCode)
	if err != nil {
		return domain.Transfer{}, corruptRow("transfer", m.TransferID, err)
	}
	credited, err := domain.ParseCurrency(m.CreditedCurrency)
	if err != nil {
		return domain.Transfer{}, corruptRow("transfer", m.TransferID, err)
	}
	d := domain.Transfer{
		TransferID:           m.TransferID,
		ReferenceNumber:      m.ReferenceNumber,
		Type:                 transferType,
		SourceAccountID:      m.SourceAccountID,
		DestinationAccountID: m.DestinationAccountID.String,
		Amount:               domain.Money{Amount: m.Amount, Currency: currency},
		Fee:                  domain.Money{Amount: m.Fee, Currency: currency},
		CreditedAmount:       domain.Money{Amount: m.CreditedAmount, Currency: credited},
		Status:               status,
		PinAttempts:          m.PinAttempts,
		OtpAttempts:          m.OtpAttempts,
		FailureReason:        m.FailureReason.String,
		ReversalGroupID:      m.ReversalGroupID.String,
		ReversalReason:       m.ReversalReason.String,
		Narration:            m.Narration.String,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		ProcessingAt:         m.ProcessingAt,
		CompletedAt:          m.CompletedAt,
		ReversedAt:           m.ReversedAt,
		Version:              m.Version,
	}
	if m.ExchangeRate.Valid {
		rate := m.ExchangeRate.Decimal
		d.ExchangeRate = &rate
	}
	if len(m.Beneficiary) > 0 {
		var b domain.ExternalBeneficiary
		if err := json.Unmarshal(m.Beneficiary, &b); err != nil {
			return domain.Transfer{}, fmt.Errorf("failed to decode beneficiary of %s: %w", m.TransferID, err)
		}
		d.Beneficiary = &b
	}
	return d, nil
}

// ToModelOTP converts a domain OTP to a model TransferOTP
func ToModelOTP(d domain.OTP) models.TransferOTP {
	return models.TransferOTP{
		OtpID:      d.OtpID,
		TransferID: d.TransferID,
		CodeHash:   d.CodeHash,
		ExpiresAt:  d.ExpiresAt,
		UsedAt:     d.UsedAt,
		CreatedAt:  d.CreatedAt,
	}
}

// ToDomainOTP converts a model TransferOTP to a domain OTP
func ToDomainOTP(m models.TransferOTP) domain.OTP {
	return domain.OTP{
		OtpID:      m.OtpID,
		TransferID: m.TransferID,
		CodeHash:   m.CodeHash,
		ExpiresAt:  m.ExpiresAt,
		UsedAt:     m.UsedAt,
		CreatedAt:  m.CreatedAt,
	}
}
