package dto

import (
	"strings"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// MoneyDTO is an amount in minor units with its currency.
type MoneyDTO struct {
	AmountMinor int64  `json:"amountMinor" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,currency"`
}

func (m MoneyDTO) ToDomain() domain.Money {
	return domain.Money{Amount: m.AmountMinor, Currency: domain.Currency(strings.ToUpper(m.Currency))}
}

func ToMoneyDTO(m domain.Money) MoneyDTO {
	return MoneyDTO{AmountMinor: m.Amount, Currency: string(m.Currency)}
}

// CashMovementRequest is the body of deposits, withdrawals and check deposits.
type CashMovementRequest struct {
	Amount    MoneyDTO `json:"amount" binding:"required"`
	Reference string   `json:"reference" binding:"required,max=128"`
	Memo      string   `json:"memo" binding:"max=256"`
}

func (r CashMovementRequest) ToDomain(accountID string) domain.CashMovement {
	return domain.CashMovement{
		AccountID: accountID,
		Amount:    r.Amount.ToDomain(),
		Reference: r.Reference,
		Memo:      r.Memo,
	}
}
