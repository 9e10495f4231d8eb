package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// OpenAccountRequest defines the data needed to open a customer account.
type OpenAccountRequest struct {
	AccountID           string `json:"accountID"` // Optional, generated when empty
	OwnerID             string `json:"ownerID" binding:"required"`
	Currency            string `json:"currency" binding:"required,currency"`
	MinimumBalanceMinor int64  `json:"minimumBalanceMinor" binding:"gte=0"`
}

// ToParams converts the request into service params.
func (r OpenAccountRequest) ToParams(actorID string) domain.OpenAccountParams {
	return domain.OpenAccountParams{
		AccountID:      r.AccountID,
		OwnerID:        r.OwnerID,
		Kind:           domain.AccountKindCustomer,
		Currency:       domain.Currency(strings.ToUpper(r.Currency)),
		MinimumBalance: r.MinimumBalanceMinor,
		ActorID:        actorID,
	}
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID           string     `json:"accountID"`
	OwnerID             string     `json:"ownerID"`
	Kind                string     `json:"kind"`
	Currency            string     `json:"currency"`
	BalanceMinor        int64      `json:"balanceMinor"`
	MinimumBalanceMinor *int64     `json:"minimumBalanceMinor,omitempty"` // absent for unbounded settlement accounts
	Status              string     `json:"status"`
	Version             int64      `json:"version"`
	ClosedAt            *time.Time `json:"closedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	CreatedBy           string     `json:"createdBy"`
	LastUpdatedAt       time.Time  `json:"lastUpdatedAt"`
	LastUpdatedBy       string     `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	res := AccountResponse{
		AccountID:     acc.AccountID,
		OwnerID:       acc.OwnerID,
		Kind:          string(acc.Kind),
		Currency:      string(acc.Currency),
		BalanceMinor:  acc.Balance,
		Status:        string(acc.Status),
		Version:       acc.Version,
		ClosedAt:      acc.ClosedAt,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
	if acc.MinimumBalance != domain.UnboundedMinimum {
		minimum := acc.MinimumBalance
		res.MinimumBalanceMinor = &minimum
	}
	return res
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc) // Reuse the single converter
	}
	return res
}

// BalanceResponse reports the raw and available balance of an account.
type BalanceResponse struct {
	AccountID      string `json:"accountID"`
	Currency       string `json:"currency"`
	BalanceMinor   int64  `json:"balanceMinor"`
	AvailableMinor int64  `json:"availableMinor"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	OwnerID string `form:"ownerID" binding:"required"`
}

// SetPinRequest carries a new transfer PIN.
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required,numeric,min=4,max=6"`
}
