package dto

import (
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// PlaceHoldRequest reserves funds on an account.
type PlaceHoldRequest struct {
	Amount    MoneyDTO   `json:"amount" binding:"required"`
	Reason    string     `json:"reason" binding:"required,max=256"`
	ReleaseAt *time.Time `json:"releaseAt"` // Optional, holds without it stay until released
}

func (r PlaceHoldRequest) ToParams(accountID string) domain.HoldParams {
	return domain.HoldParams{
		AccountID: accountID,
		Amount:    r.Amount.ToDomain(),
		Kind:      domain.HoldReservation,
		Reason:    r.Reason,
		ReleaseAt: r.ReleaseAt,
	}
}

// ForfeitHoldRequest explains why a provisional credit is taken back.
type ForfeitHoldRequest struct {
	Reason string `json:"reason" binding:"required,max=256"`
}

// SweepHoldsRequest bounds one sweep run.
type SweepHoldsRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// SweepHoldsResponse reports how many holds were released.
type SweepHoldsResponse struct {
	Released int `json:"released"`
}

type HoldResponse struct {
	HoldID         string     `json:"holdID"`
	AccountID      string     `json:"accountID"`
	Amount         MoneyDTO   `json:"amount"`
	Kind           string     `json:"kind"`
	Reason         string     `json:"reason"`
	ReleaseAt      *time.Time `json:"releaseAt,omitempty"`
	Status         string     `json:"status"`
	SourceGroupID  string     `json:"sourceGroupID,omitempty"`
	ForfeitGroupID string     `json:"forfeitGroupID,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

func ToHoldResponse(h *domain.Hold) HoldResponse {
	return HoldResponse{
		HoldID:         h.HoldID,
		AccountID:      h.AccountID,
		Amount:         ToMoneyDTO(h.Amount),
		Kind:           string(h.Kind),
		Reason:         h.Reason,
		ReleaseAt:      h.ReleaseAt,
		Status:         string(h.Status),
		SourceGroupID:  h.SourceGroupID,
		ForfeitGroupID: h.ForfeitGroupID,
		CreatedAt:      h.CreatedAt,
		ResolvedAt:     h.ResolvedAt,
	}
}

func ToHoldResponses(holds []domain.Hold) []HoldResponse {
	res := make([]HoldResponse, len(holds))
	for i := range holds {
		res[i] = ToHoldResponse(&holds[i])
	}
	return res
}
