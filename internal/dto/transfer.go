package dto

import (
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// BeneficiaryDTO identifies the receiver of a wire or domestic transfer.
type BeneficiaryDTO struct {
	Name          string `json:"name" binding:"required"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	RoutingCode   string `json:"routingCode"`
	SwiftCode     string `json:"swiftCode"`
	Country       string `json:"country" binding:"omitempty,len=2"`
}

// SubmitTransferRequest creates a PENDING transfer.
type SubmitTransferRequest struct {
	Type                 string          `json:"type" binding:"required,oneof=WIRE DOMESTIC INTERNAL ACCOUNT"`
	ReferenceNumber      string          `json:"referenceNumber" binding:"required,max=128"`
	SourceAccountID      string          `json:"sourceAccountID" binding:"required"`
	DestinationAccountID string          `json:"destinationAccountID"`
	Beneficiary          *BeneficiaryDTO `json:"beneficiary"`
	Amount               MoneyDTO        `json:"amount" binding:"required"`
	Narration            string          `json:"narration" binding:"max=256"`
}

func (r SubmitTransferRequest) ToDomain() domain.TransferRequest {
	req := domain.TransferRequest{
		Type:                 domain.TransferType(r.Type),
		ReferenceNumber:      r.ReferenceNumber,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount.ToDomain(),
		Narration:            r.Narration,
	}
	if r.Beneficiary != nil {
		req.Beneficiary = &domain.ExternalBeneficiary{
			Name:          r.Beneficiary.Name,
			BankName:      r.Beneficiary.BankName,
			AccountNumber: r.Beneficiary.AccountNumber,
			RoutingCode:   r.Beneficiary.RoutingCode,
			SwiftCode:     r.Beneficiary.SwiftCode,
			Country:       r.Beneficiary.Country,
		}
	}
	return req
}

type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

type VerifyOtpRequest struct {
	Code string `json:"code" binding:"required,numeric,len=6"`
}

// ReasonRequest carries the free-text reason of a cancel or reversal.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=256"`
}

// ListTransfersParams defines query parameters for listing an account's transfers.
type ListTransfersParams struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

type TransferResponse struct {
	TransferID           string                      `json:"transferID"`
	ReferenceNumber      string                      `json:"referenceNumber"`
	Type                 string                      `json:"type"`
	SourceAccountID      string                      `json:"sourceAccountID"`
	DestinationAccountID string                      `json:"destinationAccountID,omitempty"`
	Beneficiary          *domain.ExternalBeneficiary `json:"beneficiary,omitempty"`
	Amount               MoneyDTO                    `json:"amount"`
	Fee                  MoneyDTO                    `json:"fee"`
	CreditedAmount       MoneyDTO                    `json:"creditedAmount"`
	ExchangeRate         string                      `json:"exchangeRate,omitempty"`
	Status               string                      `json:"status"`
	FailureReason        string                      `json:"failureReason,omitempty"`
	ReversalGroupID      string                      `json:"reversalGroupID,omitempty"`
	ReversalReason       string                      `json:"reversalReason,omitempty"`
	Narration            string                      `json:"narration,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
	ProcessingAt         *time.Time                  `json:"processingAt,omitempty"`
	CompletedAt          *time.Time                  `json:"completedAt,omitempty"`
	ReversedAt           *time.Time                  `json:"reversedAt,omitempty"`
}

func ToTransferResponse(t *domain.Transfer) TransferResponse {
	res := TransferResponse{
		TransferID:           t.TransferID,
		ReferenceNumber:      t.ReferenceNumber,
		Type:                 string(t.Type),
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Beneficiary:          t.Beneficiary,
		Amount:               ToMoneyDTO(t.Amount),
		Fee:                  ToMoneyDTO(t.Fee),
		CreditedAmount:       ToMoneyDTO(t.CreditedAmount),
		Status:               string(t.Status),
		FailureReason:        t.FailureReason,
		ReversalGroupID:      t.ReversalGroupID,
		ReversalReason:       t.ReversalReason,
		Narration:            t.Narration,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		ProcessingAt:         t.ProcessingAt,
		CompletedAt:          t.CompletedAt,
		ReversedAt:           t.ReversedAt,
	}
	if t.ExchangeRate != nil {
		res.ExchangeRate = t.ExchangeRate.String()
	}
	return res
}

func ToTransferResponses(transfers []domain.Transfer) []TransferResponse {
	res := make([]TransferResponse, len(transfers))
	for i := range transfers {
		res[i] = ToTransferResponse(&transfers[i])
	}
	return res
}
