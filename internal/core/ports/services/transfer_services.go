package services

import (
	"context"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// TransferWorkflowSvc drives a transfer through its state machine.
type TransferWorkflowSvc interface {
	// Submit creates a PENDING transfer. Repeating a reference returns the original transfer.
	Submit(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error)

	VerifyPin(ctx context.Context, transferID, pin string, policy domain.TransferPolicy) (*domain.Transfer, error)

	// ResendOtp issues a fresh code for a PIN_VERIFIED transfer whose last code expired.
	ResendOtp(ctx context.Context, transferID string, policy domain.TransferPolicy) (*domain.Transfer, error)

	// VerifyOtp settles the transfer once the code checks out. On a business failure the
	// FAILED transfer is returned together with the cause.
	VerifyOtp(ctx context.Context, transferID, code string, policy domain.TransferPolicy) (*domain.Transfer, error)

	// Resume re-drives a transfer left in PROCESSING.
	Resume(ctx context.Context, transferID string, policy domain.TransferPolicy) (*domain.Transfer, error)

	Cancel(ctx context.Context, transferID, reason string) (*domain.Transfer, error)
	Reverse(ctx context.Context, transferID, reason string) (*domain.Transfer, error)
}

// TransferReaderSvc defines read operations for transfers
type TransferReaderSvc interface {
	Status(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transfer, error)
}

// TransferSvcFacade combines all transfer-related service interfaces
type TransferSvcFacade interface {
	TransferWorkflowSvc
	TransferReaderSvc
}
