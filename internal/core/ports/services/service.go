package services

import (
	"context"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Ledger   LedgerSvcFacade
	Account  AccountSvcFacade
	Transfer TransferSvcFacade
	Hold     HoldSvcFacade
}

// EventPublisher hands events to notification and reporting collaborators.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
