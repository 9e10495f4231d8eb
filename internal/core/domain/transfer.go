package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransferType is the product a transfer was submitted through.
type TransferType string

const (
	TransferWire     TransferType = "WIRE"
	TransferDomestic TransferType = "DOMESTIC"
	TransferInternal TransferType = "INTERNAL"
	TransferAccount  TransferType = "ACCOUNT"
)

// AllTransferTypes lists every transfer type.
var AllTransferTypes = []TransferType{TransferWire, TransferDomestic, TransferInternal, TransferAccount}

// ParseTransferType rejects values outside the closed set.
func ParseTransferType(s string) (TransferType, error) {
	switch t := TransferType(strings.ToUpper(s)); t {
	case TransferWire, TransferDomestic, TransferInternal, TransferAccount:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transfer type %q", apperrors.ErrValidation, s)
	}
}

// IsExternal reports whether money leaves the bank through a clearing account.
func (t TransferType) IsExternal() bool {
	return t == TransferWire || t == TransferDomestic
}

// TransferStatus is the state of the transfer state machine.
type TransferStatus string

const (
	TransferPending     TransferStatus = "PENDING"
	TransferPinVerified TransferStatus = "PIN_VERIFIED"
	TransferOtpVerified TransferStatus = "OTP_VERIFIED"
	TransferProcessing  TransferStatus = "PROCESSING"
	TransferCompleted   TransferStatus = "COMPLETED"
	TransferFailed      TransferStatus = "FAILED"
	TransferReversed    TransferStatus = "REVERSED"
)

// ParseTransferStatus rejects values outside the closed set.
func ParseTransferStatus(s string) (TransferStatus, error) {
	switch st := TransferStatus(strings.ToUpper(s)); st {
	case TransferPending, TransferPinVerified, TransferOtpVerified, TransferProcessing,
		TransferCompleted, TransferFailed, TransferReversed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown transfer status %q", apperrors.ErrValidation, s)
	}
}

// IsTerminal reports whether no forward transition other than reversal remains.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferCompleted, TransferFailed, TransferReversed:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the transfer state machine.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	switch s {
	case TransferPending:
		return next == TransferPinVerified || next == TransferFailed
	case TransferPinVerified:
		return next == TransferOtpVerified || next == TransferFailed
	case TransferOtpVerified:
		return next == TransferProcessing || next == TransferFailed
	case TransferProcessing:
		return next == TransferCompleted || next == TransferFailed
	case TransferCompleted:
		return next == TransferReversed
	case TransferFailed, TransferReversed:
		return false
	default:
		return false
	}
}

// ExternalBeneficiary identifies a payee outside the bank.
type ExternalBeneficiary struct {
	Name          string `json:"name"`
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber"`
	RoutingCode   string `json:"routingCode,omitempty"`
	SwiftCode     string `json:"swiftCode,omitempty"`
	Country       string `json:"country,omitempty"`
}

// Transfer generalises wire, domestic, internal and account transfers.
type Transfer struct {
	TransferID           string               `json:"transferID"`
	ReferenceNumber      string               `json:"referenceNumber"`
	Type                 TransferType         `json:"type"`
	SourceAccountID      string               `json:"sourceAccountID"`
	DestinationAccountID string               `json:"destinationAccountID,omitempty"`
	Beneficiary          *ExternalBeneficiary `json:"beneficiary,omitempty"`
	Amount               Money                `json:"amount"`
	Fee                  Money                `json:"fee"`
	CreditedAmount       Money                `json:"creditedAmount"`
	ExchangeRate         *decimal.Decimal     `json:"exchangeRate,omitempty"`
	Status               TransferStatus       `json:"status"`
	PinAttempts          int                  `json:"pinAttempts"`
	OtpAttempts          int                  `json:"otpAttempts"`
	FailureReason        string               `json:"failureReason,omitempty"`
	ReversalGroupID      string               `json:"reversalGroupID,omitempty"`
	ReversalReason       string               `json:"reversalReason,omitempty"`
	Narration            string               `json:"narration,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	ProcessingAt         *time.Time           `json:"processingAt,omitempty"` // daily limits count from here
	CompletedAt          *time.Time           `json:"completedAt,omitempty"`
	ReversedAt           *time.Time           `json:"reversedAt,omitempty"`
	Version              int64                `json:"version"`
}

// TransitionTo moves the transfer forward, rejecting anything the state machine forbids.
func (t *Transfer) TransitionTo(next TransferStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = now
	switch next {
	case TransferProcessing:
		t.ProcessingAt = &now
	case TransferCompleted:
		t.CompletedAt = &now
	case TransferReversed:
		t.ReversedAt = &now
	}
	return nil
}

// Fail moves the transfer to FAILED with a reason code.
func (t *Transfer) Fail(reason string, now time.Time) error {
	if err := t.TransitionTo(TransferFailed, now); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// TransferRequest is the input of Submit.
type TransferRequest struct {
	Type                 TransferType
	ReferenceNumber      string
	SourceAccountID      string
	DestinationAccountID string
	Beneficiary          *ExternalBeneficiary
	Amount               Money
	Narration            string
}

// Validate rejects malformed requests before any lock is taken.
func (r TransferRequest) Validate() error {
	if _, err := ParseTransferType(string(r.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ReferenceNumber) == "" {
		return fmt.Errorf("%w: reference number is required", apperrors.ErrValidation)
	}
	if r.SourceAccountID == "" {
		return fmt.Errorf("%w: source account is required", apperrors.ErrValidation)
	}
	if _, err := ParseCurrency(string(r.Amount.Currency)); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if r.Type.IsExternal() {
		if r.Beneficiary == nil || r.Beneficiary.AccountNumber == "" || r.Beneficiary.Name == "" {
			return fmt.Errorf("%w: %s transfers need a beneficiary name and account number", apperrors.ErrValidation, r.Type)
		}
		if r.DestinationAccountID != "" {
			return fmt.Errorf("%w: %s transfers cannot target an internal account", apperrors.ErrValidation, r.Type)
		}
		return nil
	}
	if r.DestinationAccountID == "" {
		return fmt.Errorf("%w: destination account is required", apperrors.ErrValidation)
	}
	if r.DestinationAccountID == r.SourceAccountID {
		return fmt.Errorf("%w: source and destination must differ", apperrors.ErrValidation)
	}
	return nil
}
