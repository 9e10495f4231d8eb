package domain

import "time"

// Event types published to notification collaborators.
const (
	EventTransferOtpIssued = "transfer.otp_issued"
	EventTransferCompleted = "transfer.completed"
	EventTransferFailed    = "transfer.failed"
	EventTransferReversed  = "transfer.reversed"
	EventHoldForfeited     = "hold.forfeited"
)

// Event is a message for collaborators outside the engine (notifications, reporting).
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}
