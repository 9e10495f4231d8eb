package domain

import "time"

// IdempotencyRecord stores the outcome of an operation keyed by a client reference.
type IdempotencyRecord struct {
	Key          string    `json:"key"`
	ResultStatus string    `json:"resultStatus"`
	ResultID     string    `json:"resultID"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
