package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

// IdempotencyRepository stores the durable outcome of idempotent operations.
type IdempotencyRepository interface {
	// GetIdempotencyRecord returns apperrors.ErrNotFound when the key was never completed.
	GetIdempotencyRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error)

	// CreateIdempotencyRecord inserts the record unless the key exists. It returns the stored
	// record and whether this call created it.
	CreateIdempotencyRecord(ctx context.Context, record domain.IdempotencyRecord) (*domain.IdempotencyRecord, bool, error)

	// UpdateIdempotencyResult records a later status for an existing key.
	UpdateIdempotencyResult(ctx context.Context, key string, resultStatus string, now time.Time) error
}
