package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/clock"
)

// AlreadyCompletedError is returned when a key already has a stored outcome.
type AlreadyCompletedError struct {
	Record domain.IdempotencyRecord
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("idempotency key %q already completed with %s (%s)", e.Record.Key, e.Record.ResultStatus, e.Record.ResultID)
}

func (e *AlreadyCompletedError) Unwrap() error {
	return apperrors.ErrDuplicate
}

// IdempotencyGuard combines a process-local in-flight set with a durable record store.
type IdempotencyGuard struct {
	store repositories.IdempotencyRepository
	clock clock.Clock

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func NewIdempotencyGuard(store repositories.IdempotencyRepository, clk clock.Clock) *IdempotencyGuard {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &IdempotencyGuard{
		store:    store,
		clock:    clk,
		inflight: make(map[string]chan struct{}),
	}
}

// Lease marks a key as in flight until Complete or Release is called.
type Lease struct {
	key   string
	guard *IdempotencyGuard
	once  sync.Once
}

func (l *Lease) Key() string { return l.key }

// TryAcquire claims key without waiting. It returns apperrors.ErrAlreadyInProgress when another
// caller holds the key, and *AlreadyCompletedError when an outcome is already stored.
func (g *IdempotencyGuard) TryAcquire(ctx context.Context, key string) (*Lease, error) {
	lease, _, err := g.tryAcquire(ctx, key)
	return lease, err
}

// Acquire is TryAcquire that waits for an in-flight holder to finish and then re-checks.
func (g *IdempotencyGuard) Acquire(ctx context.Context, key string) (*Lease, error) {
	for {
		lease, wait, err := g.tryAcquire(ctx, key)
		if !errors.Is(err, apperrors.ErrAlreadyInProgress) {
			return lease, err
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (g *IdempotencyGuard) tryAcquire(ctx context.Context, key string) (*Lease, <-chan struct{}, error) {
	if key == "" {
		return nil, nil, fmt.Errorf("%w: idempotency key is required", apperrors.ErrValidation)
	}
	if err := g.completed(ctx, key); err != nil {
		return nil, nil, err
	}

	g.mu.Lock()
	if wait, busy := g.inflight[key]; busy {
		g.mu.Unlock()
		return nil, wait, fmt.Errorf("%w: %s", apperrors.ErrAlreadyInProgress, key)
	}
	g.inflight[key] = make(chan struct{})
	g.mu.Unlock()

	lease := &Lease{key: key, guard: g}
	// a previous holder may have completed between the first check and registering
	if err := g.completed(ctx, key); err != nil {
		lease.Release()
		return nil, nil, err
	}
	return lease, nil, nil
}

func (g *IdempotencyGuard) completed(ctx context.Context, key string) error {
	rec, err := g.store.GetIdempotencyRecord(ctx, key)
	switch {
	case err == nil:
		return &AlreadyCompletedError{Record: *rec}
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to read idempotency record %s: %w", key, err)
	}
}

// Complete stores the outcome (create-if-absent) and releases the key.
// The stored record is returned; it differs from the arguments only if another process won.
func (l *Lease) Complete(ctx context.Context, resultStatus, resultID string) (*domain.IdempotencyRecord, error) {
	defer l.Release()
	now := l.guard.clock.Now()
	rec, _, err := l.guard.store.CreateIdempotencyRecord(ctx, domain.IdempotencyRecord{
		Key:          l.key,
		ResultStatus: resultStatus,
		ResultID:     resultID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store idempotency record %s: %w", l.key, err)
	}
	return rec, nil
}

// Release frees the key without recording an outcome, so the operation stays retryable.
func (l *Lease) Release() {
	l.once.Do(func() {
		g := l.guard
		g.mu.Lock()
		if wait, ok := g.inflight[l.key]; ok {
			delete(g.inflight, l.key)
			close(wait)
		}
		g.mu.Unlock()
	})
}

// UpdateResult records a later terminal status for a completed key.
func (g *IdempotencyGuard) UpdateResult(ctx context.Context, key, resultStatus string) error {
	if err := g.store.UpdateIdempotencyResult(ctx, key, resultStatus, g.clock.Now()); err != nil {
		return fmt.Errorf("failed to update idempotency record %s: %w", key, err)
	}
	return nil
}
