package bolt

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

func openTemp(t *testing.T) *IdempotencyRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "idem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestIdempotencyRepository_CreateIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	first, created, err := repo.CreateIdempotencyRecord(ctx, domain.IdempotencyRecord{
		Key: "deposit:r1", ResultStatus: "POSTED", ResultID: "g-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "g-1", first.ResultID)

	second, created, err := repo.CreateIdempotencyRecord(ctx, domain.IdempotencyRecord{
		Key: "deposit:r1", ResultStatus: "POSTED", ResultID: "g-2", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "g-1", second.ResultID, "stored record must win")
}

func TestIdempotencyRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.CreateIdempotencyRecord(ctx, domain.IdempotencyRecord{Key: "transfer:x", ResultStatus: "PENDING", ResultID: "t-1"})
			if err == nil && created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestIdempotencyRepository_UpdateAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idem.db")
	repo, err := Open(path)
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	_, _, err = repo.CreateIdempotencyRecord(ctx, domain.IdempotencyRecord{Key: "transfer:r9", ResultStatus: "PENDING", ResultID: "t-9", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateIdempotencyResult(ctx, "transfer:r9", "COMPLETED", now.Add(time.Minute)))
	require.NoError(t, repo.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.GetIdempotencyRecord(ctx, "transfer:r9")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", rec.ResultStatus)
	assert.True(t, rec.UpdatedAt.Equal(now.Add(time.Minute)))

	_, err = reopened.GetIdempotencyRecord(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, reopened.UpdateIdempotencyResult(ctx, "missing", "X", now), apperrors.ErrNotFound)
}
