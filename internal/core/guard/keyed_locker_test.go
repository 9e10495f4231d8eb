package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker_SerializesSameKey(t *testing.T) {
	l := guard.NewKeyedLocker()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "acct")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestKeyedLocker_LockAllOppositeOrderDoesNotDeadlock(t *testing.T) {
	l := guard.NewKeyedLocker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := l.LockAll(ctx, "A", "B")
			if !assert.NoError(t, err) {
				return
			}
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock, err := l.LockAll(ctx, "B", "A", "B")
			if !assert.NoError(t, err) {
				return
			}
			unlock()
		}()
	}
	wg.Wait()
}

func TestKeyedLocker_ContextCancelled(t *testing.T) {
	l := guard.NewKeyedLocker()
	unlock, err := l.Lock(context.Background(), "A")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.LockAll(ctx, "B", "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// B must have been released after the failed LockAll
	unlockB, err := l.Lock(context.Background(), "B")
	require.NoError(t, err)
	unlockB()

	unlock()
	unlock() // second call is a no-op
	unlockA, err := l.Lock(context.Background(), "A")
	require.NoError(t, err)
	unlockA()
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, guard.SortedUnique([]string{"c", "a", "b", "a"}))
}
