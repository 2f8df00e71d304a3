package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDateLocker(t *testing.T) {
	locker := NewMemoryDateLocker()
	ctx := context.Background()

	t.Run("ExclusivePerKey", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "2025-06-03")
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, "2025-06-03")
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		unlock2, err := locker.Lock(ctx, "2025-06-03")
		require.NoError(t, err)
		unlock2()
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, "2025-06-03")
		require.NoError(t, err)
		defer unlockA()

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		unlockB, err := locker.Lock(waitCtx, "2025-06-05")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("UnlockIsIdempotent", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "2025-06-10")
		require.NoError(t, err)
		unlock()
		unlock()

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		again, err := locker.Lock(waitCtx, "2025-06-10")
		require.NoError(t, err)
		again()
	})

	t.Run("EntriesAreFreed", func(t *testing.T) {
		l := NewMemoryDateLocker()
		unlock, err := l.Lock(ctx, "2025-06-12")
		require.NoError(t, err)
		assert.Equal(t, 1, l.Len())
		unlock()
		assert.Equal(t, 0, l.Len())
	})

	t.Run("SerializesCriticalSection", func(t *testing.T) {
		l := NewMemoryDateLocker()
		var (
			wg      sync.WaitGroup
			inside  int
			maxSeen int
			mu      sync.Mutex
		)

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := l.Lock(ctx, "day")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
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

		assert.Equal(t, 1, maxSeen)
		assert.Equal(t, 0, l.Len())
	})
}
