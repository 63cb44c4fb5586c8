package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLocksOppositeOrderDoesNotDeadlock(t *testing.T) {
	locks := newUserLocks()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(ctx, 1, 2)
			if assert.NoError(t, err) {
				release()
			}
		}()
		go func() {
			defer wg.Done()
			release, err := locks.acquire(ctx, 2, 1)
			if assert.NoError(t, err) {
				release()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, locks.size())
}

func TestUserLocksHonourContext(t *testing.T) {
	locks := newUserLocks()
	release, err := locks.acquire(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, 3, 7)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Lock 3 was taken then given back; only 7 is still tracked.
	assert.Equal(t, 1, locks.size())
	release()
	assert.Equal(t, 0, locks.size())
}

func TestUserLocksDuplicateIDs(t *testing.T) {
	locks := newUserLocks()
	release, err := locks.acquire(context.Background(), 4, 4)
	require.NoError(t, err)
	release()
	assert.Equal(t, 0, locks.size())
}
