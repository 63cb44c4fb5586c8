package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	_, ok, err := store.Take(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, 1, WithdrawalRequested))
	state, ok, err := store.Take(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, WithdrawalRequested, state)

	_, ok, err = store.Take(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, 2, WithdrawalRequested))
	require.NoError(t, store.Clear(ctx, 2))
	_, ok, err = store.Take(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testTakeOnce(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 5, WithdrawalRequested))

	var (
		wg    sync.WaitGroup
		taken atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Take(ctx, 5)
			if assert.NoError(t, err) && ok {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), taken.Load())
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore(time.Minute))
	testTakeOnce(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(context.Background(), 1, WithdrawalRequested))
	now = now.Add(2 * time.Minute)

	_, ok, err := store.Take(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	testStoreContract(t, store)

	store, _ = newRedisStore(t, time.Minute)
	testTakeOnce(t, store)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, WithdrawalRequested))
	assert.True(t, mr.Exists("session:1"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Take(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	mr.Close()

	_, _, err := store.Take(context.Background(), 1)
	require.Error(t, err)
	require.Error(t, store.Set(context.Background(), 1, WithdrawalRequested))
	require.Error(t, store.Clear(context.Background(), 1))
}
