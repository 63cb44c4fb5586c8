package ledger

import (
	"context"
	"slices"
	"sync"
)

// userLocks serializes mutations per user ID inside one process. Locks are
// created on demand and dropped when nobody holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

// acquire locks every id in ascending order, so two callers sharing a pair of
// users cannot wait on each other. The returned func releases all of them.
func (l *userLocks) acquire(ctx context.Context, ids ...int64) (func(), error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]int64, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, id := range ids {
		lk := l.ref(id)
		select {
		case lk.ch <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.unref(id)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (l *userLocks) ref(id int64) *userLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &userLock{ch: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	return lk
}

func (l *userLocks) unref(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk := l.locks[id]
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *userLocks) unlock(id int64) {
	l.mu.Lock()
	lk := l.locks[id]
	l.mu.Unlock()
	<-lk.ch
	l.unref(id)
}

// size reports how many user locks are currently tracked.
func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
