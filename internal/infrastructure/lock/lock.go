// Package lock serializes mutations of one user's progress inside a process.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// KeyedMutex hands out one lock per user id. Entries are reference counted
// and dropped when the last waiter releases, so the map does not grow with
// the number of users ever seen.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*entry)}
}

// Lock blocks until userID's lock is held or ctx is done.
// The returned func releases the lock; it is safe to call more than once.
func (k *KeyedMutex) Lock(ctx context.Context, userID int64) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[userID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[userID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(userID, e)
		return nil, shared.WrapError("lock", "Lock", shared.ErrLockNotAcquired,
			fmt.Sprintf("user %d is busy", userID), ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(userID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(userID int64, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, userID)
	}
}

// Len returns the number of users currently holding or waiting for a lock.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// Noop never blocks. Used when the store serializes writes itself.
type Noop struct{}

// Lock returns immediately.
func (Noop) Lock(context.Context, int64) (func(), error) {
	return func() {}, nil
}
