package booking

import (
	"context"
	"sync"
)

// Locker serializes writers per key. Create and delete hold the lock of the
// resource they touch for the whole check-then-write sequence.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// localLocker is a keyed mutex for a single process. Entries are dropped once
// nobody holds or waits for them.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*keyedLock)}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *localLocker) release(key string, kl *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
