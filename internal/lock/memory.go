package lock

import (
	"context"
	"sync"
)

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is a process-local keyed mutex.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryLocker builds an empty locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*memoryEntry)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.unref(key, entry)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, entry *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
