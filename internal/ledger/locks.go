package ledger

import (
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// idLocks serializes mutations per transaction id. Different ids never wait on each other.
type idLocks struct {
	locks map[model.ID]*idLock
	mu    sync.Mutex
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func newIDLocks() *idLocks {
	return &idLocks{locks: make(map[model.ID]*idLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *idLocks) lock(id model.ID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &idLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *idLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
