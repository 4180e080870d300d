package payment

import (
	"sync"
)

// orderLocks serializes local state mutation per merchant order id so a
// concurrent query reconciliation and notification for the same order
// cannot interleave their read-map-write cycles. The gateway itself is
// last-write-wins; this only guards the local row update.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*lockEntry)}
}

// Lock acquires the per-order lock and returns its release function.
// Entries are reference-counted and removed once unused, so the map does
// not grow with order volume.
func (l *orderLocks) Lock(merchOrderID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[merchOrderID]
	if !ok {
		entry = &lockEntry{}
		l.locks[merchOrderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, merchOrderID)
		}
		l.mu.Unlock()
	}
}
