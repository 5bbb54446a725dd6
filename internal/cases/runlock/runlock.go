// Package runlock provides per-case mutual exclusion for pipeline runs.
// Acquisition is single-flight: a second run of the same case is rejected,
// never queued.
package runlock

import (
	"context"
	"sync"

	domainerrors "calibra/pkg/domain-errors"
)

// Locker hands out exclusive per-case run locks. Acquire returns a release
// function on success and a Conflict-coded error when the case is already
// running.
type Locker interface {
	Acquire(ctx context.Context, caseID string) (release func(), err error)
}

// MemoryLocker tracks held locks in a map. Sufficient for a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, caseID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, running := l.held[caseID]; running {
		return nil, domainerrors.Newf(domainerrors.CodeConflict, "case %s is already running", caseID)
	}
	l.held[caseID] = struct{}{}
	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, caseID)
			l.mu.Unlock()
		})
	}
	return release, nil
}
