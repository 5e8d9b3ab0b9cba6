package services

import "sync"

// assetLocks serializes match-then-commit sequences per asset. Reads
// and writes for different assets proceed without contention; two
// submissions racing on the same asset are forced to run one after the
// other, so the second always observes the first's occurrence as a
// duplicate candidate instead of creating an independent sibling.
//
// One mutex is kept per asset that has ever been submitted against;
// the map is bounded by the size of the asset catalog.
type assetLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newAssetLocks() *assetLocks {
	return &assetLocks{locks: make(map[uint]*sync.Mutex)}
}

// Lock acquires the per-asset mutex and returns its unlock function
func (l *assetLocks) Lock(assetID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[assetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[assetID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
