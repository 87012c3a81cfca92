package deploy

import "sync"

// LockManager hands out named mutexes so overlapping builds of the same
// featured mod cannot race on file placement. The outer mutex only
// protects the map; each key has its own lock, so deployments of
// different mods proceed concurrently.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockManager creates an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the lock for key is held.
func (lm *LockManager) Lock(key string) {
	lm.mu.Lock()
	lock, exists := lm.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		lm.locks[key] = lock
	}
	lm.mu.Unlock()

	lock.Lock()
}

// Unlock releases the lock for key. Typically deferred after Lock.
func (lm *LockManager) Unlock(key string) {
	lm.mu.Lock()
	lock := lm.locks[key]
	lm.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}
