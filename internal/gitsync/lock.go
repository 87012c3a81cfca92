package gitsync

import "sync"

// pathLocks serializes git operations per local working copy. Two
// concurrent syncs against the same path would interleave clone, fetch
// and checkout and corrupt each other's working directory; syncs against
// different paths proceed concurrently.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the lock for path is held and returns it so the
// caller can defer the unlock.
func (p *pathLocks) acquire(path string) *sync.Mutex {
	p.mu.Lock()
	lock, exists := p.locks[path]
	if !exists {
		lock = &sync.Mutex{}
		p.locks[path] = lock
	}
	p.mu.Unlock()

	lock.Lock()
	return lock
}
