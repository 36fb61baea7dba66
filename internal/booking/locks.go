package booking

import "sync"

// dateLocks serializes attempts that touch the same calendar date. Entries are
// dropped once nobody holds or waits on them.
type dateLocks struct {
	mu    sync.Mutex
	locks map[string]*dateLock
}

type dateLock struct {
	mu      sync.Mutex
	waiters int
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[string]*dateLock)}
}

func (l *dateLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	dl := l.locks[key]
	if dl == nil {
		dl = &dateLock{}
		l.locks[key] = dl
	}
	dl.waiters++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()

		l.mu.Lock()
		dl.waiters--
		if dl.waiters == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *dateLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
