// Package keyedlock provides one mutex per string key, for serializing
// operations on a single aggregate without a global lock.
package keyedlock

import "sync"

// Locks hands out one mutex per key. The zero value is ready to use.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Acquire locks the key's mutex, creating it on first use, and returns the
// unlock function.
func (l *Locks) Acquire(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
