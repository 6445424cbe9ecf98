// Package keylock provides mutual exclusion keyed by string, with entries
// released once no goroutine holds or waits for them.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Map is a set of named locks. The zero value is ready to use.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func (m *Map) acquireRef(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]*entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Map) releaseRef(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Lock blocks until key is held and returns the function that releases it.
// The release function must be called exactly once.
func (m *Map) Lock(key string) func() {
	e := m.acquireRef(key)
	e.sem <- struct{}{}
	return m.unlocker(key, e)
}

// LockContext is Lock that gives up when ctx is done.
func (m *Map) LockContext(ctx context.Context, key string) (func(), error) {
	e := m.acquireRef(key)
	select {
	case e.sem <- struct{}{}:
		return m.unlocker(key, e), nil
	case <-ctx.Done():
		m.releaseRef(key, e)
		return nil, ctx.Err()
	}
}

func (m *Map) unlocker(key string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.releaseRef(key, e)
		})
	}
}

// Len reports the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
