// Package lock provides per-key mutual exclusion for the payment
// reconciler. A Redis-backed locker is used when Redis is configured so
// multiple instances serialize on the same order; a process-local keyed
// mutex covers single-instance deployments.
package lock

import (
	"context"
	"sync"
)

type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// function releases the key and must always be called.
	Acquire(ctx context.Context, key string) (func(), error)
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*keyedEntry),
	}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		entry.ch <- struct{}{}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case <-entry.ch:
		return func() { m.release(key, entry) }, nil
	case <-ctx.Done():
		m.unref(key, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, entry *keyedEntry) {
	entry.ch <- struct{}{}
	m.unref(key, entry)
}

func (m *KeyedMutex) unref(key string, entry *keyedEntry) {
	m.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
