package limiter

import (
	"context"
	"sync"
	"time"
)

type memKey struct {
	username string
	peer     string
}

type memEntry struct {
	fails        int
	updated      time.Time
	blockedUntil time.Time
}

// Memory is an in-process Limiter with the same policy semantics as PG.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	entries map[memKey]*memEntry
}

// NewMemory constructs an in-memory limiter. A zero policy means DefaultPolicy.
func NewMemory(p Policy) *Memory {
	if p.MaxFailures <= 0 {
		p = DefaultPolicy
	}
	return &Memory{policy: p, now: time.Now, entries: map[memKey]*memEntry{}}
}

// Allow reports whether a login attempt may proceed, and how long to wait if not.
func (m *Memory) Allow(_ context.Context, username string, peer []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memKey{username, string(peer)}]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success clears the failure count.
func (m *Memory) Success(_ context.Context, username string, peer []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memKey{username, string(peer)})
	return nil
}

// Failure counts a failed attempt and reports whether the pair is now blocked.
func (m *Memory) Failure(_ context.Context, username string, peer []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{username, string(peer)}
	now := m.now()
	e, ok := m.entries[k]
	if !ok || now.Sub(e.updated) > m.policy.Window {
		e = &memEntry{}
		m.entries[k] = e
	}
	e.fails++
	e.updated = now
	if e.fails < m.policy.MaxFailures {
		return false, 0, nil
	}
	e.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}
