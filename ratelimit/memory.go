package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory is an in-process Store. It does not coordinate across instances.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*window
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Take implements Store. A missing or expired entry opens a fresh window with
// count 1. Denied requests do not increment the count.
func (m *Memory) Take(_ context.Context, key string, p Policy) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.entries[key]
	if !ok || !now.Before(w.resetAt) {
		m.entries[key] = &window{count: 1, resetAt: now.Add(p.Window)}
		return Result{
			Allowed:   true,
			Remaining: p.Limit - 1,
			ResetIn:   secondsUntil(p.Window),
		}, nil
	}

	resetIn := secondsUntil(w.resetAt.Sub(now))
	if w.count >= p.Limit {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}
	w.count++
	return Result{
		Allowed:   true,
		Remaining: p.Limit - w.count,
		ResetIn:   resetIn,
	}, nil
}

// Sweep removes expired windows and returns how many were dropped.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, w := range m.entries {
		if !now.Before(w.resetAt) {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

// Len reports the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StartSweeper runs Sweep every interval until the returned func is called.
func (m *Memory) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
