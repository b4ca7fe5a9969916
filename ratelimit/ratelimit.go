// Package ratelimit implements fixed-window request limiting keyed by an
// identifier such as a user id or client IP.
//
// Counters live behind the Store interface. Memory keeps them in process and
// is the default; Redis shares them between instances.
package ratelimit

import (
	"context"
	"time"
)

// Policy bounds how many requests a key may make per window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Named policies used by the application.
var (
	Login     = Policy{Limit: 5, Window: time.Minute}
	AdminAPI  = Policy{Limit: 100, Window: time.Minute}
	PublicAPI = Policy{Limit: 200, Window: time.Minute}
)

// Result is the outcome of a single check.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetIn is the number of whole seconds until the window resets.
	ResetIn int
}

// Store records a hit for key under policy and reports whether it is allowed.
type Store interface {
	Take(ctx context.Context, key string, p Policy) (Result, error)
}

// Limiter applies one policy to identifiers under a key prefix.
type Limiter struct {
	store  Store
	policy Policy
	prefix string
}

// New returns a Limiter storing counters as "<prefix>:<id>".
func New(store Store, prefix string, p Policy) *Limiter {
	return &Limiter{store: store, policy: p, prefix: prefix}
}

// Allow records a request from id.
func (l *Limiter) Allow(ctx context.Context, id string) (Result, error) {
	return l.store.Take(ctx, l.prefix+":"+id, l.policy)
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// secondsUntil rounds d up to whole seconds.
func secondsUntil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
