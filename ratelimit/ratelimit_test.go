package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory() (*Memory, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = c.now
	return m, c
}

func TestMemoryBlocksAfterLimit(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	p := Policy{Limit: 5, Window: 60 * time.Second}

	for i := 1; i <= 5; i++ {
		res, err := m.Take(ctx, "login:203.0.113.10", p)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d should be allowed", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := m.Take(ctx, "login:203.0.113.10", p)
	require.NoError(t, err)
	assert.False(t, res.Allowed, "6th attempt should be denied")
	assert.Greater(t, res.ResetIn, 0)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemoryResetsAfterWindow(t *testing.T) {
	m, c := newTestMemory()
	ctx := context.Background()
	p := Policy{Limit: 5, Window: 60 * time.Second}

	for i := 0; i < 6; i++ {
		_, err := m.Take(ctx, "k", p)
		require.NoError(t, err)
	}

	c.advance(59 * time.Second)
	res, err := m.Take(ctx, "k", p)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, res.ResetIn)

	c.advance(time.Second)
	res, err = m.Take(ctx, "k", p)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "attempt after window should be allowed")
	assert.Equal(t, 4, res.Remaining, "count should restart at 1")
	assert.Equal(t, 60, res.ResetIn)
}

func TestMemoryIsPerKey(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	p := Policy{Limit: 1, Window: time.Minute}

	res, _ := m.Take(ctx, "203.0.113.30", p)
	assert.True(t, res.Allowed)
	res, _ = m.Take(ctx, "203.0.113.31", p)
	assert.True(t, res.Allowed, "second key should be allowed independently")
	res, _ = m.Take(ctx, "203.0.113.30", p)
	assert.False(t, res.Allowed, "first key should be blocked after limit")
}

func TestMemoryResetInRoundsUp(t *testing.T) {
	m, c := newTestMemory()
	ctx := context.Background()
	p := Policy{Limit: 1, Window: 10 * time.Second}

	_, _ = m.Take(ctx, "k", p)
	c.advance(2500 * time.Millisecond)
	res, _ := m.Take(ctx, "k", p)
	assert.False(t, res.Allowed)
	assert.Equal(t, 8, res.ResetIn)
}

func TestMemorySweepDropsExpired(t *testing.T) {
	m, c := newTestMemory()
	ctx := context.Background()

	_, _ = m.Take(ctx, "short", Policy{Limit: 1, Window: time.Second})
	_, _ = m.Take(ctx, "long", Policy{Limit: 1, Window: time.Hour})
	require.Equal(t, 2, m.Len())

	c.advance(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestStartSweeperStops(t *testing.T) {
	m, c := newTestMemory()
	_, _ = m.Take(context.Background(), "k", Policy{Limit: 1, Window: time.Millisecond})
	c.advance(time.Second)

	stop := m.StartSweeper(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	stop()
	stop()
}

func TestLimiterPrefixesKeys(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	admin := New(m, "admin", Policy{Limit: 1, Window: time.Minute})
	login := New(m, "login", Policy{Limit: 1, Window: time.Minute})

	res, err := admin.Allow(ctx, "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = login.Allow(ctx, "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "same id under another prefix has its own window")

	res, err = admin.Allow(ctx, "42")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, admin.Policy().Limit)
}

func TestNamedPolicies(t *testing.T) {
	assert.Equal(t, Policy{Limit: 5, Window: time.Minute}, Login)
	assert.Equal(t, Policy{Limit: 100, Window: time.Minute}, AdminAPI)
	assert.Equal(t, Policy{Limit: 200, Window: time.Minute}, PublicAPI)
}
