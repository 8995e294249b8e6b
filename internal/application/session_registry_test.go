package application

import (
	"testing"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryTouchNeverMovesBackward(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)

	first := registry.TouchUntil("s1", baseTime.Add(time.Hour))
	assert.Equal(t, baseTime.Add(time.Hour), first.ExpiresAt)

	second := registry.Touch("s1")
	assert.Equal(t, baseTime.Add(time.Hour), second.ExpiresAt)

	clock.Advance(2 * time.Hour)
	third := registry.Touch("s1")
	assert.Equal(t, baseTime.Add(2*time.Hour+time.Minute), third.ExpiresAt)
}

func TestSessionRegistryPolicyWithoutLifecycleNeverExpires(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{}, clock, 0)

	record := registry.Touch("s1")
	assert.True(t, record.NeverExpires())
	assert.False(t, registry.IsExpired("s1", baseTime.AddDate(100, 0, 0)))
}

func TestSessionRegistryIsExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)
	registry.Touch("s1")

	tests := []struct {
		name    string
		session domain.SessionID
		now     time.Time
		want    bool
	}{
		{name: "before expiry", session: "s1", now: baseTime, want: false},
		{name: "at expiry", session: "s1", now: baseTime.Add(time.Minute), want: false},
		{name: "after expiry", session: "s1", now: baseTime.Add(time.Minute + time.Nanosecond), want: true},
		{name: "unknown session", session: "nobody", now: baseTime, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, registry.IsExpired(tc.session, tc.now))
		})
	}
}

func TestSessionRegistryEvaluateTwoStrikes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)
	registry.TouchUntil("s1", baseTime)

	assert.Equal(t, sessionAlive, registry.evaluate("s1", baseTime))
	assert.Equal(t, sessionFirstStrike, registry.evaluate("s1", baseTime.Add(time.Second)))
	assert.True(t, registry.Quarantined("s1"))
	assert.Equal(t, sessionDead, registry.evaluate("s1", baseTime.Add(2*time.Second)))
	assert.Equal(t, sessionDead, registry.evaluate("missing", baseTime))
}

func TestSessionRegistryTouchLeavesQuarantine(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)
	registry.TouchUntil("s1", baseTime.Add(-time.Second))

	require.Equal(t, sessionFirstStrike, registry.evaluate("s1", baseTime))
	require.Equal(t, 1, registry.QuarantinedLen())

	registry.Touch("s1")
	assert.False(t, registry.Quarantined("s1"))
	assert.Equal(t, sessionAlive, registry.evaluate("s1", baseTime))
}

func TestSessionRegistryCloseWithoutReferencesDropsSession(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)

	registry.Touch("idle")
	registry.Close("idle")
	_, ok := registry.Get("idle")
	assert.False(t, ok)

	registry.retain("busy")
	registry.Close("busy")
	record, ok := registry.Get("busy")
	require.True(t, ok)
	assert.Equal(t, baseTime, record.ExpiresAt)

	registry.Close("unknown")
	assert.Equal(t, 1, registry.Len())
}

func TestSessionRegistryReleasePurgesOnlyDeadIdleSessions(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	registry := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 0)

	registry.retain("live")
	assert.False(t, registry.release("live", true))
	_, ok := registry.Get("live")
	assert.True(t, ok)

	registry.TouchUntil("dead", baseTime.Add(-time.Second))
	registry.retain("dead")
	registry.retain("dead")
	registry.evaluate("dead", baseTime)

	assert.False(t, registry.release("dead", true))
	assert.True(t, registry.release("dead", true))
	_, ok = registry.Get("dead")
	assert.False(t, ok)
}
