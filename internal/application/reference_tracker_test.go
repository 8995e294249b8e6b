package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(clock *fakeClock, heap *fakeHeap) *ReferenceTracker {
	sessions := NewSessionRegistry(SessionPolicy{Lifecycle: true, TTL: time.Minute}, clock, 4)
	return NewReferenceTracker(sessions, heap, clock, 4, zerolog.Nop())
}

func TestAddSessionReferenceIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())
	o1 := objectID(1)

	for i := 0; i < 5; i++ {
		tracker.AddSessionReference(o1, "s1")
	}

	assert.Equal(t, []domain.SessionID{"s1"}, tracker.HoldersOf(o1))
	stats := tracker.Stats()
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, 1, stats.Sessions)

	// A single close followed by two expired sweeps must fully release the
	// session: repeated adds must not have inflated its reference count.
	tracker.CloseSession("s1")
	clock.Advance(time.Second)
	_, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	_, err = tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)

	_, ok := tracker.Sessions().Get("s1")
	assert.False(t, ok)
	assert.False(t, tracker.IsTracked(o1))
}

func TestAddSessionReferenceCreatesSessionWithDefaultPolicy(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())

	tracker.AddSessionReference(objectID(1), "s1")

	record, ok := tracker.Sessions().Get("s1")
	require.True(t, ok)
	assert.Equal(t, baseTime.Add(time.Minute), record.ExpiresAt)
}

func TestCollectRetainedReferencesTwoStrikeScenario(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())
	o1 := objectID(1)

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	tracker.AddSessionReference(o1, "s1")

	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.True(t, retained.Has(o1), "first strike keeps the object")
	assert.True(t, tracker.Sessions().Quarantined("s1"))

	clock.Advance(time.Second)

	retained, err = tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.False(t, retained.Has(o1), "second strike drops the object")
	assert.False(t, tracker.IsTracked(o1))
	_, ok := tracker.Sessions().Get("s1")
	assert.False(t, ok)
	assert.Equal(t, TrackerStats{}, tracker.Stats())
}

func TestCollectRetainedReferencesResurrectedSessionSurvives(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())
	o1 := objectID(1)

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	tracker.AddSessionReference(o1, "s1")

	_, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	require.True(t, tracker.Sessions().Quarantined("s1"))

	tracker.Sessions().TouchUntil("s1", baseTime.Add(time.Hour))
	assert.False(t, tracker.Sessions().Quarantined("s1"))

	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
		retained, err := tracker.CollectRetainedReferences(context.Background())
		require.NoError(t, err)
		assert.True(t, retained.Has(o1), "sweep %d", i)
	}
	assert.False(t, tracker.Sessions().Quarantined("s1"))
}

func TestCollectRetainedReferencesAliasAndHeapOverride(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	heap := newFakeHeap()
	tracker := newTestTracker(clock, heap)

	aliased := objectID(1)
	resident := objectID(2)
	dropped := objectID(3)

	tracker.AddAliasReference(aliased)
	tracker.AddAliasReference(aliased)
	heap.load(resident)

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	for _, id := range []domain.ObjectID{aliased, resident, dropped} {
		tracker.AddSessionReference(id, "s1")
	}

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		retained, err := tracker.CollectRetainedReferences(context.Background())
		require.NoError(t, err)
		assert.True(t, retained.Has(aliased))
		assert.True(t, retained.Has(resident))
		if i > 0 {
			assert.False(t, retained.Has(dropped))
		}
	}

	assert.Empty(t, tracker.HoldersOf(aliased))
	assert.True(t, tracker.IsTracked(resident), "resident objects keep their entry")
	assert.False(t, tracker.IsTracked(dropped))
	assert.Equal(t, 1, tracker.Stats().Aliases)
}

func TestCollectRetainedReferencesIncludesAliasWithoutSessions(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(newFakeClock(baseTime), newFakeHeap())
	tracker.AddAliasReference(objectID(9))

	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.NewObjectIDSet(objectID(9)), retained)
}

func TestCollectRetainedReferencesEvaluatesSessionOncePerSweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	for n := byte(1); n <= 10; n++ {
		tracker.AddSessionReference(objectID(n), "s1")
	}

	// With a per-object evaluation the second object visited would already
	// see the session quarantined and drop it within the same sweep.
	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.Len(t, retained, 10)

	retained, err = tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, retained)
	_, ok := tracker.Sessions().Get("s1")
	assert.False(t, ok)
}

func TestCollectRetainedReferencesKeepsLiveCoHolder(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())
	o1 := objectID(1)

	tracker.Sessions().TouchUntil("expired", baseTime.Add(-time.Second))
	tracker.AddSessionReference(o1, "expired")
	tracker.AddSessionReference(o1, "live")

	for i := 0; i < 2; i++ {
		retained, err := tracker.CollectRetainedReferences(context.Background())
		require.NoError(t, err)
		assert.True(t, retained.Has(o1))
	}

	assert.Equal(t, []domain.SessionID{"live"}, tracker.HoldersOf(o1))
}

func TestCloseSessionExpiresImmediately(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())
	o1 := objectID(1)

	tracker.AddSessionReference(o1, "s1")
	tracker.CloseSession("s1")
	assert.False(t, tracker.Sessions().IsExpired("s1", clock.Now()))

	clock.Advance(time.Millisecond)
	assert.True(t, tracker.Sessions().IsExpired("s1", clock.Now()))

	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.True(t, retained.Has(o1))

	retained, err = tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.False(t, retained.Has(o1))
}

func TestCollectRetainedReferencesPropagatesHeapError(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	heap := newFakeHeap()
	heap.err = errors.New("heap offline")
	tracker := newTestTracker(clock, heap)

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	tracker.AddSessionReference(objectID(1), "s1")

	_, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)

	_, err = tracker.CollectRetainedReferences(context.Background())
	require.ErrorIs(t, err, heap.err)
	assert.True(t, tracker.IsTracked(objectID(1)))
}

func TestCollectRetainedReferencesHonoursCancellation(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(newFakeClock(baseTime), newFakeHeap())
	tracker.AddSessionReference(objectID(1), "s1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tracker.CollectRetainedReferences(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReferenceTrackerConcurrentAddsAndSweeps(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			session := domain.SessionID(fmt.Sprintf("s%d", w))
			for n := 0; n < 200; n++ {
				tracker.AddSessionReference(objectID(byte(n%32)), session)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, err := tracker.CollectRetainedReferences(context.Background())
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.Len(t, retained, 32)
	for n := 0; n < 32; n++ {
		assert.Len(t, tracker.HoldersOf(objectID(byte(n))), 8)
	}
	assert.Equal(t, 8, tracker.Stats().Sessions)
	assert.Zero(t, tracker.Stats().Quarantined)
}

func TestCollectRetainedReferencesPurgesTouchOnlySessions(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())

	tracker.TouchSession("idle")
	tracker.TouchSession("busy")
	tracker.AddSessionReference(objectID(1), "busy")
	clock.Advance(time.Hour)
	tracker.TouchSession("busy")

	_, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.True(t, tracker.Sessions().Quarantined("idle"), "first strike quarantines")
	assert.Equal(t, 2, tracker.Stats().Sessions)

	clock.Advance(time.Second)
	_, err = tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)

	_, ok := tracker.Sessions().Get("idle")
	assert.False(t, ok, "second strike purges")
	_, ok = tracker.Sessions().Get("busy")
	assert.True(t, ok)
	assert.Equal(t, TrackerStats{Objects: 1, Sessions: 1}, tracker.Stats())
}

func TestCollectRetainedReferencesKeepsTouchOnlySessionWhileLive(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tracker := newTestTracker(clock, newFakeHeap())

	tracker.TouchSession("idle")
	for i := 0; i < 3; i++ {
		clock.Advance(30 * time.Second)
		tracker.TouchSession("idle")
		_, err := tracker.CollectRetainedReferences(context.Background())
		require.NoError(t, err)
	}

	_, ok := tracker.Sessions().Get("idle")
	assert.True(t, ok)
	assert.False(t, tracker.Sessions().Quarantined("idle"))
}

func TestCollectRetainedReferencesHonoursTouchDuringSweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	heap := newFakeHeap()
	tracker := newTestTracker(clock, heap)

	tracker.Sessions().TouchUntil("s1", baseTime.Add(-time.Second))
	objects := []domain.ObjectID{objectID(1), objectID(2), objectID(3)}
	for _, id := range objects {
		tracker.AddSessionReference(id, "s1")
	}

	_, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	require.True(t, tracker.Sessions().Quarantined("s1"))

	// The first object to lose its last holder triggers a touch that revives
	// the session before the remaining objects are visited.
	var once sync.Once
	heap.checked = func(domain.ObjectID) {
		once.Do(func() { tracker.TouchSession("s1") })
	}

	retained, err := tracker.CollectRetainedReferences(context.Background())
	require.NoError(t, err)
	assert.Len(t, retained, len(objects)-1)

	held := 0
	for _, id := range objects {
		if len(tracker.HoldersOf(id)) > 0 {
			held++
			assert.True(t, retained.Has(id))
		}
	}
	assert.Equal(t, len(objects)-1, held)
	assert.False(t, tracker.Sessions().Quarantined("s1"))
}
