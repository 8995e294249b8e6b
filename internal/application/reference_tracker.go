package application

import (
	"context"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/bnema/objnode/internal/shard"
	"github.com/rs/zerolog"
)

type referenceSet map[domain.SessionID]struct{}

type TrackerStats struct {
	Objects     int
	Sessions    int
	Quarantined int
	Aliases     int
}

// ReferenceTracker records which sessions and aliases keep an object alive and
// answers the GC question of which objects are still retained.
//
// Object entries and session entries live in separate sharded maps. No method
// holds a lock from both maps at once, and no lock is held while the heap
// manager is queried.
type ReferenceTracker struct {
	sessions *SessionRegistry
	heap     ports.HeapManager
	clock    ports.Clock
	logger   zerolog.Logger
	objects  *shard.Map[domain.ObjectID, referenceSet]
	aliases  *shard.Map[domain.ObjectID, struct{}]
}

func NewReferenceTracker(sessions *SessionRegistry, heap ports.HeapManager, clock ports.Clock, shards int, logger zerolog.Logger) *ReferenceTracker {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ReferenceTracker{
		sessions: sessions,
		heap:     heap,
		clock:    clock,
		logger:   logger.With().Str("component", "reference_tracker").Logger(),
		objects:  shard.New[domain.ObjectID, referenceSet](shards, shard.BytesHash[domain.ObjectID]),
		aliases:  shard.New[domain.ObjectID, struct{}](shards, shard.BytesHash[domain.ObjectID]),
	}
}

func (t *ReferenceTracker) Sessions() *SessionRegistry {
	return t.sessions
}

// AddSessionReference records that sessionID holds objectID. Repeated calls
// leave the same state as a single one.
func (t *ReferenceTracker) AddSessionReference(objectID domain.ObjectID, sessionID domain.SessionID) {
	held := false
	t.objects.View(objectID, func(set referenceSet, ok bool) {
		if ok {
			_, held = set[sessionID]
		}
	})
	if held {
		return
	}

	t.sessions.retain(sessionID)

	inserted := false
	t.objects.Compute(objectID, func(set referenceSet, ok bool) (referenceSet, bool) {
		if !ok {
			set = referenceSet{}
		}
		if _, exists := set[sessionID]; !exists {
			set[sessionID] = struct{}{}
			inserted = true
		}
		return set, true
	})

	if !inserted {
		t.sessions.release(sessionID, false)
	}
}

func (t *ReferenceTracker) AddAliasReference(objectID domain.ObjectID) {
	if _, ok := t.aliases.Load(objectID); ok {
		return
	}
	t.aliases.Store(objectID, struct{}{})
}

func (t *ReferenceTracker) CloseSession(sessionID domain.SessionID) {
	t.sessions.Close(sessionID)
}

func (t *ReferenceTracker) TouchSession(sessionID domain.SessionID) domain.SessionRecord {
	return t.sessions.Touch(sessionID)
}

// HoldersOf returns the sessions currently referencing objectID.
func (t *ReferenceTracker) HoldersOf(objectID domain.ObjectID) []domain.SessionID {
	var holders []domain.SessionID
	t.objects.View(objectID, func(set referenceSet, ok bool) {
		holders = make([]domain.SessionID, 0, len(set))
		for sessionID := range set {
			holders = append(holders, sessionID)
		}
	})
	return holders
}

func (t *ReferenceTracker) IsTracked(objectID domain.ObjectID) bool {
	_, ok := t.objects.Load(objectID)
	return ok
}

func (t *ReferenceTracker) Stats() TrackerStats {
	return TrackerStats{
		Objects:     t.objects.Len(),
		Sessions:    t.sessions.Len(),
		Quarantined: t.sessions.QuarantinedLen(),
		Aliases:     t.aliases.Len(),
	}
}

// CollectRetainedReferences evaluates every holding session once, drops the
// references of sessions that failed liveness twice in a row, and returns the
// objects that are still retained by a session, an alias or the local heap.
// Sessions holding no reference go through the same two strikes and are
// dropped on the second.
func (t *ReferenceTracker) CollectRetainedReferences(ctx context.Context) (domain.ObjectIDSet, error) {
	now := t.clock.Now()
	verdicts := make(map[domain.SessionID]liveness)
	retained := domain.ObjectIDSet{}

	for _, objectID := range t.objects.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		holders := t.HoldersOf(objectID)
		dead := make([]domain.SessionID, 0)
		for _, sessionID := range holders {
			verdict, ok := verdicts[sessionID]
			if !ok {
				verdict = t.sessions.evaluate(sessionID, now)
				verdicts[sessionID] = verdict
				if verdict == sessionFirstStrike {
					t.logger.Debug().Str("session", string(sessionID)).Msg("session quarantined")
				}
			}
			if verdict == sessionDead && !t.sessions.isDead(sessionID, now) {
				verdict = sessionAlive
				verdicts[sessionID] = verdict
			}
			if verdict == sessionDead {
				dead = append(dead, sessionID)
			}
		}

		remaining := len(holders)
		if len(dead) > 0 {
			remaining = t.dropReferences(objectID, dead)
		}
		if remaining > 0 {
			retained.Add(objectID)
			continue
		}

		keep, err := t.heldOutsideSessions(ctx, objectID)
		if err != nil {
			return nil, err
		}
		if keep {
			retained.Add(objectID)
			continue
		}

		if t.forgetIfEmpty(objectID) {
			t.logger.Debug().Str("object", objectID.String()).Msg("object untracked")
			continue
		}
		retained.Add(objectID)
	}

	for _, objectID := range t.aliases.Keys() {
		retained.Add(objectID)
	}

	for _, sessionID := range t.sessions.entries.Keys() {
		if _, seen := verdicts[sessionID]; seen {
			continue
		}
		if t.sessions.sweepIdle(sessionID, now) {
			t.logger.Debug().Str("session", string(sessionID)).Msg("idle session purged")
		}
	}

	return retained, nil
}

func (t *ReferenceTracker) dropReferences(objectID domain.ObjectID, dead []domain.SessionID) int {
	removed := make([]domain.SessionID, 0, len(dead))
	remaining := 0

	t.objects.Compute(objectID, func(set referenceSet, ok bool) (referenceSet, bool) {
		if !ok {
			return set, false
		}
		for _, sessionID := range dead {
			if _, held := set[sessionID]; held {
				delete(set, sessionID)
				removed = append(removed, sessionID)
			}
		}
		remaining = len(set)
		return set, true
	})

	for _, sessionID := range removed {
		if t.sessions.release(sessionID, true) {
			t.logger.Debug().Str("session", string(sessionID)).Msg("session purged")
		}
	}

	return remaining
}

func (t *ReferenceTracker) heldOutsideSessions(ctx context.Context, objectID domain.ObjectID) (bool, error) {
	if _, ok := t.aliases.Load(objectID); ok {
		return true, nil
	}
	if t.heap == nil {
		return false, nil
	}

	resident, err := t.heap.IsResident(ctx, objectID)
	if err != nil {
		return false, fmt.Errorf("check residency of %s: %w", objectID, err)
	}
	return resident, nil
}

// forgetIfEmpty deletes the object's entry unless a reference was added since
// it was last inspected. It reports whether the entry is gone.
func (t *ReferenceTracker) forgetIfEmpty(objectID domain.ObjectID) bool {
	gone := true
	t.objects.Compute(objectID, func(set referenceSet, ok bool) (referenceSet, bool) {
		if ok && len(set) > 0 {
			gone = false
			return set, true
		}
		return set, false
	})
	return gone
}
