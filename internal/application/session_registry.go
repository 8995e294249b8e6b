package application

import (
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/bnema/objnode/internal/shard"
)

// SessionPolicy decides the expiry given to sessions on creation and touch.
// With Lifecycle disabled every session gets domain.NoExpiration.
type SessionPolicy struct {
	Lifecycle bool
	TTL       time.Duration
}

func (p SessionPolicy) expiryFrom(now time.Time) time.Time {
	if !p.Lifecycle || p.TTL <= 0 {
		return domain.NoExpiration
	}
	return now.Add(p.TTL)
}

type liveness int

const (
	sessionAlive liveness = iota
	sessionFirstStrike
	sessionDead
)

// sessionEntry is guarded by the bucket lock of its session id; the quarantine
// flag is only ever changed under that same lock.
type sessionEntry struct {
	expiresAt   time.Time
	quarantined bool
	// refs counts the reference sets currently holding the session. It may
	// transiently over-count while a reference is being added.
	refs int
}

type SessionRegistry struct {
	policy  SessionPolicy
	clock   ports.Clock
	entries *shard.Map[domain.SessionID, sessionEntry]
}

func NewSessionRegistry(policy SessionPolicy, clock ports.Clock, shards int) *SessionRegistry {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionRegistry{
		policy:  policy,
		clock:   clock,
		entries: shard.New[domain.SessionID, sessionEntry](shards, shard.StringHash[domain.SessionID]),
	}
}

// Touch creates the session or extends its expiry using the registry policy.
func (r *SessionRegistry) Touch(id domain.SessionID) domain.SessionRecord {
	now := r.clock.Now()
	return r.TouchUntil(id, r.policy.expiryFrom(now))
}

// TouchUntil creates the session with the given expiry or extends an existing
// one to it. Expiry never moves backward. A session whose expiry lands in the
// future leaves quarantine.
func (r *SessionRegistry) TouchUntil(id domain.SessionID, expiresAt time.Time) domain.SessionRecord {
	now := r.clock.Now()

	var record domain.SessionRecord
	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			entry = sessionEntry{expiresAt: expiresAt}
		} else if expiresAt.After(entry.expiresAt) {
			entry.expiresAt = expiresAt
		}
		if !now.After(entry.expiresAt) {
			entry.quarantined = false
		}
		record = domain.SessionRecord{ID: id, ExpiresAt: entry.expiresAt}
		return entry, true
	})

	return record
}

// Close expires the session now. A session that no longer holds any
// reference is dropped right away.
func (r *SessionRegistry) Close(id domain.SessionID) {
	now := r.clock.Now()

	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			return entry, false
		}
		if entry.refs <= 0 {
			return entry, false
		}
		entry.expiresAt = now
		return entry, true
	})
}

func (r *SessionRegistry) IsExpired(id domain.SessionID, now time.Time) bool {
	record, ok := r.Get(id)
	if !ok {
		return true
	}
	return record.IsExpired(now)
}

func (r *SessionRegistry) Get(id domain.SessionID) (domain.SessionRecord, bool) {
	entry, ok := r.entries.Load(id)
	if !ok {
		return domain.SessionRecord{}, false
	}
	return domain.SessionRecord{ID: id, ExpiresAt: entry.expiresAt}, true
}

func (r *SessionRegistry) Quarantined(id domain.SessionID) bool {
	entry, ok := r.entries.Load(id)
	return ok && entry.quarantined
}

func (r *SessionRegistry) Len() int {
	return r.entries.Len()
}

func (r *SessionRegistry) QuarantinedLen() int {
	n := 0
	for _, id := range r.entries.Keys() {
		if r.Quarantined(id) {
			n++
		}
	}
	return n
}

// retain ensures the session exists with the default expiry and counts one
// more reference set holding it.
func (r *SessionRegistry) retain(id domain.SessionID) {
	now := r.clock.Now()

	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			entry = sessionEntry{expiresAt: r.policy.expiryFrom(now)}
		}
		entry.refs++
		return entry, true
	})
}

// release drops one reference count. With purgeIfIdle set, a session left
// without references that is still expired and quarantined is removed along
// with its quarantine state. It reports whether the session was purged.
func (r *SessionRegistry) release(id domain.SessionID, purgeIfIdle bool) bool {
	now := r.clock.Now()
	purged := false

	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			return entry, false
		}
		if entry.refs > 0 {
			entry.refs--
		}
		if purgeIfIdle && entry.refs == 0 && entry.quarantined && now.After(entry.expiresAt) {
			purged = true
			return entry, false
		}
		return entry, true
	})

	return purged
}

// evaluate applies the two-strike rule to one session at now.
func (r *SessionRegistry) evaluate(id domain.SessionID, now time.Time) liveness {
	verdict := sessionDead

	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			return entry, false
		}
		switch {
		case !now.After(entry.expiresAt):
			entry.quarantined = false
			verdict = sessionAlive
		case !entry.quarantined:
			entry.quarantined = true
			verdict = sessionFirstStrike
		default:
			verdict = sessionDead
		}
		return entry, true
	})

	return verdict
}

// isDead reports whether id is still expired and quarantined at now. A
// session that is gone counts as dead.
func (r *SessionRegistry) isDead(id domain.SessionID, now time.Time) bool {
	entry, ok := r.entries.Load(id)
	if !ok {
		return true
	}
	return entry.quarantined && now.After(entry.expiresAt)
}

// sweepIdle applies the two-strike rule to a session that holds no reference
// and drops it on the second strike. Sessions still holding references are
// left to the object sweep. It reports whether the session was dropped.
func (r *SessionRegistry) sweepIdle(id domain.SessionID, now time.Time) bool {
	purged := false

	r.entries.Compute(id, func(entry sessionEntry, ok bool) (sessionEntry, bool) {
		if !ok {
			return entry, false
		}
		switch {
		case entry.refs > 0:
		case !now.After(entry.expiresAt):
			entry.quarantined = false
		case !entry.quarantined:
			entry.quarantined = true
		default:
			purged = true
			return entry, false
		}
		return entry, true
	})

	return purged
}
