package domain

import "time"

// NoExpiration is the expiry given to sessions when session lifecycle
// tracking is disabled.
var NoExpiration = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

type SessionRecord struct {
	ID        SessionID
	ExpiresAt time.Time
}

func (s SessionRecord) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s SessionRecord) NeverExpires() bool {
	return !s.ExpiresAt.Before(NoExpiration)
}
