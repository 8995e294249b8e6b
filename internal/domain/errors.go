package domain

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound       = errors.New("object not found")
	ErrAlreadyStored        = errors.New("object already stored")
	ErrMetadataUnavailable  = errors.New("metadata service unavailable")
	ErrRemoteTimeout        = errors.New("remote call timed out")
	ErrDispatchExhausted    = errors.New("dispatch attempts exhausted")
	ErrRegistrationConflict = errors.New("object id already registered")
	ErrMalformedGraph       = errors.New("malformed object graph")
	ErrStaleLocation        = errors.New("stale object location")
	ErrRemoteFailure        = errors.New("remote call failed")
)

type RemoteErrorKind string

const (
	RemoteErrorStaleLocation RemoteErrorKind = "stale_location"
	RemoteErrorTimeout       RemoteErrorKind = "timeout"
	RemoteErrorOther         RemoteErrorKind = "other"
)

// RemoteError is reported by a Transport when the peer answered with a
// failure or could not be reached.
type RemoteError struct {
	Kind    RemoteErrorKind
	Node    NodeID
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote %s: %s", e.Node, e.Kind)
	}
	return fmt.Sprintf("remote %s: %s: %s", e.Node, e.Kind, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrStaleLocation:
		return e.Kind == RemoteErrorStaleLocation
	case ErrRemoteTimeout:
		return e.Kind == RemoteErrorTimeout
	case ErrRemoteFailure:
		return e.Kind == RemoteErrorOther
	default:
		return false
	}
}

func RemoteErrorKindOf(err error) (RemoteErrorKind, bool) {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return "", false
	}
	return remoteErr.Kind, true
}
