package domain

import (
	"encoding/hex"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// ObjectID is the 128-bit globally unique identifier of a persistent object.
type ObjectID [16]byte

type SessionID string
type ClassID string

func ParseObjectID(raw string) (ObjectID, error) {
	var id ObjectID

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != hex.EncodedLen(len(id)) {
		return ObjectID{}, fmt.Errorf("invalid object id %q: want %d hex characters", raw, hex.EncodedLen(len(id)))
	}
	if _, err := hex.Decode(id[:], []byte(trimmed)); err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", raw, err)
	}

	return id, nil
}

func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NodeID identifies a peer execution environment.
type NodeID struct {
	Host string
	Port int
}

func ParseNodeID(raw string) (NodeID, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(raw))
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", raw, err)
	}
	if host == "" {
		return NodeID{}, fmt.Errorf("invalid node id %q: host is required", raw)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return NodeID{}, fmt.Errorf("invalid node id %q: bad port", raw)
	}

	return NodeID{Host: host, Port: n}, nil
}

func (n NodeID) String() string {
	if n.IsZero() {
		return ""
	}
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

func (n NodeID) IsZero() bool {
	return n.Host == "" && n.Port == 0
}

func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NodeID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*n = NodeID{}
		return nil
	}
	parsed, err := ParseNodeID(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

type ObjectIDSet map[ObjectID]struct{}

func NewObjectIDSet(ids ...ObjectID) ObjectIDSet {
	set := make(ObjectIDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s ObjectIDSet) Add(id ObjectID) {
	s[id] = struct{}{}
}

func (s ObjectIDSet) Has(id ObjectID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members ordered by their byte value.
func (s ObjectIDSet) Sorted() []ObjectID {
	ids := make([]ObjectID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
