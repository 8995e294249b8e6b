package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeHeap struct {
	mu       sync.Mutex
	resident map[domain.ObjectID]struct{}
	pinned   []domain.ObjectID
	hints    map[domain.ObjectID]domain.NodeID
	evicted  []domain.ObjectID
	err      error
	// checked runs on every residency check, outside the fake's lock.
	checked func(id domain.ObjectID)
}

func newFakeHeap() *fakeHeap {
	return &fakeHeap{
		resident: map[domain.ObjectID]struct{}{},
		hints:    map[domain.ObjectID]domain.NodeID{},
	}
}

func (h *fakeHeap) load(ids ...domain.ObjectID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range ids {
		h.resident[id] = struct{}{}
	}
}

func (h *fakeHeap) IsResident(_ context.Context, id domain.ObjectID) (bool, error) {
	if h.checked != nil {
		h.checked(id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return false, h.err
	}
	_, ok := h.resident[id]
	return ok, nil
}

func (h *fakeHeap) RetainedIDs(context.Context) ([]domain.ObjectID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.ObjectID(nil), h.pinned...), nil
}

func (h *fakeHeap) OwnerHint(_ context.Context, id domain.ObjectID) (domain.NodeID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	node, ok := h.hints[id]
	return node, ok
}

func (h *fakeHeap) EvictExcept(_ context.Context, keep domain.ObjectIDSet) ([]domain.ObjectID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var evicted []domain.ObjectID
	for id := range h.resident {
		if keep.Has(id) {
			continue
		}
		delete(h.resident, id)
		evicted = append(evicted, id)
	}
	h.evicted = append(h.evicted, evicted...)
	return evicted, nil
}

type sequentialIDs struct {
	mu   sync.Mutex
	next byte
}

func (s *sequentialIDs) NewObjectID() (domain.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return domain.ObjectID{0xaa, 15: s.next}, nil
}

type failingIDs struct{}

func (failingIDs) NewObjectID() (domain.ObjectID, error) {
	return domain.ObjectID{}, errors.New("entropy exhausted")
}

type stubSerializer struct{}

func (stubSerializer) Serialize(obj *domain.Object) ([]byte, error) {
	refs := make([]string, 0, len(obj.Refs))
	for _, ref := range obj.Refs {
		refs = append(refs, ref.ID.String())
	}
	return []byte(fmt.Sprintf("%s|%s|%s", obj.ClassID, obj.ID, strings.Join(refs, ","))), nil
}

func (stubSerializer) Deserialize(data []byte, classID domain.ClassID) (*domain.Object, error) {
	return &domain.Object{ClassID: classID}, nil
}

type stubCodec struct{}

func (stubCodec) EncodeArgs(args []any) ([]byte, error) {
	return []byte(fmt.Sprint(args...)), nil
}

func (stubCodec) DecodeArgs(data []byte) ([]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return []any{string(data)}, nil
}

func (stubCodec) EncodeResult(result any) ([]byte, error) {
	return []byte(fmt.Sprint(result)), nil
}

func (stubCodec) DecodeResult(data []byte) (any, error) {
	return string(data), nil
}

func mockAnyContext() interface{} {
	return mock.Anything
}

var (
	selfNode  = domain.NodeID{Host: "node-a", Port: 7400}
	peerNode  = domain.NodeID{Host: "node-b", Port: 7400}
	otherNode = domain.NodeID{Host: "node-c", Port: 7400}
	baseTime  = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

func objectID(n byte) domain.ObjectID {
	return domain.ObjectID{0x01, 15: n}
}
