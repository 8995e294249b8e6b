package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/bnema/objnode/internal/shard"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownField     = errors.New("unknown field")
	ErrBadArguments     = errors.New("bad arguments")
)

// Operation is a method of a class, run with the object's lock held.
type Operation func(ctx context.Context, obj *domain.Object, args []any) (any, error)

// PersistFunc writes an object's current state after a mutating operation.
type PersistFunc func(ctx context.Context, obj *domain.Object) error

type Config struct {
	Self   domain.NodeID
	Shards int
	// Persist is called after "set" on persistent objects with only that
	// object's lock held, so it must not read other objects' fields. Nil
	// keeps mutations in memory only.
	Persist PersistFunc
}

type entry struct {
	mu     sync.Mutex
	obj    *domain.Object
	active atomic.Int32
}

// Heap is the in-process object heap. Persistent objects missing from memory
// are faulted in from storage on first invocation. Only objects in use, that
// is pinned or with an invocation in flight, count as resident; idle cached
// objects can be evicted.
type Heap struct {
	cfg        Config
	objects    *shard.Map[domain.ObjectID, *entry]
	storage    ports.StorageBackend
	serializer ports.Serializer
	logger     zerolog.Logger
	// acquired runs between looking an entry up and marking it active.
	acquired func(id domain.ObjectID)

	mu      sync.RWMutex
	pinned  domain.ObjectIDSet
	classes map[domain.ClassID]map[string]Operation
}

var (
	_ ports.HeapManager = (*Heap)(nil)
	_ ports.Invoker     = (*Heap)(nil)
)

func NewHeap(cfg Config, storage ports.StorageBackend, serializer ports.Serializer, logger zerolog.Logger) *Heap {
	return &Heap{
		cfg:        cfg,
		objects:    shard.New[domain.ObjectID, *entry](cfg.Shards, shard.BytesHash[domain.ObjectID]),
		storage:    storage,
		serializer: serializer,
		logger:     logger.With().Str("component", "heap").Logger(),
		pinned:     domain.NewObjectIDSet(),
		classes:    map[domain.ClassID]map[string]Operation{},
	}
}

// RegisterClass adds operations for classID. Class operations shadow the
// built-in ones of the same name.
func (h *Heap) RegisterClass(classID domain.ClassID, operations map[string]Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops, ok := h.classes[classID]
	if !ok {
		ops = make(map[string]Operation, len(operations))
		h.classes[classID] = ops
	}
	for name, op := range operations {
		ops[name] = op
	}
}

// Load makes obj and every identified object reachable from it resident.
func (h *Heap) Load(obj *domain.Object) {
	stack := []*domain.Object{obj}
	seen := make(map[*domain.Object]struct{})

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if next == nil || !next.HasID() {
			continue
		}
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}

		if next.ClassID != "" {
			h.objects.Store(next.ID, &entry{obj: next})
		}
		stack = append(stack, next.Refs...)
	}
}

func (h *Heap) Pin(id domain.ObjectID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pinned.Add(id)
}

func (h *Heap) Unpin(id domain.ObjectID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pinned, id)
}

func (h *Heap) IsResident(ctx context.Context, id domain.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	e, ok := h.objects.Load(id)
	if !ok {
		return false, nil
	}
	if e.active.Load() > 0 {
		return true, nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pinned.Has(id), nil
}

// InMemory reports whether id is loaded, in use or not.
func (h *Heap) InMemory(id domain.ObjectID) bool {
	_, ok := h.objects.Load(id)
	return ok
}

func (h *Heap) RetainedIDs(ctx context.Context) ([]domain.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pinned.Sorted(), nil
}

func (h *Heap) OwnerHint(_ context.Context, id domain.ObjectID) (domain.NodeID, bool) {
	e, ok := h.objects.Load(id)
	if !ok {
		return domain.NodeID{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.obj.OwnerHint == nil {
		return domain.NodeID{}, false
	}
	return *e.obj.OwnerHint, true
}

// EvictExcept drops idle persistent objects that are not in keep. Transient
// objects have no stored copy and are never evicted.
func (h *Heap) EvictExcept(ctx context.Context, keep domain.ObjectIDSet) ([]domain.ObjectID, error) {
	var evicted []domain.ObjectID
	for _, id := range h.objects.Keys() {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		if keep.Has(id) {
			continue
		}

		e, ok := h.objects.Load(id)
		if !ok {
			continue
		}
		if e.active.Load() > 0 {
			continue
		}
		e.mu.Lock()
		persistent := e.obj.Persistent
		e.mu.Unlock()
		if !persistent {
			continue
		}

		h.objects.Compute(id, func(current *entry, ok bool) (*entry, bool) {
			if !ok {
				return nil, false
			}
			if current != e || current.active.Load() > 0 {
				return current, true
			}
			evicted = append(evicted, id)
			return nil, false
		})
	}

	if len(evicted) > 0 {
		h.logger.Debug().Int("evicted", len(evicted)).Msg("objects evicted")
	}
	return evicted, nil
}

func (h *Heap) Invoke(ctx context.Context, id domain.ObjectID, operation string, args []any) (any, error) {
	e, err := h.acquire(ctx, id)
	if err != nil {
		return nil, err
	}

	defer e.active.Add(-1)
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := h.operation(e.obj.ClassID, operation)
	if err != nil {
		return nil, err
	}
	return op(ctx, e.obj, args)
}

// acquire returns the live entry for id with its active count raised. An
// entry evicted before it was marked active is dropped and looked up again.
func (h *Heap) acquire(ctx context.Context, id domain.ObjectID) (*entry, error) {
	for {
		e, err := h.resident(ctx, id)
		if err != nil {
			return nil, err
		}
		if h.acquired != nil {
			h.acquired(id)
		}

		e.active.Add(1)
		if current, ok := h.objects.Load(id); ok && current == e {
			return e, nil
		}
		e.active.Add(-1)
	}
}

func (h *Heap) resident(ctx context.Context, id domain.ObjectID) (*entry, error) {
	if e, ok := h.objects.Load(id); ok {
		return e, nil
	}
	if h.storage == nil || h.serializer == nil {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrObjectNotFound)
	}

	data, err := h.storage.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load object %s: %w", id, err)
	}
	obj, err := h.serializer.Deserialize(data, "")
	if err != nil {
		return nil, fmt.Errorf("load object %s: %w", id, err)
	}
	if obj.ID != id {
		return nil, fmt.Errorf("load object %s: stored id %s does not match", id, obj.ID)
	}
	self := h.cfg.Self
	obj.OwnerHint = &self

	e, created := h.objects.LoadOrCreate(id, func() *entry { return &entry{obj: obj} })
	if created {
		h.logger.Debug().Str("object", id.String()).Str("class", string(obj.ClassID)).Msg("object faulted in")
	}
	return e, nil
}

func (h *Heap) operation(classID domain.ClassID, name string) (Operation, error) {
	h.mu.RLock()
	op, ok := h.classes[classID][name]
	h.mu.RUnlock()
	if ok {
		return op, nil
	}

	switch name {
	case "get":
		return getField, nil
	case "set":
		return h.setField, nil
	case "refs":
		return listRefs, nil
	case "class":
		return className, nil
	}

	return nil, fmt.Errorf("%w %q on class %s", ErrUnknownOperation, name, classID)
}

func getField(_ context.Context, obj *domain.Object, args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: get takes a field name", ErrBadArguments)
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: field name must be a string, got %T", ErrBadArguments, args[0])
	}

	value, ok := obj.Fields[name]
	if !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, name, obj.ID)
	}
	return value, nil
}

func (h *Heap) setField(ctx context.Context, obj *domain.Object, args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: set takes a field name and a value", ErrBadArguments)
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: field name must be a string, got %T", ErrBadArguments, args[0])
	}

	value := fmt.Sprint(args[1])
	previous, existed := obj.Fields[name]
	if obj.Fields == nil {
		obj.Fields = map[string]string{}
	}
	obj.Fields[name] = value

	if h.cfg.Persist != nil && obj.Persistent {
		if err := h.cfg.Persist(ctx, obj); err != nil {
			if existed {
				obj.Fields[name] = previous
			} else {
				delete(obj.Fields, name)
			}
			return nil, fmt.Errorf("persist %s: %w", obj.ID, err)
		}
	}

	return previous, nil
}

func listRefs(_ context.Context, obj *domain.Object, _ []any) (any, error) {
	ids := make([]domain.ObjectID, 0, len(obj.Refs))
	for _, ref := range obj.Refs {
		if ref.HasID() {
			ids = append(ids, ref.ID)
		}
	}
	return ids, nil
}

func className(_ context.Context, obj *domain.Object, _ []any) (any, error) {
	return string(obj.ClassID), nil
}
