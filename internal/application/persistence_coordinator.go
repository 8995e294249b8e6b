package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/eapache/queue"
	"github.com/rs/zerolog"
)

type PersistenceCoordinator struct {
	self       domain.NodeID
	ids        ports.IDGenerator
	serializer ports.Serializer
	metadata   ports.MetadataService
	storage    ports.StorageBackend
	resolver   *LocationResolver
	logger     zerolog.Logger
}

func NewPersistenceCoordinator(
	self domain.NodeID,
	ids ports.IDGenerator,
	serializer ports.Serializer,
	metadata ports.MetadataService,
	storage ports.StorageBackend,
	resolver *LocationResolver,
	logger zerolog.Logger,
) *PersistenceCoordinator {
	if ids == nil {
		ids = ports.RandomIDs{}
	}

	return &PersistenceCoordinator{
		self:       self,
		ids:        ids,
		serializer: serializer,
		metadata:   metadata,
		storage:    storage,
		resolver:   resolver,
		logger:     logger.With().Str("component", "persistence").Logger(),
	}
}

// snapshot keeps what a failed commit has to restore on a visited object.
type snapshot struct {
	obj        *domain.Object
	id         domain.ObjectID
	persistent bool
	loaded     bool
	ownerHint  *domain.NodeID
}

type pendingWrite struct {
	obj     *domain.Object
	payload []byte
	first   bool
}

// MakePersistent durably registers every transient object reachable from root
// and returns the class of each object it persisted. Objects that are already
// persistent are neither revisited nor registered again.
func (c *PersistenceCoordinator) MakePersistent(ctx context.Context, root *domain.Object) (map[domain.ObjectID]domain.ClassID, error) {
	visited, err := walkGraph(root, true)
	if err != nil {
		return nil, err
	}

	return c.commit(ctx, visited)
}

// StoreUpdate writes the current state of obj and everything reachable from it.
// Objects that were already persistent take the upsert path without being
// registered again; transient objects reached from them are first-written.
func (c *PersistenceCoordinator) StoreUpdate(ctx context.Context, obj *domain.Object) error {
	visited, err := walkGraph(obj, false)
	if err != nil {
		return err
	}

	_, err = c.commit(ctx, visited)
	return err
}

// StoreObject rewrites the stored copy of one persistent object without
// visiting anything it references. Callers hold the object's own lock; the
// referenced objects are only read for their ids.
func (c *PersistenceCoordinator) StoreObject(ctx context.Context, obj *domain.Object) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object", domain.ErrMalformedGraph)
	}
	if !obj.Persistent || !obj.HasID() {
		return fmt.Errorf("%w: object of class %s is not persistent", domain.ErrMalformedGraph, obj.ClassID)
	}
	for i, ref := range obj.Refs {
		if !ref.HasID() {
			return fmt.Errorf("%w: reference %d of %s has no id", domain.ErrMalformedGraph, i, obj.ID)
		}
	}

	payload, err := c.serializer.Serialize(obj)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", obj.ID, err)
	}
	if err := c.storage.Upsert(ctx, obj.ID, payload); err != nil {
		return fmt.Errorf("store %s: %w", obj.ID, err)
	}
	return nil
}

func (c *PersistenceCoordinator) commit(ctx context.Context, visited []*domain.Object) (map[domain.ObjectID]domain.ClassID, error) {
	snapshots := make([]snapshot, 0, len(visited))
	for _, obj := range visited {
		snapshots = append(snapshots, snapshot{
			obj:        obj,
			id:         obj.ID,
			persistent: obj.Persistent,
			loaded:     obj.Loaded,
			ownerHint:  obj.OwnerHint,
		})
	}

	fail := func(err error) (map[domain.ObjectID]domain.ClassID, error) {
		rollback(snapshots)
		return nil, err
	}

	for _, obj := range visited {
		if obj.Persistent && !obj.HasID() {
			return fail(fmt.Errorf("%w: persistent object of class %s has no id", domain.ErrMalformedGraph, obj.ClassID))
		}
		if !obj.HasID() {
			id, err := c.ids.NewObjectID()
			if err != nil {
				return fail(fmt.Errorf("assign object id: %w", err))
			}
			obj.ID = id
		}
		obj.Persistent = true
		obj.Loaded = true
	}

	writes := queue.New()
	created := make(map[domain.ObjectID]domain.ClassID)
	for i, obj := range visited {
		payload, err := c.serializer.Serialize(obj)
		if err != nil {
			return fail(fmt.Errorf("serialize %s: %w", obj.ID, err))
		}
		first := !snapshots[i].persistent
		if first {
			created[obj.ID] = obj.ClassID
		}
		writes.Add(pendingWrite{obj: obj, payload: payload, first: first})
	}

	for _, obj := range visited {
		if _, ok := created[obj.ID]; !ok {
			continue
		}
		if err := c.metadata.Register(ctx, obj.ID, obj.ClassID, c.self); err != nil {
			if errors.Is(err, domain.ErrRegistrationConflict) {
				c.logger.Error().Str("object", obj.ID.String()).Msg("object id already claimed")
			}
			return fail(fmt.Errorf("register %s: %w", obj.ID, err))
		}
	}

	for writes.Length() > 0 {
		w := writes.Remove().(pendingWrite)
		var err error
		if w.first {
			err = c.storage.Put(ctx, w.obj.ID, w.payload)
		} else {
			err = c.storage.Upsert(ctx, w.obj.ID, w.payload)
		}
		if err != nil {
			return fail(fmt.Errorf("store %s: %w", w.obj.ID, err))
		}
	}

	for id := range created {
		if c.resolver != nil {
			c.resolver.Prime(id, c.self)
		}
	}
	for _, obj := range visited {
		if _, ok := created[obj.ID]; ok {
			self := c.self
			obj.OwnerHint = &self
		}
	}

	c.logger.Debug().Int("created", len(created)).Int("written", len(visited)).Msg("object graph committed")

	return created, nil
}

// walkGraph lists the objects reachable from root in depth-first pre-order
// using an explicit stack. Unloaded persistent stubs are always left out; with
// skipPersistent set, every persistent object and everything only reachable
// through it is left out.
func walkGraph(root *domain.Object, skipPersistent bool) ([]*domain.Object, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", domain.ErrMalformedGraph)
	}

	stack := []*domain.Object{root}
	seen := make(map[*domain.Object]struct{})
	order := make([]*domain.Object, 0)

	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[obj]; ok {
			continue
		}
		seen[obj] = struct{}{}

		if obj.Persistent && (skipPersistent || !obj.Loaded) {
			continue
		}
		if obj.ClassID == "" {
			return nil, fmt.Errorf("%w: object without class", domain.ErrMalformedGraph)
		}
		order = append(order, obj)

		for i := len(obj.Refs) - 1; i >= 0; i-- {
			child := obj.Refs[i]
			if child == nil {
				return nil, fmt.Errorf("%w: nil reference %d of class %s", domain.ErrMalformedGraph, i, obj.ClassID)
			}
			stack = append(stack, child)
		}
	}

	return order, nil
}

func rollback(snapshots []snapshot) {
	for _, s := range snapshots {
		s.obj.ID = s.id
		s.obj.Persistent = s.persistent
		s.obj.Loaded = s.loaded
		s.obj.OwnerHint = s.ownerHint
	}
}
