package ports

import (
	"context"

	"github.com/bnema/objnode/internal/domain"
)

type HeapManager interface {
	IsResident(ctx context.Context, id domain.ObjectID) (bool, error)
	// RetainedIDs lists objects pinned by the local cache policy, independent of
	// reference counting.
	RetainedIDs(ctx context.Context) ([]domain.ObjectID, error)
	OwnerHint(ctx context.Context, id domain.ObjectID) (domain.NodeID, bool)
	// EvictExcept drops every resident object not in keep and returns the
	// evicted ids.
	EvictExcept(ctx context.Context, keep domain.ObjectIDSet) ([]domain.ObjectID, error)
}

type Invoker interface {
	Invoke(ctx context.Context, id domain.ObjectID, operation string, args []any) (any, error)
}
