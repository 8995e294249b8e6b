package ports

import (
	"context"

	"github.com/bnema/objnode/internal/domain"
)

// MetadataService is the naming service that records which node owns which object.
type MetadataService interface {
	LookupOwner(ctx context.Context, id domain.ObjectID) (domain.NodeID, error)
	Register(ctx context.Context, id domain.ObjectID, classID domain.ClassID, node domain.NodeID) error
}
