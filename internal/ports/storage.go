package ports

import (
	"context"

	"github.com/bnema/objnode/internal/domain"
)

type StorageBackend interface {
	// Put writes the first version of an object and fails with
	// domain.ErrAlreadyStored when bytes already exist for id.
	Put(ctx context.Context, id domain.ObjectID, data []byte) error
	Upsert(ctx context.Context, id domain.ObjectID, data []byte) error
	Get(ctx context.Context, id domain.ObjectID) ([]byte, error)
}
