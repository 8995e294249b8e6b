package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/bnema/objnode/internal/shard"
	"github.com/rs/zerolog"
)

// LocationResolver caches the best-known owner of each object and falls back
// to the metadata service on a miss.
type LocationResolver struct {
	metadata ports.MetadataService
	hints    *shard.Map[domain.ObjectID, domain.NodeID]
	logger   zerolog.Logger
}

func NewLocationResolver(metadata ports.MetadataService, shards int, logger zerolog.Logger) *LocationResolver {
	return &LocationResolver{
		metadata: metadata,
		hints:    shard.New[domain.ObjectID, domain.NodeID](shards, shard.BytesHash[domain.ObjectID]),
		logger:   logger.With().Str("component", "location_resolver").Logger(),
	}
}

func (r *LocationResolver) Resolve(ctx context.Context, id domain.ObjectID) (domain.NodeID, error) {
	if node, ok := r.hints.Load(id); ok {
		return node, nil
	}

	node, err := r.metadata.LookupOwner(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrMetadataUnavailable) {
			return domain.NodeID{}, fmt.Errorf("lookup owner of %s: %w", id, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.NodeID{}, fmt.Errorf("lookup owner of %s: %w", id, ctxErr)
		}
		return domain.NodeID{}, fmt.Errorf("lookup owner of %s: %w", id, errors.Join(domain.ErrMetadataUnavailable, err))
	}

	r.hints.Store(id, node)
	r.logger.Debug().Str("object", id.String()).Str("owner", node.String()).Msg("owner resolved")

	return node, nil
}

func (r *LocationResolver) Invalidate(id domain.ObjectID) {
	r.hints.Delete(id)
}

// Prime records a known owner without consulting the metadata service.
func (r *LocationResolver) Prime(id domain.ObjectID, node domain.NodeID) {
	if node.IsZero() {
		return
	}
	r.hints.Store(id, node)
}

func (r *LocationResolver) Cached(id domain.ObjectID) (domain.NodeID, bool) {
	return r.hints.Load(id)
}
