package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationResolverCachesLookups(t *testing.T) {
	t.Parallel()

	metadata := mocks.NewMockMetadataService(t)
	resolver := NewLocationResolver(metadata, 4, zerolog.Nop())
	o1 := objectID(1)

	metadata.EXPECT().LookupOwner(mockAnyContext(), o1).Return(peerNode, nil).Once()

	for i := 0; i < 3; i++ {
		node, err := resolver.Resolve(context.Background(), o1)
		require.NoError(t, err)
		assert.Equal(t, peerNode, node)
	}
}

func TestLocationResolverInvalidateForcesLookup(t *testing.T) {
	t.Parallel()

	metadata := mocks.NewMockMetadataService(t)
	resolver := NewLocationResolver(metadata, 4, zerolog.Nop())
	o1 := objectID(1)

	metadata.EXPECT().LookupOwner(mockAnyContext(), o1).Return(peerNode, nil).Once()
	metadata.EXPECT().LookupOwner(mockAnyContext(), o1).Return(otherNode, nil).Once()

	node, err := resolver.Resolve(context.Background(), o1)
	require.NoError(t, err)
	assert.Equal(t, peerNode, node)

	resolver.Invalidate(o1)
	_, cached := resolver.Cached(o1)
	assert.False(t, cached)

	node, err = resolver.Resolve(context.Background(), o1)
	require.NoError(t, err)
	assert.Equal(t, otherNode, node)
}

func TestLocationResolverPrimeSkipsMetadata(t *testing.T) {
	t.Parallel()

	metadata := mocks.NewMockMetadataService(t)
	resolver := NewLocationResolver(metadata, 4, zerolog.Nop())

	resolver.Prime(objectID(1), selfNode)
	resolver.Prime(objectID(2), domain.NodeID{})

	node, err := resolver.Resolve(context.Background(), objectID(1))
	require.NoError(t, err)
	assert.Equal(t, selfNode, node)
	_, cached := resolver.Cached(objectID(2))
	assert.False(t, cached)
}

func TestLocationResolverErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lookupErr error
		want      error
	}{
		{name: "unreachable service", lookupErr: errors.New("dial tcp 10.0.0.9:7500: connection refused"), want: domain.ErrMetadataUnavailable},
		{name: "already typed", lookupErr: domain.ErrMetadataUnavailable, want: domain.ErrMetadataUnavailable},
		{name: "unknown object", lookupErr: domain.ErrObjectNotFound, want: domain.ErrObjectNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			metadata := mocks.NewMockMetadataService(t)
			resolver := NewLocationResolver(metadata, 4, zerolog.Nop())
			metadata.EXPECT().LookupOwner(mockAnyContext(), objectID(1)).Return(domain.NodeID{}, tc.lookupErr).Once()

			_, err := resolver.Resolve(context.Background(), objectID(1))
			require.ErrorIs(t, err, tc.want)
			_, cached := resolver.Cached(objectID(1))
			assert.False(t, cached)
		})
	}
}
