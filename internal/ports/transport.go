package ports

import (
	"context"

	"github.com/bnema/objnode/internal/domain"
)

// Transport forwards one operation to a peer node. Failures reported by the
// peer or the network are returned as *domain.RemoteError.
type Transport interface {
	Call(ctx context.Context, node domain.NodeID, id domain.ObjectID, operation string, payload []byte) ([]byte, error)
}
