package ports

import (
	"crypto/rand"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
)

type IDGenerator interface {
	NewObjectID() (domain.ObjectID, error)
}

// RandomIDs draws object ids from the system CSPRNG.
type RandomIDs struct{}

func (RandomIDs) NewObjectID() (domain.ObjectID, error) {
	var id domain.ObjectID
	if _, err := rand.Read(id[:]); err != nil {
		return domain.ObjectID{}, fmt.Errorf("read random object id: %w", err)
	}
	return id, nil
}
