package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
)

const (
	storeDirMode   = 0o700
	objectFileMode = 0o600
	objectExt      = ".obj"
	tempPattern    = ".object-*.tmp"
)

// Store keeps one file per object under root, named after the object id.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.StorageBackend = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Put(ctx context.Context, id domain.ObjectID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, objectFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("object %s: %w", id, domain.ErrAlreadyStored)
		}
		return fmt.Errorf("create object %s: %w", id, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write object %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close object %s: %w", id, err)
	}

	return nil
}

// Upsert replaces the object's file atomically, creating it when missing.
func (s *Store) Upsert(ctx context.Context, id domain.ObjectID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	tempFile, err := os.CreateTemp(s.root, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp object file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp object file: %w", err)
	}
	if err := tempFile.Chmod(objectFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp object file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp object file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace object %s: %w", id, err)
	}
	cleanup = false

	return nil
}

func (s *Store) Get(ctx context.Context, id domain.ObjectID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.pathForID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", id, domain.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", id, err)
	}

	return data, nil
}

func (s *Store) pathForID(id domain.ObjectID) (string, error) {
	if id.IsZero() {
		return "", errors.New("object id is empty")
	}

	return filepath.Join(s.root, id.String()+objectExt), nil
}
