package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	registryPathKey  = "metadata.path"
	dataDirKey       = "node.data_dir"
	registryFileName = "registry.toml"
	registryFileMode = 0o600
	registryDirMode  = 0o700
	defaultConfigDir = ".objnode"
	tempFilePattern  = ".registry-*.toml.tmp"
)

// Entry is one registered object as recorded in the registry file.
type Entry struct {
	ID           domain.ObjectID
	Class        domain.ClassID
	Owner        domain.NodeID
	RegisteredAt time.Time
}

// Registry is a file-backed naming service. The whole file is rewritten
// atomically on every registration.
type Registry struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.MetadataService = (*Registry)(nil)

func NewRegistry(cfg *viper.Viper, clock ports.Clock) (*Registry, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	path := cfg.GetString(registryPathKey)
	if path == "" {
		dataDir := cfg.GetString(dataDirKey)
		if dataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve home directory: %w", err)
			}
			dataDir = filepath.Join(homeDir, defaultConfigDir)
		}
		path = filepath.Join(dataDir, registryFileName)
	}

	path, err := normalizeRegistryPath(path)
	if err != nil {
		return nil, err
	}

	return &Registry{path: path, mu: lockForPath(path), clock: clock}, nil
}

func (r *Registry) Path() string {
	return r.path
}

func (r *Registry) LookupOwner(ctx context.Context, id domain.ObjectID) (domain.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeID{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.NodeID{}, err
	}

	key := id.String()
	for _, entry := range file.Objects {
		if entry.ID != key {
			continue
		}
		owner, err := domain.ParseNodeID(entry.Owner)
		if err != nil {
			return domain.NodeID{}, fmt.Errorf("decode owner of %s: %w", id, err)
		}
		return owner, nil
	}

	return domain.NodeID{}, fmt.Errorf("lookup %s: %w", id, domain.ErrObjectNotFound)
}

// Register records a new object. An id that is already registered, whoever
// owns it, is a conflict.
func (r *Registry) Register(ctx context.Context, id domain.ObjectID, classID domain.ClassID, owner domain.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id.IsZero() {
		return errors.New("object id is empty")
	}
	if owner.IsZero() {
		return errors.New("owner is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	key := id.String()
	for _, entry := range file.Objects {
		if entry.ID == key {
			return fmt.Errorf("register %s: %w", id, domain.ErrRegistrationConflict)
		}
	}

	file.Objects = append(file.Objects, objectSchema{
		ID:           key,
		Class:        string(classID),
		Owner:        owner.String(),
		RegisteredAt: formatTime(r.clock.Now()),
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(file.Objects))
	for _, object := range file.Objects {
		entry, err := fromSchema(object)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *Registry) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read registry file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode registry file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Registry) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), registryDirMode); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode registry file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
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
		return fmt.Errorf("write temp registry file: %w", err)
	}

	if err := tempFile.Chmod(registryFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp registry file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp registry file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace registry file: %w", err)
	}

	cleanup = false

	return nil
}

func fromSchema(object objectSchema) (Entry, error) {
	id, err := domain.ParseObjectID(object.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("decode registry entry: %w", err)
	}
	owner, err := domain.ParseNodeID(object.Owner)
	if err != nil {
		return Entry{}, fmt.Errorf("decode owner of %s: %w", id, err)
	}

	return Entry{
		ID:           id,
		Class:        domain.ClassID(object.Class),
		Owner:        owner,
		RegisteredAt: parseTime(object.RegisteredAt),
	}, nil
}

func normalizeRegistryPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve registry path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
