package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Objects []objectSchema `toml:"objects"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported registry schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type objectSchema struct {
	ID           string `toml:"id"`
	Class        string `toml:"class"`
	Owner        string `toml:"owner"`
	RegisteredAt string `toml:"registered_at,omitempty"`
}
