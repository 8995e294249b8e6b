package codec

import (
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const currentObjectVersion = 1

type objectSchema struct {
	Version   int               `toml:"version"`
	ID        string            `toml:"id"`
	Class     string            `toml:"class"`
	OwnerHint string            `toml:"owner_hint,omitempty"`
	Fields    map[string]string `toml:"fields,omitempty"`
	Refs      []string          `toml:"refs,omitempty"`
}

// TOMLSerializer writes one object per document. References are stored by id;
// deserialized references are unloaded stubs carrying only their id.
type TOMLSerializer struct{}

var _ ports.Serializer = TOMLSerializer{}

func (TOMLSerializer) Serialize(obj *domain.Object) ([]byte, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: nil object", domain.ErrMalformedGraph)
	}
	if !obj.HasID() {
		return nil, fmt.Errorf("%w: object of class %s has no id", domain.ErrMalformedGraph, obj.ClassID)
	}

	schema := objectSchema{
		Version: currentObjectVersion,
		ID:      obj.ID.String(),
		Class:   string(obj.ClassID),
		Fields:  obj.Fields,
	}
	if obj.OwnerHint != nil && !obj.OwnerHint.IsZero() {
		schema.OwnerHint = obj.OwnerHint.String()
	}
	for i, ref := range obj.Refs {
		if !ref.HasID() {
			return nil, fmt.Errorf("%w: reference %d of %s has no id", domain.ErrMalformedGraph, i, obj.ID)
		}
		schema.Refs = append(schema.Refs, ref.ID.String())
	}

	data, err := toml.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode object %s: %w", obj.ID, err)
	}

	return data, nil
}

func (TOMLSerializer) Deserialize(data []byte, classID domain.ClassID) (*domain.Object, error) {
	var schema objectSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if schema.Version > currentObjectVersion {
		return nil, fmt.Errorf("unsupported object schema version %d (current %d)", schema.Version, currentObjectVersion)
	}

	id, err := domain.ParseObjectID(schema.ID)
	if err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if classID != "" && schema.Class != string(classID) {
		return nil, fmt.Errorf("decode object %s: stored class %q, want %q", id, schema.Class, classID)
	}

	obj := &domain.Object{
		ID:         id,
		ClassID:    domain.ClassID(schema.Class),
		Persistent: true,
		Loaded:     true,
		Fields:     make(map[string]string, len(schema.Fields)),
	}
	for key, value := range schema.Fields {
		obj.Fields[key] = value
	}

	if schema.OwnerHint != "" {
		hint, err := domain.ParseNodeID(schema.OwnerHint)
		if err != nil {
			return nil, fmt.Errorf("decode owner hint of %s: %w", id, err)
		}
		obj.OwnerHint = &hint
	}

	for _, raw := range schema.Refs {
		refID, err := domain.ParseObjectID(raw)
		if err != nil {
			return nil, fmt.Errorf("decode reference of %s: %w", id, err)
		}
		obj.Refs = append(obj.Refs, &domain.Object{ID: refID, Persistent: true})
	}

	return obj, nil
}
