package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
)

type valueKind string

const (
	kindNull   valueKind = "null"
	kindString valueKind = "string"
	kindInt    valueKind = "int"
	kindFloat  valueKind = "float"
	kindBool   valueKind = "bool"
	kindObject valueKind = "object"
	kindList   valueKind = "list"
)

// taggedValue carries the Go kind next to the value so object ids and
// integers survive the round trip with their types.
type taggedValue struct {
	Kind  valueKind       `json:"k"`
	Value json.RawMessage `json:"v,omitempty"`
}

// JSONArgs encodes call arguments and results as tagged JSON values.
type JSONArgs struct{}

var _ ports.ArgsCodec = JSONArgs{}

func (JSONArgs) EncodeArgs(args []any) ([]byte, error) {
	tagged := make([]taggedValue, 0, len(args))
	for i, arg := range args {
		value, err := tag(arg)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		tagged = append(tagged, value)
	}

	return json.Marshal(tagged)
}

func (JSONArgs) DecodeArgs(data []byte) ([]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var tagged []taggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}

	args := make([]any, 0, len(tagged))
	for i, value := range tagged {
		arg, err := untag(value)
		if err != nil {
			return nil, fmt.Errorf("decode argument %d: %w", i, err)
		}
		args = append(args, arg)
	}

	return args, nil
}

func (JSONArgs) EncodeResult(result any) ([]byte, error) {
	value, err := tag(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	return json.Marshal(value)
}

func (JSONArgs) DecodeResult(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var value taggedValue
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	return untag(value)
}

func tag(value any) (taggedValue, error) {
	var kind valueKind
	var payload any

	switch v := value.(type) {
	case nil:
		return taggedValue{Kind: kindNull}, nil
	case string:
		kind, payload = kindString, v
	case bool:
		kind, payload = kindBool, v
	case int:
		kind, payload = kindInt, int64(v)
	case int32:
		kind, payload = kindInt, int64(v)
	case int64:
		kind, payload = kindInt, v
	case float32:
		kind, payload = kindFloat, float64(v)
	case float64:
		kind, payload = kindFloat, v
	case domain.ObjectID:
		kind, payload = kindObject, v.String()
	case []domain.ObjectID:
		items := make([]taggedValue, 0, len(v))
		for _, id := range v {
			items = append(items, taggedValue{Kind: kindObject, Value: mustQuote(id.String())})
		}
		kind, payload = kindList, items
	case []any:
		items := make([]taggedValue, 0, len(v))
		for i, item := range v {
			tagged, err := tag(item)
			if err != nil {
				return taggedValue{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, tagged)
		}
		kind, payload = kindList, items
	default:
		return taggedValue{}, fmt.Errorf("unsupported value type %T", value)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return taggedValue{}, err
	}

	return taggedValue{Kind: kind, Value: raw}, nil
}

func untag(value taggedValue) (any, error) {
	switch value.Kind {
	case kindNull:
		return nil, nil
	case kindString:
		var s string
		err := json.Unmarshal(value.Value, &s)
		return s, err
	case kindBool:
		var b bool
		err := json.Unmarshal(value.Value, &b)
		return b, err
	case kindInt:
		var n int64
		err := json.Unmarshal(value.Value, &n)
		return n, err
	case kindFloat:
		var f float64
		err := json.Unmarshal(value.Value, &f)
		return f, err
	case kindObject:
		var raw string
		if err := json.Unmarshal(value.Value, &raw); err != nil {
			return nil, err
		}
		return domain.ParseObjectID(raw)
	case kindList:
		var items []taggedValue
		if err := json.Unmarshal(value.Value, &items); err != nil {
			return nil, err
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			decoded, err := untag(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, decoded)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", value.Kind)
	}
}

func mustQuote(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}
