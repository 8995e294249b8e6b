package codec

import (
	"testing"

	"github.com/bnema/objnode/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	parentID = domain.ObjectID{0x01, 15: 1}
	childID  = domain.ObjectID{0x01, 15: 2}
)

func TestTOMLSerializerRoundTrip(t *testing.T) {
	t.Parallel()

	hint := domain.NodeID{Host: "10.0.0.1", Port: 7400}
	obj := &domain.Object{
		ID:        parentID,
		ClassID:   "Person",
		OwnerHint: &hint,
		Fields:    map[string]string{"name": "alice", "city": "Lyon"},
		Refs:      []*domain.Object{{ID: childID, ClassID: "Address"}},
	}

	data, err := TOMLSerializer{}.Serialize(obj)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")

	got, err := TOMLSerializer{}.Deserialize(data, "Person")
	require.NoError(t, err)
	assert.Equal(t, parentID, got.ID)
	assert.Equal(t, domain.ClassID("Person"), got.ClassID)
	assert.True(t, got.Persistent)
	assert.True(t, got.Loaded)
	assert.Equal(t, obj.Fields, got.Fields)
	require.NotNil(t, got.OwnerHint)
	assert.Equal(t, hint, *got.OwnerHint)
	require.Len(t, got.Refs, 1)
	assert.Equal(t, childID, got.Refs[0].ID)
	assert.False(t, got.Refs[0].Loaded)
}

func TestTOMLSerializerRejectsUnidentifiedObjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		obj  *domain.Object
	}{
		{name: "nil", obj: nil},
		{name: "no id", obj: &domain.Object{ClassID: "Person"}},
		{name: "transient reference", obj: &domain.Object{ID: parentID, ClassID: "Person", Refs: []*domain.Object{{ClassID: "Address"}}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := TOMLSerializer{}.Serialize(tc.obj)
			require.ErrorIs(t, err, domain.ErrMalformedGraph)
		})
	}
}

func TestTOMLSerializerChecksClass(t *testing.T) {
	t.Parallel()

	data, err := TOMLSerializer{}.Serialize(&domain.Object{ID: parentID, ClassID: "Person"})
	require.NoError(t, err)

	_, err = TOMLSerializer{}.Deserialize(data, "Invoice")
	assert.ErrorContains(t, err, `stored class "Person"`)

	got, err := TOMLSerializer{}.Deserialize(data, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassID("Person"), got.ClassID)
}

func TestJSONArgsPreservesTypes(t *testing.T) {
	t.Parallel()

	args := []any{"alice", 42, int64(7), 2.5, true, nil, childID, []any{"x", parentID}}

	data, err := JSONArgs{}.EncodeArgs(args)
	require.NoError(t, err)

	got, err := JSONArgs{}.DecodeArgs(data)
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", int64(42), int64(7), 2.5, true, nil, childID, []any{"x", parentID}}, got)
}

func TestJSONArgsResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result any
		want   any
	}{
		{name: "nil", result: nil, want: nil},
		{name: "object id", result: childID, want: childID},
		{name: "id list", result: []domain.ObjectID{parentID, childID}, want: []any{parentID, childID}},
		{name: "string", result: "ok", want: "ok"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := JSONArgs{}.EncodeResult(tc.result)
			require.NoError(t, err)

			got, err := JSONArgs{}.DecodeResult(data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJSONArgsRejectsUnsupportedValues(t *testing.T) {
	t.Parallel()

	_, err := JSONArgs{}.EncodeArgs([]any{struct{}{}})
	assert.ErrorContains(t, err, "unsupported value type")

	_, err = JSONArgs{}.DecodeArgs([]byte(`[{"k":"complex","v":1}]`))
	assert.ErrorContains(t, err, "unknown value kind")
}

func TestJSONArgsEmptyPayload(t *testing.T) {
	t.Parallel()

	args, err := JSONArgs{}.DecodeArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, args)

	data, err := JSONArgs{}.EncodeArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
