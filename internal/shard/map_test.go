package shard

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   uint32
		want uint32
	}{
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 3, want: 4},
		{in: 16, want: 16},
		{in: 17, want: 32},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, nextPowerOfTwo(tc.in), "in=%d", tc.in)
	}
}

func TestMapLoadOrCreateCreatesOnce(t *testing.T) {
	t.Parallel()

	m := New[string, *int](4, StringHash[string])

	var creates atomic.Int32
	var wg sync.WaitGroup
	results := make([]*int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := m.LoadOrCreate("k", func() *int {
				creates.Add(1)
				n := i
				return &n
			})
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), creates.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestMapComputeDeletesWhenNotKept(t *testing.T) {
	t.Parallel()

	m := New[string, int](0, StringHash[string])
	m.Store("a", 1)

	m.Compute("a", func(v int, ok bool) (int, bool) {
		require.True(t, ok)
		return v + 1, true
	})
	v, ok := m.Load("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	m.Compute("a", func(int, bool) (int, bool) { return 0, false })
	_, ok = m.Load("a")
	assert.False(t, ok)

	m.Compute("b", func(v int, ok bool) (int, bool) {
		assert.False(t, ok)
		return 7, true
	})
	m.View("b", func(v int, ok bool) {
		assert.True(t, ok)
		assert.Equal(t, 7, v)
	})
}

func TestMapKeysSnapshot(t *testing.T) {
	t.Parallel()

	m := New[string, struct{}](8, StringHash[string])
	for i := 0; i < 100; i++ {
		m.Store(fmt.Sprintf("key-%03d", i), struct{}{})
	}
	m.Delete("key-050")

	keys := m.Keys()
	sort.Strings(keys)

	assert.Len(t, keys, 99)
	assert.Equal(t, 99, m.Len())
	assert.NotContains(t, keys, "key-050")
	assert.Equal(t, "key-000", keys[0])
}

func TestBytesHashSpreadsKeys(t *testing.T) {
	t.Parallel()

	m := New[[16]byte, int](16, BytesHash[[16]byte])
	for i := 0; i < 256; i++ {
		m.Store([16]byte{byte(i)}, i)
	}

	used := 0
	for _, b := range m.buckets {
		if len(b.items) > 0 {
			used++
		}
	}
	assert.Greater(t, used, 8)
}
