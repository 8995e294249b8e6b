// Package shard provides a hash-sharded map whose buckets each carry their own
// lock, so operations on unrelated keys do not serialize on a global mutex.
package shard

import (
	"hash/fnv"
	"sync"

	"golang.org/x/sys/cpu"
)

const DefaultShards = 64

type Hasher[K comparable] func(K) uint32

type Map[K comparable, V any] struct {
	buckets []*bucket[K, V]
	mask    uint32
	hash    Hasher[K]
}

type bucket[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	_     cpu.CacheLinePad
}

func New[K comparable, V any](shards int, hash Hasher[K]) *Map[K, V] {
	if shards <= 0 {
		shards = DefaultShards
	}
	n := nextPowerOfTwo(uint32(shards))

	buckets := make([]*bucket[K, V], n)
	for i := range buckets {
		buckets[i] = &bucket[K, V]{items: make(map[K]V)}
	}

	return &Map[K, V]{buckets: buckets, mask: n - 1, hash: hash}
}

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	return m.buckets[m.hash(key)&m.mask]
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	b := m.bucketFor(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.items[key]
	return v, ok
}

// LoadOrCreate returns the value stored under key, creating it with create when
// absent. The unlocked-then-locked double check keeps the hot path on the read
// lock. created reports whether this call inserted the value.
func (m *Map[K, V]) LoadOrCreate(key K, create func() V) (v V, created bool) {
	b := m.bucketFor(key)

	b.mu.RLock()
	v, ok := b.items[key]
	b.mu.RUnlock()
	if ok {
		return v, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if v, ok := b.items[key]; ok {
		return v, false
	}
	v = create()
	b.items[key] = v
	return v, true
}

// Compute runs fn under the write lock of key's bucket. fn receives the current
// value (zero value and false when absent) and returns the value to keep; when
// keep is false the key is removed.
func (m *Map[K, V]) Compute(key K, fn func(v V, ok bool) (V, bool)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.items[key]
	next, keep := fn(current, ok)
	if !keep {
		delete(b.items, key)
		return
	}
	b.items[key] = next
}

// View runs fn under the read lock of key's bucket.
func (m *Map[K, V]) View(key K, fn func(v V, ok bool)) {
	b := m.bucketFor(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.items[key]
	fn(v, ok)
}

func (m *Map[K, V]) Store(key K, v V) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[key] = v
}

func (m *Map[K, V]) Delete(key K) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.items, key)
}

// Keys returns a point-in-time copy of the key set. Keys inserted while the
// copy is taken may or may not be included.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for _, b := range m.buckets {
		b.mu.RLock()
		for k := range b.items {
			keys = append(keys, k)
		}
		b.mu.RUnlock()
	}
	return keys
}

func (m *Map[K, V]) Len() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.RLock()
		n += len(b.items)
		b.mu.RUnlock()
	}
	return n
}

func StringHash[K ~string](key K) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

func BytesHash[K ~[16]byte](key K) uint32 {
	h := fnv.New32a()
	b := [16]byte(key)
	_, _ = h.Write(b[:])
	return h.Sum32()
}

func nextPowerOfTwo(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
