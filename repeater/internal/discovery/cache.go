package discovery

import (
	"maps"
	"sync"
)

// Cache is a generic table fed from netlink.
//
// Point lookups and point updates work in place under a read-write lock,
// so neither allocates. Full resyncs swap the whole underlying map.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	cache map[K]V
}

// NewCache constructs a new cache using specified underlying map.
//
// The cache takes ownership of the map.
func NewCache[K comparable, V any](cache map[K]V) *Cache[K, V] {
	if cache == nil {
		cache = map[K]V{}
	}

	return &Cache[K, V]{
		cache: cache,
	}
}

// NewEmptyCache returns an empty cache.
func NewEmptyCache[K comparable, V any]() *Cache[K, V] {
	return NewCache(map[K]V{})
}

// Lookup returns the value for the specified key.
func (m *Cache[K, V]) Lookup(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.cache[key]
	return value, ok
}

// Len returns the number of entries.
func (m *Cache[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.cache)
}

// Entries returns a copy of all entries.
func (m *Cache[K, V]) Entries() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.cache)
}

// Swap atomically replaces the entire table.
//
// The cache takes ownership of the map.
func (m *Cache[K, V]) Swap(cache map[K]V) {
	if cache == nil {
		cache = map[K]V{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache = cache
}

// Store sets the value for the key.
func (m *Cache[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[key] = value
}

// Update applies fn to the table in place under the write lock.
//
// fn must not retain the map.
func (m *Cache[K, V]) Update(fn func(cache map[K]V)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.cache)
}
