package sharded

import (
	"sync"
)

// DefaultShards is the shard count used by callers that have no better estimate.
const DefaultShards = 64

type mapShard[K Key, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// Map is a concurrent map split into independently locked shards so that
// many workers can publish results without contending on one mutex.
type Map[K Key, V any] struct {
	shards []*mapShard[K, V]
}

// NewMap creates a Map with numShards shards. numShards must be a power of 2.
func NewMap[K Key, V any](numShards int) *Map[K, V] {
	if !isPowerOfTwo(numShards) {
		panic("num shards must be a power of 2")
	}
	m := &Map[K, V]{shards: make([]*mapShard[K, V], numShards)}
	for i := range numShards {
		m.shards[i] = &mapShard[K, V]{items: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) shard(key K) *mapShard[K, V] {
	return m.shards[shardIndex(key, len(m.shards))]
}

// Store adds a key-value pair to the map.
func (m *Map[K, V]) Store(key K, value V) {
	s := m.shard(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// Count returns the total number of elements in the map.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		count += len(s.items)
		s.mu.RUnlock()
	}
	return count
}

// Values returns a snapshot of all values in no particular order.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.Count())
	for _, s := range m.shards {
		s.mu.RLock()
		for _, v := range s.items {
			values = append(values, v)
		}
		s.mu.RUnlock()
	}
	return values
}
