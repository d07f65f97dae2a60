package catalogue

import (
	"hash/fnv"
	"sync"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

const numShards = 16

// ShardedPoolMap is a sharded map for pools to reduce lock contention
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[string]*domain.Pool
}

// NewShardedPoolMap creates a new sharded pool map
func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[string]*domain.Pool)
	}
	return m
}

// getShard returns the shard for a pool id
func (m *ShardedPoolMap) getShard(id string) *poolShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.shards[h.Sum32()%numShards]
}

// Get retrieves a pool by id
func (m *ShardedPoolMap) Get(id string) (*domain.Pool, bool) {
	shard := m.getShard(id)
	shard.mu.RLock()
	pool, ok := shard.pools[id]
	shard.mu.RUnlock()
	return pool, ok
}

// Set stores a pool
func (m *ShardedPoolMap) Set(pool *domain.Pool) {
	shard := m.getShard(pool.ID)
	shard.mu.Lock()
	shard.pools[pool.ID] = pool
	shard.mu.Unlock()
}

// Delete removes a pool
func (m *ShardedPoolMap) Delete(id string) {
	shard := m.getShard(id)
	shard.mu.Lock()
	delete(shard.pools, id)
	shard.mu.Unlock()
}

// Len returns total count across all shards
func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all pools (acquires locks per shard)
func (m *ShardedPoolMap) Range(f func(id string, pool *domain.Pool) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].pools {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}

// Snapshot copies the id -> pool mapping. Pools are shared and must not be modified.
func (m *ShardedPoolMap) Snapshot() map[string]*domain.Pool {
	out := make(map[string]*domain.Pool, m.Len())
	m.Range(func(id string, pool *domain.Pool) bool {
		out[id] = pool
		return true
	})
	return out
}

// Replace swaps the contents for pools, removing ids that are no longer present
func (m *ShardedPoolMap) Replace(pools map[string]*domain.Pool) {
	for i := 0; i < numShards; i++ {
		shard := &m.shards[i]
		shard.mu.Lock()
		for id := range shard.pools {
			if _, ok := pools[id]; !ok {
				delete(shard.pools, id)
			}
		}
		shard.mu.Unlock()
	}
	for _, pool := range pools {
		m.Set(pool)
	}
}
