// Package cache provides the bounded expiring caches used by the routing and pricing services.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Clock is injected so expiry can be driven from tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var SystemClock Clock = systemClock{}

// ManualClock only moves when Advance or Set is called.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// TTLCache is a thread-safe bounded LRU cache whose entries expire after a fixed TTL
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	cache   map[K]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	clock   Clock
	zeroVal V
}

type ttlEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache holding at most maxSize entries. A nil clock uses wall time.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration, clock Clock) *TTLCache[K, V] {
	if clock == nil {
		clock = SystemClock
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTLCache[K, V]{
		cache:   make(map[K]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns a live entry and promotes it. Expired entries are removed.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return c.zeroVal, false
	}
	entry := elem.Value.(*ttlEntry[K, V])
	if !c.clock.Now().Before(entry.expiresAt) {
		c.lru.Remove(elem)
		delete(c.cache, key)
		return c.zeroVal, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// GetStale returns an entry even if it has expired
func (c *TTLCache[K, V]) GetStale(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return c.zeroVal, false
	}
	return elem.Value.(*ttlEntry[K, V]).value, true
}

// Set adds or replaces a value and restarts its TTL
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*ttlEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	for len(c.cache) >= c.maxSize {
		c.evictLRU()
	}

	elem := c.lru.PushFront(&ttlEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.cache[key] = elem
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.lru.Remove(elem)
		delete(c.cache, key)
	}
}

// evictLRU removes the least recently used entry
// Must be called with mu held
func (c *TTLCache[K, V]) evictLRU() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*ttlEntry[K, V])
	c.lru.Remove(back)
	delete(c.cache, entry.key)
}

// PurgeExpired drops every expired entry and returns how many were removed
func (c *TTLCache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, elem := range c.cache {
		if !now.Before(elem.Value.(*ttlEntry[K, V]).expiresAt) {
			c.lru.Remove(elem)
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

func (c *TTLCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[K]*list.Element, c.maxSize)
	c.lru.Init()
}
