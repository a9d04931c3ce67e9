package ingestion

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DedupCache is an in-memory, SHA-256-keyed LRU over (entity_id,
// source_kind, content) (spec §4.6 step 5: "consult and then update the
// semantic dedup cache (bounded in memory; eviction LRU at a configured
// cap)"). No example repo imports a third-party LRU library directly
// (hashicorp/golang-lru appears only as an indirect, never-imported
// dependency of a sibling example), so this is built on stdlib
// container/list + map, the same list+map LRU shape container/list's own
// doc example demonstrates.
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type entry struct {
	key string
}

// NewDedupCache returns a cache bounded at capacity entries (spec §6
// dedup_cache_capacity). capacity<=0 defaults to 2048.
func NewDedupCache(capacity int) *DedupCache {
	if capacity <= 0 {
		capacity = 2048
	}
	return &DedupCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Key returns the SHA-256 hex digest over (entityID, sourceKind, content).
func Key(entityID, sourceKind, content string) string {
	h := sha256.New()
	h.Write([]byte(entityID))
	h.Write([]byte{0})
	h.Write([]byte(sourceKind))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Seen reports whether key was already recorded, and records it (moving
// it to most-recently-used if already present, evicting the least
// recently used entry if the cache is at capacity).
func (c *DedupCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return true
	}

	el := c.ll.PushFront(&entry{key: key})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	return false
}

// Len reports the current number of cached entries.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
