// Package cache provides a bounded in-memory cache for remote metadata.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is a single cached value together with its expiry deadline.
// A zero deadline means the entry never expires.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is a key-value store with a maximum entry count and a per-entry
// time-to-live. The least-recently-used entry is evicted when an insert
// would exceed the size limit; expired entries are dropped lazily when
// accessed. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	order   *list.List // front = most recently used
	items   map[string]*list.Element
	now     func() time.Time
}

// New creates a cache holding at most maxSize entries, each expiring ttl
// after insertion. A maxSize of 0 disables size eviction; a ttl of 0
// disables expiry.
func New(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the value stored under key. An expired entry is removed and
// reported as a miss. A hit promotes the entry to most-recently-used.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*entry)
	if !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt) {
		c.remove(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key, replacing any existing entry. If the cache
// is full the least-recently-used entry is evicted first.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	ent := &entry{key: key, value: value}
	if c.ttl > 0 {
		ent.expiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = c.order.PushFront(ent)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of stored entries, including entries that have
// expired but not yet been dropped by an access.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
