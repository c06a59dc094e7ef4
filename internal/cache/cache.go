// Package cache provides a small generic LRU cache with per-entry TTL.
// It backs the browser session store and the advisory items cache.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// Cache is an LRU cache with TTL and size-based eviction. The zero value is
// not usable; construct with New.
type Cache[T any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	index      map[string]*list.Element
	order      *list.List // front = most recently used
}

func New[T any](maxEntries int, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		maxEntries: maxEntries,
		ttl:        ttl,
		index:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the cached value for key, refreshing its recency. Expired
// entries are dropped on access.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[T])
	if time.Now().After(ent.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores value under key, evicting the least recently used entry when the
// cache is full. An existing entry gets a fresh TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.index[key]; ok {
		elem.Value = ent
		c.order.MoveToFront(elem)
		return
	}
	c.index[key] = c.order.PushFront(ent)
	if c.order.Len() > c.maxEntries {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.remove(elem)
	}
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// PruneExpired removes every expired entry and reports how many were dropped.
func (c *Cache[T]) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Janitor prunes expired entries on the given interval until stop is closed.
func (c *Cache[T]) Janitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.PruneExpired()
		case <-stop:
			return
		}
	}
}

// caller must hold c.mu
func (c *Cache[T]) remove(elem *list.Element) {
	ent := elem.Value.(*entry[T])
	delete(c.index, ent.key)
	c.order.Remove(elem)
}
