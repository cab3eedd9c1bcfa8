package cache

import (
	"sync"
	"time"
)

// TTLCache holds values for a fixed time after they are set. Expired entries
// are dropped when they are next read or overwritten.
type TTLCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry[T]
	now   func() time.Time
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// NewTTLCache creates a cache whose entries live for ttl as measured by now.
func NewTTLCache[T any](ttl time.Duration, now func() time.Time) *TTLCache[T] {
	return &TTLCache[T]{
		ttl:   ttl,
		items: make(map[string]entry[T]),
		now:   now,
	}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		var zero T
		return zero, false
	}
	return item.data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{data: data, expiresAt: c.now().Add(c.ttl)}
}
