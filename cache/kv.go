/*
Package cache provides the in-memory stores used by the request pipeline: a
flat key-value cache for records addressed by id, a concurrency-safe wrapper
around the segment trie for pattern lookup, a registry of named cache
instances assembled at process start, and the retrying warm-up that fills
them from the backing store.

Caches are populated once during startup and are read-mostly afterwards.
Every cache carries a read-write lock so that administrative re-cache and
invalidate calls can race safely with request-time reads. Cached values are
treated as immutable: callers that need to modify a record must clone it
first.
*/
package cache

import "sync"

// KeyValue is a flat cache keyed by entity id.
type KeyValue struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewKeyValue creates an empty key-value cache.
func NewKeyValue() *KeyValue {
	return &KeyValue{m: make(map[string]any)}
}

// Get returns the value stored under key.
func (c *KeyValue) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.m[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value.
func (c *KeyValue) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[key] = value
}

// Del removes the value stored under key and reports whether it existed.
func (c *KeyValue) Del(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.m[key]
	delete(c.m, key)
	return ok
}

// Has reports whether a value is stored under key.
func (c *KeyValue) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.m[key]
	return ok
}

// Size returns the number of stored values.
func (c *KeyValue) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.m)
}

// GetAll returns a snapshot of all stored values.
func (c *KeyValue) GetAll() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]any, 0, len(c.m))
	for _, v := range c.m {
		all = append(all, v)
	}

	return all
}

// Reset replaces the whole content of the cache in one step.
func (c *KeyValue) Reset(values map[string]any) {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.m = m
}
