package cache

import (
	"sync"

	"github.com/pixgate/pixgate/trie"
)

// Trie wraps a segment trie with the same lock discipline as KeyValue, for
// pattern-keyed records like path and host mappings.
type Trie struct {
	mu sync.RWMutex
	t  *trie.Tree

	// kept to rebuild the tree on Reset
	options trie.Options
}

// NewTrie creates an empty trie cache with the given matching options.
func NewTrie(o trie.Options) *Trie {
	return &Trie{t: trie.New(o), options: o}
}

// Set associates a value with a pattern key.
func (c *Trie) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t.Set(key, value)
}

// Get returns the value stored at exactly key.
func (c *Trie) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.t.Get(key)
}

// Has reports whether a value is stored at exactly key.
func (c *Trie) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.t.Has(key)
}

// Del removes the value stored at key.
func (c *Trie) Del(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t.Del(key)
}

// Size returns the number of stored values.
func (c *Trie) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.t.Size()
}

// FindLongestPrefix returns the deepest matching value for key.
func (c *Trie) FindLongestPrefix(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.t.FindLongestPrefix(key)
}

// Reset replaces the whole content of the cache in one step.
func (c *Trie) Reset(values map[string]any) error {
	t := trie.New(c.options)
	for k, v := range values {
		if err := t.Set(k, v); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = t
	return nil
}
