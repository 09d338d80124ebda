package cache

import "fmt"

// Names of the caches assembled at process start.
const (
	NamePathMappings = "pathMappings"
	NameHostMappings = "hostMappings"
	NameOrigins      = "origins"
	NamePolicies     = "policies"
)

// Registry maps cache names to cache instances. It is assembled once during
// startup and passed by reference to the request handlers; looking up a name
// that was never registered is a configuration error.
type Registry struct {
	caches map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caches: make(map[string]any)}
}

// Register stores a cache instance under name.
func (r *Registry) Register(name string, c any) {
	r.caches[name] = c
}

// KeyValue returns the key-value cache registered under name.
func (r *Registry) KeyValue(name string) (*KeyValue, error) {
	c, ok := r.caches[name]
	if !ok {
		return nil, fmt.Errorf("cache not registered: %s", name)
	}

	kv, ok := c.(*KeyValue)
	if !ok {
		return nil, fmt.Errorf("cache %s is not a key-value cache", name)
	}

	return kv, nil
}

// Trie returns the trie cache registered under name.
func (r *Registry) Trie(name string) (*Trie, error) {
	c, ok := r.caches[name]
	if !ok {
		return nil, fmt.Errorf("cache not registered: %s", name)
	}

	t, ok := c.(*Trie)
	if !ok {
		return nil, fmt.Errorf("cache %s is not a trie cache", name)
	}

	return t, nil
}
