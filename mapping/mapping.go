/*
Package mapping resolves an inbound request to the mapping that names its
origin and, optionally, its transformation policy.

Two mapping kinds exist: path mappings, keyed by URL path segments with
longest-prefix semantics, and host mappings, keyed by dot-separated host
segments with exact-or-wildcard semantics only. A matching host mapping
always wins over a matching path mapping, which lets operators override
path-based routing per tenant via the routing host header.
*/
package mapping

import (
	"fmt"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/httperr"
)

// PathMapping binds a URL path pattern to an origin and optional policy.
// Patterns may contain "*" segments matching any single path segment.
type PathMapping struct {
	PathPattern string `yaml:"path"`
	OriginID    string `yaml:"origin-id"`
	PolicyID    string `yaml:"policy-id,omitempty"`
}

// HostMapping binds a host pattern to an origin and optional policy.
// Patterns may contain "*" segments matching any single host label.
type HostMapping struct {
	HostPattern string `yaml:"host"`
	OriginID    string `yaml:"origin-id"`
	PolicyID    string `yaml:"policy-id,omitempty"`
}

// Resolved is the outcome of a mapping lookup.
type Resolved struct {
	OriginID string
	PolicyID string
	Pattern  string
	ViaHost  bool
}

// Resolver looks up mappings in the warm caches.
type Resolver struct {
	hosts *cache.Trie
	paths *cache.Trie
}

// NewResolver creates a resolver over the host and path mapping caches.
func NewResolver(hosts, paths *cache.Trie) *Resolver {
	return &Resolver{hosts: hosts, paths: paths}
}

// Resolve finds the mapping for a request path and routing host. The host
// lookup runs first and wins when both match. When neither matches, the
// returned error names both the path and the host that were tried.
func (r *Resolver) Resolve(path, host string) (*Resolved, error) {
	if host != "" {
		if v, ok := r.hosts.FindLongestPrefix(host); ok {
			m := v.(*HostMapping)
			return &Resolved{
				OriginID: m.OriginID,
				PolicyID: m.PolicyID,
				Pattern:  m.HostPattern,
				ViaHost:  true,
			}, nil
		}
	}

	if v, ok := r.paths.FindLongestPrefix(path); ok {
		m := v.(*PathMapping)
		return &Resolved{
			OriginID: m.OriginID,
			PolicyID: m.PolicyID,
			Pattern:  m.PathPattern,
		}, nil
	}

	return nil, httperr.OriginNotFound(
		"no mapping for request",
		fmt.Sprintf("no mapping matched path %q or host %q", path, host),
	)
}
