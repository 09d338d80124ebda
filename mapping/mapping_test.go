package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/trie"
)

func makeCaches(t *testing.T, hosts []*HostMapping, paths []*PathMapping) (*cache.Trie, *cache.Trie) {
	t.Helper()

	hc := cache.NewTrie(trie.Options{Separator: '.'})
	for _, m := range hosts {
		require.NoError(t, hc.Set(m.HostPattern, m))
	}

	pc := cache.NewTrie(trie.Options{Separator: '/', AllowPrefix: true})
	for _, m := range paths {
		require.NoError(t, pc.Set(m.PathPattern, m))
	}

	return hc, pc
}

func TestResolvePathMapping(t *testing.T) {
	hc, pc := makeCaches(t,
		nil,
		[]*PathMapping{{PathPattern: "/products", OriginID: "o1", PolicyID: "p1"}},
	)

	r := NewResolver(hc, pc)
	m, err := r.Resolve("/products/shoes/42.png", "")
	require.NoError(t, err)
	assert.Equal(t, "o1", m.OriginID)
	assert.Equal(t, "p1", m.PolicyID)
	assert.False(t, m.ViaHost)
}

func TestHostWinsOverPath(t *testing.T) {
	hc, pc := makeCaches(t,
		[]*HostMapping{{HostPattern: "img.acme.com", OriginID: "host-origin"}},
		[]*PathMapping{{PathPattern: "/products", OriginID: "path-origin"}},
	)

	r := NewResolver(hc, pc)
	m, err := r.Resolve("/products/42.png", "img.acme.com")
	require.NoError(t, err)
	assert.Equal(t, "host-origin", m.OriginID)
	assert.True(t, m.ViaHost)

	// without the routing host, the path mapping applies
	m, err = r.Resolve("/products/42.png", "other.example.org")
	require.NoError(t, err)
	assert.Equal(t, "path-origin", m.OriginID)
}

func TestWildcardHostMapping(t *testing.T) {
	hc, pc := makeCaches(t,
		[]*HostMapping{{HostPattern: "*.acme.com", OriginID: "tenant-origin"}},
		nil,
	)

	r := NewResolver(hc, pc)
	m, err := r.Resolve("/whatever.png", "cdn.acme.com")
	require.NoError(t, err)
	assert.Equal(t, "tenant-origin", m.OriginID)

	// hosts never match by prefix
	_, err = r.Resolve("/whatever.png", "cdn.acme.com.evil.org")
	require.Error(t, err)
}

func TestResolveNotFound(t *testing.T) {
	hc, pc := makeCaches(t, nil, nil)
	r := NewResolver(hc, pc)

	_, err := r.Resolve("/missing.png", "nowhere.example.org")
	require.Error(t, err)

	he := httperr.FromError(err)
	assert.Equal(t, httperr.KindOriginNotFound, he.Kind)
	assert.Contains(t, he.Detail, "/missing.png")
	assert.Contains(t, he.Detail, "nowhere.example.org")
}
