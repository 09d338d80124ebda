/*
Package origin holds the origin configuration records and resolves the
origin for a mapped request.

The resolver never hands out the cached record itself: it clones before
normalizing, so request handling cannot corrupt the warm cache.
*/
package origin

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/httperr"
)

// Config describes an upstream image origin.
type Config struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Domain  string      `yaml:"domain"`
	Path    string      `yaml:"path,omitempty"`
	Headers http.Header `yaml:"headers,omitempty"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	cc := *c
	if c.Headers != nil {
		cc.Headers = c.Headers.Clone()
	}

	return &cc
}

var schemeRx = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeDomain prepends https:// when the domain carries no URI scheme.
// It is idempotent: an already schemed domain is returned unchanged.
func NormalizeDomain(domain string) string {
	if schemeRx.MatchString(domain) {
		return domain
	}

	return "https://" + domain
}

// Resolver looks up and validates origin configurations.
type Resolver struct {
	origins *cache.KeyValue
}

// NewResolver creates a resolver over the origin cache.
func NewResolver(origins *cache.KeyValue) *Resolver {
	return &Resolver{origins: origins}
}

// Resolve returns a validated copy of the origin configuration for id. A
// missing origin or a configuration that fails validation is a typed error,
// never a silent fallback.
func (r *Resolver) Resolve(id string) (*Config, error) {
	v, ok := r.origins.Get(id)
	if !ok {
		return nil, httperr.OriginNotFound(
			"origin not found",
			fmt.Sprintf("mapping references unknown origin %q", id),
		)
	}

	c := v.(*Config).Clone()
	c.Domain = NormalizeDomain(c.Domain)

	if c.ID == "" || c.Name == "" || c.Domain == "" {
		return nil, httperr.OriginInvalid(
			"invalid origin configuration",
			fmt.Sprintf("origin %q has empty required fields", id),
		)
	}

	u, err := url.Parse(c.Domain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, httperr.OriginInvalid(
			"invalid origin configuration",
			fmt.Sprintf("origin %q domain %q is not a well formed URL", id, c.Domain),
		)
	}

	return c, nil
}

func joinSlash(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}

		b.WriteByte('/')
		b.WriteString(p)
	}

	return b.String()
}

// BuildURL composes the upstream URL for a request path. The origin path is
// inserted between the request path's directory and its final segment, and
// duplicate slashes across all segments are collapsed.
func (c *Config) BuildURL(requestPath string) string {
	dir, file := "", requestPath
	if i := strings.LastIndexByte(requestPath, '/'); i >= 0 {
		dir, file = requestPath[:i], requestPath[i+1:]
	}

	return strings.TrimSuffix(c.Domain, "/") + joinSlash(dir, c.Path, file)
}
