package resolver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/reqctx"
	"github.com/pixgate/pixgate/transform"
	"github.com/pixgate/pixgate/trie"
)

func requestResolver(t *testing.T) *Request {
	t.Helper()

	hosts := cache.NewTrie(trie.Options{Separator: '.'})
	require.NoError(t, hosts.Set("img.acme.com", &mapping.HostMapping{
		HostPattern: "img.acme.com",
		OriginID:    "acme",
	}))

	paths := cache.NewTrie(trie.Options{Separator: '/', AllowPrefix: true})
	require.NoError(t, paths.Set("/products", &mapping.PathMapping{
		PathPattern: "/products",
		OriginID:    "products",
		PolicyID:    "p1",
	}))

	origins := cache.NewKeyValue()
	origins.Set("products", &origin.Config{
		ID:     "products",
		Name:   "product images",
		Domain: "img-origin.example.com",
		Path:   "/raw",
	})

	return NewRequest(
		mapping.NewResolver(hosts, paths),
		origin.NewResolver(origins),
	)
}

func TestRequestResolve(t *testing.T) {
	r := requestResolver(t)

	ctx := reqctx.New(http.Header{})
	require.NoError(t, r.Resolve(ctx, "/products/shoes/42.png", ""))

	assert.Equal(t, "p1", ctx.Mapping.PolicyID)
	assert.Equal(t, "https://img-origin.example.com/products/shoes/raw/42.png", ctx.OriginURL)
	assert.NotZero(t, ctx.Timings.MappingResolveMicros)
}

func TestRequestResolveUnknownOrigin(t *testing.T) {
	r := requestResolver(t)

	// the host mapping references an origin missing from the cache
	ctx := reqctx.New(http.Header{})
	err := r.Resolve(ctx, "/anything.png", "img.acme.com")
	require.Error(t, err)
	assert.Equal(t, httperr.KindOriginNotFound, httperr.FromError(err).Kind)
}

func TestRequestResolveNoMapping(t *testing.T) {
	r := requestResolver(t)

	ctx := reqctx.New(http.Header{})
	err := r.Resolve(ctx, "/unmapped.png", "")
	require.Error(t, err)
	assert.Equal(t, 404, httperr.FromError(err).Status)
}

func transformResolver(t *testing.T, policies ...*policy.Policy) *Transform {
	t.Helper()

	c := cache.NewKeyValue()
	for _, p := range policies {
		c.Set(p.ID, p)
	}

	return NewTransform(
		transform.NewExtractor(transform.DefaultRegistry()),
		policy.NewResolver(c),
		0,
	)
}

func TestTransformResolveMergesAllSources(t *testing.T) {
	r := transformResolver(t, &policy.Policy{
		ID: "p1",
		Transformations: []transform.Transformation{
			{Type: transform.TypeFormat, Value: transform.FormatJPEG},
			{Type: transform.TypeQuality, Value: 90},
			{Type: transform.TypeRotate, Value: 45},
		},
		Outputs: &transform.Outputs{
			Autosize: &transform.AutosizeOutput{Breakpoints: []int{320, 640}},
		},
	})

	headers := http.Header{}
	headers.Set(transform.HeaderViewportWidth, "400")

	ctx := reqctx.New(headers)
	ctx.Mapping = &mapping.Resolved{PolicyID: "p1"}

	require.NoError(t, r.Resolve(ctx, "quality=75", "", "image/png"))

	list := ctx.Transformations
	require.Len(t, list, 4)

	assert.Equal(t, transform.TypeFormat, list[0].Type)
	assert.Equal(t, transform.SourcePolicy, list[0].Source)

	assert.Equal(t, transform.TypeQuality, list[1].Type)
	assert.Equal(t, 75, list[1].Value)
	assert.Equal(t, transform.SourceURL, list[1].Source)

	assert.Equal(t, transform.TypeRotate, list[2].Type)

	assert.Equal(t, transform.TypeResize, list[3].Type)
	assert.Equal(t, transform.SourceAuto, list[3].Source)
	assert.Equal(t, transform.ResizeParams{Width: 640}, list[3].Value)
}

func TestTransformResolveExplicitPolicyMissing(t *testing.T) {
	r := transformResolver(t)

	ctx := reqctx.New(http.Header{})
	err := r.Resolve(ctx, "", "missing", "image/png")
	require.Error(t, err)
	assert.Equal(t, httperr.KindPolicyNotFound, httperr.FromError(err).Kind)
}

func TestTransformResolveNoPolicy(t *testing.T) {
	r := transformResolver(t)

	ctx := reqctx.New(http.Header{})
	require.NoError(t, r.Resolve(ctx, "quality=80", "", "image/png"))

	require.Len(t, ctx.Transformations, 1)
	assert.Equal(t, transform.TypeQuality, ctx.Transformations[0].Type)
}

func TestTransformResolveConditionalExcluded(t *testing.T) {
	r := transformResolver(t, &policy.Policy{
		ID:        "p1",
		IsDefault: true,
		Transformations: []transform.Transformation{
			{Type: transform.TypeQuality, Value: 80},
			{
				Type:  transform.TypeFormat,
				Value: transform.FormatWebP,
				Conditional: &transform.Conditional{
					Target:   "accept-hint",
					Operator: transform.OpEquals,
					Value:    "image/webp",
				},
			},
		},
	})

	ctx := reqctx.New(http.Header{})
	require.NoError(t, r.Resolve(ctx, "", "", "image/png"))

	require.Len(t, ctx.Transformations, 1)
	assert.Equal(t, transform.TypeQuality, ctx.Transformations[0].Type)
}

func TestTransformResolveLimit(t *testing.T) {
	var many []transform.Transformation
	for _, typ := range []string{
		transform.TypeFormat, transform.TypeQuality, transform.TypeRotate,
		transform.TypeBlur, transform.TypeSharpen, transform.TypeFlip,
		transform.TypeFlop, transform.TypeGrayscale, transform.TypeStrip,
		transform.TypeTint, transform.TypeFlatten, transform.TypeResize,
	} {
		many = append(many, transform.Transformation{Type: typ, Value: 1})
	}

	r := transformResolver(t, &policy.Policy{ID: "p1", IsDefault: true, Transformations: many})

	ctx := reqctx.New(http.Header{})
	require.NoError(t, r.Resolve(ctx, "", "", "image/png"))
	assert.Len(t, ctx.Transformations, transform.DefaultMaxTransformations)
}
