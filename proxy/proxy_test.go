package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/engine/enginetest"
	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/resolver"
	"github.com/pixgate/pixgate/transform"
	"github.com/pixgate/pixgate/trie"
)

type fixture struct {
	proxy  *Proxy
	image  *enginetest.Image
	engine *enginetest.Engine
	origin *httptest.Server
}

func newFixture(t *testing.T, policies ...*policy.Policy) *fixture {
	t.Helper()

	originServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.png") {
			http.NotFound(w, r)
			return
		}

		if strings.HasSuffix(r.URL.Path, "/not-an-image") {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html/>"))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(originServer.Close)

	paths := cache.NewTrie(trie.Options{Separator: '/', AllowPrefix: true})
	require.NoError(t, paths.Set("/products", &mapping.PathMapping{
		PathPattern: "/products",
		OriginID:    "products",
		PolicyID:    "p1",
	}))

	hosts := cache.NewTrie(trie.Options{Separator: '.'})

	origins := cache.NewKeyValue()
	origins.Set("products", &origin.Config{
		ID:     "products",
		Name:   "products",
		Domain: originServer.URL,
	})

	policyCache := cache.NewKeyValue()
	for _, p := range policies {
		policyCache.Set(p.ID, p)
	}

	img := &enginetest.Image{
		Meta:        engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1},
		EncodedData: []byte("webp-bytes"),
	}
	eng := &enginetest.Engine{Image: img}

	p := New(Options{
		RequestResolver: resolver.NewRequest(
			mapping.NewResolver(hosts, paths),
			origin.NewResolver(origins),
		),
		TransformResolver: resolver.NewTransform(
			transform.NewExtractor(transform.DefaultRegistry()),
			policy.NewResolver(policyCache),
			0,
		),
		Engine: eng,
	})

	return &fixture{proxy: p, image: img, engine: eng, origin: originServer}
}

func (f *fixture) get(path string, headers ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", path, nil)
	for i := 0; i < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.proxy.ServeHTTP(w, r)
	return w
}

func TestServeAppliesEdits(t *testing.T) {
	f := newFixture(t)

	w := f.get("/products/42.png?resize.width=200&quality=80")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "webp-bytes", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	assert.Equal(t, []byte("png-bytes"), f.engine.Decoded)
	assert.Equal(t, []engine.Operation{engine.OpResize, engine.OpQuality}, f.image.Ops())
}

func TestServeContentTypeFromEngine(t *testing.T) {
	f := newFixture(t)
	f.image.EncodedContentType = "image/jpeg"

	// the requested webp cannot be assumed, the engine's answer counts
	w := f.get("/products/42.png?format=webp")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestServePolicyAndAutoOptimization(t *testing.T) {
	f := newFixture(t, &policy.Policy{
		ID: "p1",
		Transformations: []transform.Transformation{
			{Type: transform.TypeQuality, Value: 90},
		},
		Outputs: &transform.Outputs{
			Format: &transform.FormatOutput{Value: transform.FormatAuto},
		},
	})

	w := f.get("/products/42.png", transform.HeaderAccept, "image/webp")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, []engine.Operation{engine.OpQuality, engine.OpFormat}, f.image.Ops())
	assert.Equal(t, enginetest.AppliedOp{Op: engine.OpFormat, Params: transform.FormatWebP}, f.image.Applied[1])
}

func TestServeNoMapping(t *testing.T) {
	f := newFixture(t)

	w := f.get("/unmapped/42.png")
	assert.Equal(t, 404, w.Code)

	// internal details stay out of the client payload
	assert.NotContains(t, w.Body.String(), "unmapped")
}

func TestServeOriginNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.get("/products/missing.png")
	assert.Equal(t, 404, w.Code)
}

func TestServeOriginNotAnImage(t *testing.T) {
	f := newFixture(t)

	w := f.get("/products/not-an-image")
	assert.Equal(t, 502, w.Code)
}

func TestServeUnknownExplicitPolicy(t *testing.T) {
	f := newFixture(t)

	w := f.get("/products/42.png?policy=missing")
	assert.Equal(t, 404, w.Code)
}

func TestServeDecodeFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.DecodeErr = assert.AnError

	w := f.get("/products/42.png")
	assert.Equal(t, 400, w.Code)
}
