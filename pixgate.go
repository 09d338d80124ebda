/*
Package pixgate provides an HTTP edge service that delivers images from
configured origins, with per-request transformations resolved from the
request URL, from delivery policies and from client hints.

Pixgate works as an HTTP proxy that maps incoming requests to origin
image servers based on path and host mappings, fetches the source image,
and applies a merged, capped set of edits through a pluggable image
engine before responding.

The package assembles the subsystems (caches, resolvers, the transform
pipeline and the proxy handler) and runs the main and support listeners.
Its primary use case is the default executable command, but it can be
embedded with a custom engine or datastore.
*/
package pixgate

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/datastore"
	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/health"
	"github.com/pixgate/pixgate/logging"
	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/metrics"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/proxy"
	"github.com/pixgate/pixgate/resolver"
	"github.com/pixgate/pixgate/transform"
	"github.com/pixgate/pixgate/trie"
)

// Options to start pixgate.
type Options struct {

	// Network address that pixgate should listen on.
	Address string

	// Network address for the support endpoints /metrics and /health.
	// When empty, no support listener is started.
	SupportListener string

	// Store provides the mappings, origins and policies that the caches
	// are warmed from.
	Store datastore.Store

	// Engine decodes, edits and encodes images.
	Engine engine.Engine

	// Header carrying the client-facing host when pixgate runs behind
	// another proxy.
	RoutingHostHeader string

	// Cap on the number of transformations applied per request. Zero
	// means the built-in default.
	MaxTransformations int

	// Timeout for fetching the source image from the origin.
	OriginTimeout time.Duration

	// MetricsFlavour selects the metrics backend.
	MetricsFlavour metrics.Kind

	// Prefix for the keys of the collected metrics.
	MetricsPrefix string

	// Options for the application and access logs.
	Log logging.Options
}

// newRegistry creates the named caches that serve request resolution.
func newRegistry() *cache.Registry {
	r := cache.NewRegistry()
	r.Register(cache.NamePathMappings, cache.NewTrie(trie.Options{Separator: '/', AllowPrefix: true}))
	r.Register(cache.NameHostMappings, cache.NewTrie(trie.Options{Separator: '.'}))
	r.Register(cache.NameOrigins, cache.NewKeyValue())
	r.Register(cache.NamePolicies, cache.NewKeyValue())
	return r
}

// warmTasks binds each cache to its record set in the store. Tasks reset
// the cache as a whole so that a retry after a partial failure cannot
// leave stale entries behind.
func warmTasks(r *cache.Registry, store datastore.Store) ([]cache.WarmTask, error) {
	paths, err := r.Trie(cache.NamePathMappings)
	if err != nil {
		return nil, err
	}

	hosts, err := r.Trie(cache.NameHostMappings)
	if err != nil {
		return nil, err
	}

	origins, err := r.KeyValue(cache.NameOrigins)
	if err != nil {
		return nil, err
	}

	policies, err := r.KeyValue(cache.NamePolicies)
	if err != nil {
		return nil, err
	}

	return []cache.WarmTask{{
		Name: cache.NamePathMappings,
		Fill: func(ctx context.Context) error {
			all, err := store.GetAllPathMappings(ctx)
			if err != nil {
				return err
			}

			values := make(map[string]any, len(all))
			for _, m := range all {
				values[m.PathPattern] = m
			}

			return paths.Reset(values)
		},
	}, {
		Name: cache.NameHostMappings,
		Fill: func(ctx context.Context) error {
			all, err := store.GetAllHostMappings(ctx)
			if err != nil {
				return err
			}

			values := make(map[string]any, len(all))
			for _, m := range all {
				values[m.HostPattern] = m
			}

			return hosts.Reset(values)
		},
	}, {
		Name: cache.NameOrigins,
		Fill: func(ctx context.Context) error {
			all, err := store.GetAllOrigins(ctx)
			if err != nil {
				return err
			}

			values := make(map[string]any, len(all))
			for _, o := range all {
				values[o.ID] = o
			}

			origins.Reset(values)
			return nil
		},
	}, {
		Name: cache.NamePolicies,
		Fill: func(ctx context.Context) error {
			all, err := store.GetAllPolicies(ctx)
			if err != nil {
				return err
			}

			values := make(map[string]any, len(all))
			for _, p := range all {
				values[p.ID] = p
			}

			policies.Reset(values)
			return nil
		},
	}}, nil
}

// newProxy assembles the request pipeline over the warmed caches.
func newProxy(o Options, r *cache.Registry, m metrics.Metrics) (*proxy.Proxy, error) {
	paths, err := r.Trie(cache.NamePathMappings)
	if err != nil {
		return nil, err
	}

	hosts, err := r.Trie(cache.NameHostMappings)
	if err != nil {
		return nil, err
	}

	origins, err := r.KeyValue(cache.NameOrigins)
	if err != nil {
		return nil, err
	}

	policies, err := r.KeyValue(cache.NamePolicies)
	if err != nil {
		return nil, err
	}

	var client *http.Client
	if o.OriginTimeout > 0 {
		client = &http.Client{Timeout: o.OriginTimeout}
	}

	return proxy.New(proxy.Options{
		RequestResolver: resolver.NewRequest(
			mapping.NewResolver(hosts, paths),
			origin.NewResolver(origins),
		),
		TransformResolver: resolver.NewTransform(
			transform.NewExtractor(transform.DefaultRegistry()),
			policy.NewResolver(policies),
			o.MaxTransformations,
		),
		Engine:            o.Engine,
		Metrics:           m,
		Client:            client,
		RoutingHostHeader: o.RoutingHostHeader,
	}), nil
}

// Run pixgate. It warms the caches from the configured store, refusing
// to serve traffic when warm-up fails, then serves requests on the main
// listener until the server stops.
func Run(o Options) error {
	if err := logging.Init(o.Log); err != nil {
		return err
	}

	tracker := health.NewTracker()
	tracker.Set(health.Initializing)

	m, metricsHandler := metrics.New(metrics.Options{
		Flavour: o.MetricsFlavour,
		Prefix:  o.MetricsPrefix,
	})

	if o.SupportListener != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		mux.Handle("/health", tracker.Handler())

		log.Infof("support listener on %v", o.SupportListener)
		go func() {
			if err := http.ListenAndServe(o.SupportListener, mux); err != nil {
				log.Errorf("support listener failed: %v", err)
			}
		}()
	}

	registry := newRegistry()
	tasks, err := warmTasks(registry, o.Store)
	if err != nil {
		tracker.Set(health.Unhealthy)
		return err
	}

	if err := cache.Warm(context.Background(), tasks); err != nil {
		tracker.Set(health.Unhealthy)
		return err
	}

	p, err := newProxy(o, registry, m)
	if err != nil {
		tracker.Set(health.Unhealthy)
		return err
	}

	tracker.Set(health.Healthy)
	log.Infof("listening on %v", o.Address)
	return http.ListenAndServe(o.Address, p)
}
