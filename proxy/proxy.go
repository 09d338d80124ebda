/*
Package proxy implements the request handler of the image delivery edge:
resolve the origin, fetch the source, resolve the transformation list,
apply the resulting edit plan through the engine and write the response.

Each request gets its own pipeline context, never shared between
concurrent requests. Typed pipeline errors reach the client with their
status code and client-safe message only; everything else becomes a
generic 500 whose cause is kept in the logs.
*/
package proxy

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/edit"
	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/logging"
	"github.com/pixgate/pixgate/metrics"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/reqctx"
	"github.com/pixgate/pixgate/resolver"
)

// DefaultRoutingHostHeader designates the header consulted for host based
// mapping lookup.
const DefaultRoutingHostHeader = "X-Routing-Host"

const maxSourceBytes = 64 << 20

// Options to create a proxy.
type Options struct {
	RequestResolver   *resolver.Request
	TransformResolver *resolver.Transform
	Engine            engine.Engine
	Metrics           metrics.Metrics

	// Client fetches the source image from the origin. When nil, a
	// client with sane timeouts is used.
	Client *http.Client

	// RoutingHostHeader overrides DefaultRoutingHostHeader.
	RoutingHostHeader string
}

// Proxy is the edge request handler.
type Proxy struct {
	requests      *resolver.Request
	transforms    *resolver.Transform
	engine        engine.Engine
	metrics       metrics.Metrics
	client        *http.Client
	routingHeader string
}

// New creates a proxy from the assembled service graph.
func New(o Options) *Proxy {
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	m := o.Metrics
	if m == nil {
		m = metrics.Void{}
	}

	routingHeader := o.RoutingHostHeader
	if routingHeader == "" {
		routingHeader = DefaultRoutingHostHeader
	}

	return &Proxy{
		requests:      o.RequestResolver,
		transforms:    o.TransformResolver,
		engine:        o.Engine,
		metrics:       m,
		client:        client,
		routingHeader: routingHeader,
	}
}

func measure(m metrics.Metrics, key string, micros int64) {
	m.MeasureSince(key, time.Now().Add(-time.Duration(micros)*time.Microsecond))
}

func (p *Proxy) routingHost(r *http.Request) string {
	if h := r.Header.Get(p.routingHeader); h != "" {
		return h
	}

	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	return host
}

// fetchSource retrieves the source image from the resolved origin with the
// configured forwarding headers.
func (p *Proxy) fetchSource(ctx *reqctx.Context, r *http.Request) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), "GET", ctx.OriginURL, nil)
	if err != nil {
		return nil, "", httperr.Validation("invalid origin request", err.Error())
	}

	for name, values := range ctx.Origin.Headers {
		if strings.EqualFold(name, "Host") {
			req.Host = values[0]
			continue
		}

		req.Header[name] = values
	}

	rsp, err := p.client.Do(req)
	if err != nil {
		return nil, "", httperr.Connection(
			http.StatusBadGateway,
			"origin unreachable",
			fmt.Sprintf("fetching %s: %v", ctx.OriginURL, err),
		).Wrap(err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		status := http.StatusBadGateway
		if rsp.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}

		return nil, "", httperr.Connection(
			status,
			"origin error",
			fmt.Sprintf("origin %s responded %d", ctx.OriginURL, rsp.StatusCode),
		)
	}

	contentType := rsp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", httperr.Connection(
			http.StatusBadGateway,
			"origin returned no image",
			fmt.Sprintf("origin %s content type %q", ctx.OriginURL, contentType),
		)
	}

	data, err := io.ReadAll(io.LimitReader(rsp.Body, maxSourceBytes))
	if err != nil {
		return nil, "", httperr.Connection(
			http.StatusBadGateway,
			"origin read failed",
			fmt.Sprintf("reading %s: %v", ctx.OriginURL, err),
		).Wrap(err)
	}

	return data, contentType, nil
}

func (p *Proxy) serve(ctx *reqctx.Context, w http.ResponseWriter, r *http.Request) error {
	if err := p.requests.Resolve(ctx, r.URL.Path, p.routingHost(r)); err != nil {
		return err
	}

	fetchStart := time.Now()
	source, contentType, err := p.fetchSource(ctx, r)
	p.metrics.MeasureSince(metrics.KeyOriginFetch, fetchStart)
	if err != nil {
		return err
	}

	explicitPolicy := r.URL.Query().Get(policy.Param)
	if err := p.transforms.Resolve(ctx, r.URL.RawQuery, explicitPolicy, contentType); err != nil {
		return err
	}

	var plan edit.Plan
	_ = ctx.Stage(&ctx.Timings.EditMapMicros, func() error {
		plan = edit.Map(ctx.Transformations)
		return nil
	})

	img, err := p.engine.Decode(source)
	if err != nil {
		return httperr.ImageProcessing(
			http.StatusBadRequest,
			"unsupported source image",
			fmt.Sprintf("decoding %s: %v", ctx.OriginURL, err),
		).Wrap(err)
	}

	err = ctx.Stage(&ctx.Timings.ApplyMicros, func() error {
		return edit.Apply(img, plan)
	})
	if err != nil {
		return err
	}

	data, producedType, err := img.Encode()
	if err != nil {
		return httperr.ImageProcessing(
			http.StatusInternalServerError,
			"image encoding failed",
			err.Error(),
		).Wrap(err)
	}

	// the engine may not honor the requested format, the response content
	// type reflects what it actually produced
	ctx.Response.ContentType = producedType
	ctx.Response.Status = http.StatusOK

	w.Header().Set("Content-Type", producedType)
	w.Header().Set("X-Request-Id", ctx.ID)
	for name, values := range ctx.Response.Headers {
		w.Header()[name] = values
	}

	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := reqctx.New(r.Header)

	err := p.serve(ctx, w, r)
	ctx.Finish()

	if err != nil {
		he := httperr.FromError(err)
		ctx.Response.Status = he.Status
		p.metrics.IncCounter(metrics.KeyErrors)
		log.Errorf("request %s failed (%s): %s", ctx.ID, he.Kind, he.Error())

		w.Header().Set("X-Request-Id", ctx.ID)
		http.Error(w, he.ClientMessage(), he.Status)
	}

	t := ctx.Timings
	measure(p.metrics, metrics.KeyMappingResolve, t.MappingResolveMicros)
	measure(p.metrics, metrics.KeyOriginResolve, t.OriginResolveMicros)
	measure(p.metrics, metrics.KeyPolicyResolve, t.PolicyResolveMicros)
	measure(p.metrics, metrics.KeyTransformExtract, t.ExtractMicros)
	measure(p.metrics, metrics.KeyTransformAutoOpt, t.AutoOptMicros)
	measure(p.metrics, metrics.KeyTransformMerge, t.MergeMicros)
	measure(p.metrics, metrics.KeyEditMap, t.EditMapMicros)
	measure(p.metrics, metrics.KeyEditApply, t.ApplyMicros)
	p.metrics.MeasureSince(metrics.KeyRequest, ctx.Start)
	if ctx.DroppedTransformations > 0 {
		p.metrics.IncCounterBy(metrics.KeyDroppedTransformations, int64(ctx.DroppedTransformations))
	}

	logging.LogAccess(&logging.AccessEntry{
		Request:     r,
		StatusCode:  ctx.Response.Status,
		Duration:    time.Since(ctx.Start),
		RequestTime: ctx.Start,
		RequestID:   ctx.ID,
	})
}
