/*
Package resolver orchestrates the two request-time pipelines.

The request resolver turns an inbound path and routing host into a
validated origin URL with forwarding headers. The transform resolver runs
afterwards, once the source content type is known, and produces the final
conflict-resolved transformation list: explicit URL transformations are
extracted, the applying policy is looked up, client-hint optimizations are
derived, conditionals are evaluated and the hard cap is enforced.
*/
package resolver

import (
	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/reqctx"
	"github.com/pixgate/pixgate/transform"
)

// Request resolves the origin for inbound requests.
type Request struct {
	mappings *mapping.Resolver
	origins  *origin.Resolver
}

// NewRequest creates the request resolution service.
func NewRequest(mappings *mapping.Resolver, origins *origin.Resolver) *Request {
	return &Request{mappings: mappings, origins: origins}
}

// Resolve fills the context with the mapping, the validated origin and the
// upstream URL for the request path.
func (r *Request) Resolve(ctx *reqctx.Context, path, routingHost string) error {
	err := ctx.Stage(&ctx.Timings.MappingResolveMicros, func() error {
		m, err := r.mappings.Resolve(path, routingHost)
		if err != nil {
			return err
		}

		ctx.Mapping = m
		return nil
	})
	if err != nil {
		return err
	}

	err = ctx.Stage(&ctx.Timings.OriginResolveMicros, func() error {
		o, err := r.origins.Resolve(ctx.Mapping.OriginID)
		if err != nil {
			return err
		}

		ctx.Origin = o
		ctx.OriginURL = o.BuildURL(path)
		return nil
	})
	if err != nil {
		return err
	}

	log.Debugf("request %s resolved to origin %s via %q", ctx.ID, ctx.OriginURL, ctx.Mapping.Pattern)
	return nil
}

// Transform resolves the final transformation list.
type Transform struct {
	extractor *transform.Extractor
	policies  *policy.Resolver
	maxEdits  int
}

// NewTransform creates the transformation resolution service. maxEdits of
// zero applies the default cap.
func NewTransform(extractor *transform.Extractor, policies *policy.Resolver, maxEdits int) *Transform {
	if maxEdits <= 0 {
		maxEdits = transform.DefaultMaxTransformations
	}

	return &Transform{extractor: extractor, policies: policies, maxEdits: maxEdits}
}

// Resolve computes the final transformation list for the request and
// stores it on the context. rawQuery is the unparsed request query,
// explicitPolicyID the policy query parameter, and sourceContentType the
// content type of the already fetched source image.
func (t *Transform) Resolve(ctx *reqctx.Context, rawQuery, explicitPolicyID, sourceContentType string) error {
	var urlList []transform.Transformation
	_ = ctx.Stage(&ctx.Timings.ExtractMicros, func() error {
		urlList = t.extractor.Extract(rawQuery)
		return nil
	})

	var pol *policy.Policy
	err := ctx.Stage(&ctx.Timings.PolicyResolveMicros, func() error {
		mappingID := ""
		if ctx.Mapping != nil {
			mappingID = ctx.Mapping.PolicyID
		}

		var err error
		pol, err = t.policies.Resolve(explicitPolicyID, mappingID)
		return err
	})
	if err != nil {
		return err
	}
	ctx.Policy = pol

	var policyList []transform.Transformation
	var outputs *transform.Outputs
	if pol != nil {
		policyList = pol.Transformations
		outputs = pol.Outputs
	}

	var merged []transform.Transformation
	_ = ctx.Stage(&ctx.Timings.MergeMicros, func() error {
		merged = transform.ApplyPrecedence(urlList, policyList)
		return nil
	})

	_ = ctx.Stage(&ctx.Timings.AutoOptMicros, func() error {
		auto := transform.AutoOptimize(merged, outputs, ctx.ClientHeaders, sourceContentType)
		merged = append(merged, auto...)
		return nil
	})

	merged = transform.EvaluateConditionals(merged, ctx.ClientHeaders)

	limited, dropped := transform.EnforceLimits(merged, t.maxEdits)
	if dropped > 0 {
		log.Infof("request %s dropped %d transformations over the limit", ctx.ID, dropped)
	}

	ctx.DroppedTransformations = dropped
	ctx.Transformations = limited
	return nil
}
