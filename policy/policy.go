/*
Package policy holds the named transformation policies and resolves which
policy applies to a request.

Resolution walks three tiers, each short-circuiting on success: an explicit
policy id in the request query, the policy attached to the resolved
mapping, and the policy flagged as default. An explicit id that does not
exist is an error, never a silent fallback. When no tier applies the
resolver returns nil, which callers must treat as "no transformations from
the policy source".
*/
package policy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/cache"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/transform"
)

// Param is the query parameter carrying an explicit policy id.
const Param = "policy"

// Policy is a named, reusable set of transformations and output rules.
type Policy struct {
	ID              string                     `yaml:"id"`
	Name            string                     `yaml:"name"`
	Description     string                     `yaml:"description,omitempty"`
	Transformations []transform.Transformation `yaml:"transformations,omitempty"`
	Outputs         *transform.Outputs         `yaml:"outputs,omitempty"`
	IsDefault       bool                       `yaml:"default,omitempty"`
}

// Resolver looks up policies in the warm cache.
type Resolver struct {
	policies *cache.KeyValue
}

// NewResolver creates a resolver over the policy cache.
func NewResolver(policies *cache.KeyValue) *Resolver {
	return &Resolver{policies: policies}
}

// Resolve returns the policy for a request, or nil when none applies.
// explicitID comes from the request query, mappingID from the resolved
// mapping.
func (r *Resolver) Resolve(explicitID, mappingID string) (*Policy, error) {
	if explicitID != "" {
		v, ok := r.policies.Get(explicitID)
		if !ok {
			return nil, httperr.PolicyNotFound(
				"policy not found",
				fmt.Sprintf("requested policy %q does not exist", explicitID),
			)
		}

		return v.(*Policy), nil
	}

	if mappingID != "" {
		if v, ok := r.policies.Get(mappingID); ok {
			return v.(*Policy), nil
		}

		log.Warnf("mapping references unknown policy %q, falling back to default", mappingID)
	}

	for _, v := range r.policies.GetAll() {
		if p := v.(*Policy); p.IsDefault {
			return p, nil
		}
	}

	return nil, nil
}
