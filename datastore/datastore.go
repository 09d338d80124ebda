// Package datastore defines the contract of the backing record store. The
// store is consulted only during cache warm-up; request handling never
// touches it.
package datastore

import (
	"context"

	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
)

// Store provides the bulk reads used to warm the caches.
type Store interface {
	GetAllPathMappings(context.Context) ([]*mapping.PathMapping, error)
	GetAllHostMappings(context.Context) ([]*mapping.HostMapping, error)
	GetAllOrigins(context.Context) ([]*origin.Config, error)
	GetAllPolicies(context.Context) ([]*policy.Policy, error)
}
