// Package inline provides an in-memory datastore.Store, used in tests and
// for bootstrapping without an external record store.
package inline

import (
	"context"

	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
)

// Store serves fixed record sets.
type Store struct {
	PathMappings []*mapping.PathMapping
	HostMappings []*mapping.HostMapping
	Origins      []*origin.Config
	Policies     []*policy.Policy
}

func (s *Store) GetAllPathMappings(context.Context) ([]*mapping.PathMapping, error) {
	return s.PathMappings, nil
}

func (s *Store) GetAllHostMappings(context.Context) ([]*mapping.HostMapping, error) {
	return s.HostMappings, nil
}

func (s *Store) GetAllOrigins(context.Context) ([]*origin.Config, error) {
	return s.Origins, nil
}

func (s *Store) GetAllPolicies(context.Context) ([]*policy.Policy, error) {
	return s.Policies, nil
}
