/*
Package yamlfile provides a datastore.Store reading the routing records
from a single YAML document, typically used in development and single-node
deployments:

	path-mappings:
	  - path: /products
	    origin-id: products
	    policy-id: thumbnails
	host-mappings:
	  - host: "*.acme.com"
	    origin-id: acme
	origins:
	  - id: products
	    name: product images
	    domain: img-origin.example.com
	policies:
	  - id: thumbnails
	    name: thumbnails
	    default: true
	    transformations:
	      - type: quality
	        value: 80
*/
package yamlfile

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/transform"
)

type document struct {
	PathMappings []*mapping.PathMapping `yaml:"path-mappings"`
	HostMappings []*mapping.HostMapping `yaml:"host-mappings"`
	Origins      []*origin.Config       `yaml:"origins"`
	Policies     []*policy.Policy       `yaml:"policies"`
}

// Store serves the records of one parsed file.
type Store struct {
	doc document
}

// Open reads and parses a YAML record file.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records from %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a YAML record document.
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}

	// policy transformation values arrive as generic YAML values and are
	// normalized here; a broken entry drops that transformation only
	for _, p := range doc.Policies {
		kept, errs := transform.NormalizeList(p.Transformations)
		for _, err := range errs {
			log.Warnf("policy %s: dropping transformation: %v", p.ID, err)
		}

		p.Transformations = kept
	}

	return &Store{doc: doc}, nil
}

func (s *Store) GetAllPathMappings(context.Context) ([]*mapping.PathMapping, error) {
	return s.doc.PathMappings, nil
}

func (s *Store) GetAllHostMappings(context.Context) ([]*mapping.HostMapping, error) {
	return s.doc.HostMappings, nil
}

func (s *Store) GetAllOrigins(context.Context) ([]*origin.Config, error) {
	return s.doc.Origins, nil
}

func (s *Store) GetAllPolicies(context.Context) ([]*policy.Policy, error) {
	return s.doc.Policies, nil
}
