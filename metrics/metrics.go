/*
Package metrics implements collection of the per-stage performance metrics
of the request pipeline.

The collected metrics include the time spent resolving mappings, origins
and policies, extracting and merging transformations, mapping edits and
applying them through the engine. Two backends are available: the Coda
Hale metrics library and Prometheus. The handler returned by New serves
the current values on the support listener.
*/
package metrics

import (
	"net/http"
	"time"
)

// Keys of the collected pipeline metrics.
const (
	KeyMappingResolve   = "resolve.mapping"
	KeyOriginResolve    = "resolve.origin"
	KeyPolicyResolve    = "resolve.policy"
	KeyTransformExtract = "transform.extract"
	KeyTransformAutoOpt = "transform.autoopt"
	KeyTransformMerge   = "transform.merge"
	KeyEditMap          = "edit.map"
	KeyEditApply        = "edit.apply"
	KeyOriginFetch      = "origin.fetch"
	KeyRequest          = "request"

	KeyErrors                 = "errors"
	KeyDroppedTransformations = "transform.dropped"
)

// Kind selects the metrics backend.
type Kind int

const (
	// CodaHaleKind is the go-metrics based backend.
	CodaHaleKind Kind = iota + 1

	// PrometheusKind is the prometheus based backend.
	PrometheusKind
)

// Options for initializing metrics collection.
type Options struct {

	// Flavour selects the backend, defaulting to CodaHaleKind.
	Flavour Kind

	// Prefix for the keys of the collected metrics.
	Prefix string
}

// Metrics is the collector interface used by the pipeline.
type Metrics interface {

	// MeasureSince records the duration since start under key.
	MeasureSince(key string, start time.Time)

	// IncCounter increments the counter registered under key.
	IncCounter(key string)

	// IncCounterBy adds value to the counter registered under key.
	IncCounterBy(key string, value int64)
}

// New creates the configured collector together with the handler exposing
// the current values.
func New(o Options) (Metrics, http.Handler) {
	if o.Prefix == "" {
		o.Prefix = "pixgate."
	}

	switch o.Flavour {
	case PrometheusKind:
		return newPrometheus(o)
	default:
		return newCodaHale(o)
	}
}

// Void is a no-op collector for tests and disabled metrics.
type Void struct{}

func (Void) MeasureSince(string, time.Time) {}
func (Void) IncCounter(string)              {}
func (Void) IncCounterBy(string, int64)     {}
