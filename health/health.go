// Package health tracks the initialization state of the process and serves
// it for liveness probing. The state only ever moves forward: UNKNOWN at
// construction, INITIALIZING while the caches warm, then HEALTHY or
// UNHEALTHY. UNHEALTHY is terminal, the process must exit rather than serve
// degraded traffic.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// State of the process initialization.
type State int32

const (
	Unknown State = iota
	Initializing
	Healthy
	Unhealthy
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "INITIALIZING"
	case Healthy:
		return "HEALTHY"
	case Unhealthy:
		return "UNHEALTHY"
	default:
		return "UNKNOWN"
	}
}

// Tracker holds the current state.
type Tracker struct {
	state atomic.Int32
}

// NewTracker creates a tracker in the UNKNOWN state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// State returns the current state.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Set moves the tracker forward. Transitions backwards and away from the
// terminal UNHEALTHY state are ignored.
func (t *Tracker) Set(s State) {
	for {
		current := t.state.Load()
		if State(current) == Unhealthy || int32(s) <= current {
			return
		}

		if t.state.CompareAndSwap(current, int32(s)) {
			return
		}
	}
}

// Handler serves the current state, 200 for HEALTHY, 503 otherwise.
func (t *Tracker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := t.State()
		status := http.StatusServiceUnavailable
		if s == Healthy {
			status = http.StatusOK
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"state": s.String()})
	})
}
