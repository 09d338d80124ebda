package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCodaHaleCollectsAndServes(t *testing.T) {
	m, h := New(Options{Flavour: CodaHaleKind})

	m.MeasureSince(KeyMappingResolve, time.Now().Add(-time.Millisecond))
	m.IncCounter(KeyErrors)
	m.IncCounterBy(KeyDroppedTransformations, 3)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	var values map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &values); err != nil {
		t.Fatal(err)
	}

	if _, ok := values["pixgate."+KeyMappingResolve]; !ok {
		t.Errorf("missing timer, got %v", values)
	}

	if got := values["pixgate."+KeyDroppedTransformations]; got != float64(3) {
		t.Errorf("dropped counter: %v", got)
	}
}

func TestPrometheusCollectsAndServes(t *testing.T) {
	m, h := New(Options{Flavour: PrometheusKind})

	m.MeasureSince(KeyEditApply, time.Now().Add(-time.Millisecond))
	m.IncCounter(KeyErrors)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	for _, expect := range []string{
		"pixgate_stage_duration_seconds",
		"pixgate_events_total",
	} {
		if !strings.Contains(body, expect) {
			t.Errorf("missing %q in metrics output", expect)
		}
	}
}

func TestVoid(t *testing.T) {
	var m Metrics = Void{}
	m.MeasureSince(KeyRequest, time.Now())
	m.IncCounter(KeyErrors)
	m.IncCounterBy(KeyErrors, 2)
}
