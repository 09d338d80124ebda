package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

type codaHale struct {
	prefix string
	reg    gometrics.Registry
}

func newCodaHale(o Options) (*codaHale, http.Handler) {
	c := &codaHale{
		prefix: o.Prefix,
		reg:    gometrics.NewRegistry(),
	}

	return c, &codaHaleHandler{registry: c.reg}
}

func (c *codaHale) getTimer(key string) gometrics.Timer {
	return c.reg.GetOrRegister(c.prefix+key, gometrics.NewTimer).(gometrics.Timer)
}

func (c *codaHale) getCounter(key string) gometrics.Counter {
	return c.reg.GetOrRegister(c.prefix+key, gometrics.NewCounter).(gometrics.Counter)
}

func (c *codaHale) MeasureSince(key string, start time.Time) {
	c.getTimer(key).UpdateSince(start)
}

func (c *codaHale) IncCounter(key string) {
	c.getCounter(key).Inc(1)
}

func (c *codaHale) IncCounterBy(key string, value int64) {
	c.getCounter(key).Inc(value)
}

type codaHaleHandler struct {
	registry gometrics.Registry
}

// ServeHTTP dumps the current metric values as a JSON document.
func (h *codaHaleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]any)
	h.registry.Each(func(name string, m any) {
		switch v := m.(type) {
		case gometrics.Counter:
			values[name] = v.Count()
		case gometrics.Timer:
			s := v.Snapshot()
			values[name] = map[string]any{
				"count":  s.Count(),
				"mean":   s.Mean(),
				"p95":    s.Percentile(0.95),
				"p99":    s.Percentile(0.99),
				"max":    s.Max(),
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(values); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
