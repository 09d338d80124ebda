package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusMetrics struct {
	durations *prometheus.HistogramVec
	counters  *prometheus.CounterVec
}

func newPrometheus(o Options) (*prometheusMetrics, http.Handler) {
	namespace := strings.TrimSuffix(o.Prefix, ".")

	p := &prometheusMetrics{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the request pipeline stages.",
		}, []string{"stage"}),
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Pipeline event counts.",
		}, []string{"event"}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(p.durations, p.counters)

	return p, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (p *prometheusMetrics) MeasureSince(key string, start time.Time) {
	p.durations.WithLabelValues(key).Observe(time.Since(start).Seconds())
}

func (p *prometheusMetrics) IncCounter(key string) {
	p.counters.WithLabelValues(key).Inc()
}

func (p *prometheusMetrics) IncCounterBy(key string, value int64) {
	p.counters.WithLabelValues(key).Add(float64(value))
}
