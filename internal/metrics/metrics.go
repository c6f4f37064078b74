// Package metrics publishes store, pipeline and paging counters to Prometheus.
// A nil *Metrics is valid and records nothing, so components can take one
// optionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page load outcomes.
const (
	PageAppended  = "appended"
	PageStale     = "stale"
	PageCoalesced = "coalesced"
	PageExhausted = "exhausted"
)

type Metrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	pipeline        *prometheus.HistogramVec
	pageLoads       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Record store mutations by kind and operation.",
		}, []string{"kind", "op"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Collection writes that failed and were kept in memory only.",
		}, []string{"kind"}),
		pipeline: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "query",
			Name:      "pipeline_seconds",
			Help:      "Time spent in search, filter and sort.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
		pageLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "paging",
			Name:      "loads_total",
			Help:      "Load-more triggers by outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.mutations, m.persistFailures, m.pipeline, m.pageLoads)
	return m
}

func (m *Metrics) Mutation(kind, op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) PersistFailure(kind string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObservePipeline(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.pipeline.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) PageLoad(kind, outcome string) {
	if m == nil {
		return
	}
	m.pageLoads.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
