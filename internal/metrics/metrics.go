// Package metrics holds the Prometheus instrumentation of the search
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/gravsearch/internal/queryerr"
)

const namespace = "gravsearch"

// Store query kinds used as the "query" label.
const (
	QuerySelect    = "select"
	QueryCount     = "count"
	QueryConstruct = "construct"
)

// Metrics groups the collectors of one engine.
type Metrics struct {
	StoreRequests *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	MainResources     prometheus.Counter
	FilteredResources prometheus.Counter
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		StoreRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "triplestore",
				Name:      "requests_total",
				Help:      "Triplestore round trips by query kind and outcome",
			},
			[]string{"query", "outcome"},
		),

		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "triplestore",
				Name:      "duration_seconds",
				Help:      "Triplestore round trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "requests_total",
				Help:      "Search requests by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Search request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		MainResources: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "main_resources_total",
				Help:      "Main resources returned to clients",
			},
		),

		FilteredResources: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "filtered_resources_total",
				Help:      "Main resources hidden by permissions",
			},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{
		m.StoreRequests, m.StoreDuration,
		m.Requests, m.RequestDuration,
		m.MainResources, m.FilteredResources,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveStore records one triplestore round trip.
func (m *Metrics) ObserveStore(query string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreRequests.WithLabelValues(query, Outcome(err)).Inc()
	m.StoreDuration.WithLabelValues(query).Observe(d.Seconds())
}

// ObserveRequest records one search or count request.
func (m *Metrics) ObserveRequest(mode string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(mode, Outcome(err)).Inc()
	m.RequestDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObservePage records the size of an assembled page and how many main
// resources permissions removed from it.
func (m *Metrics) ObservePage(returned, filtered int) {
	if m == nil {
		return
	}
	m.MainResources.Add(float64(returned))
	m.FilteredResources.Add(float64(filtered))
}

// Outcome maps an error to a label value: "ok", the lower-cased query
// error code, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := queryerr.CodeOf(err); ok {
		return strings.ToLower(string(code))
	}
	return "error"
}
