// Package metrics holds the prometheus collectors updated during a sync run.
// Collectors live on a private registry exported to a node-exporter textfile
// once the run finishes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives per-run counters.
type Recorder interface {
	RequestProcessed(result string)
	DomainOutcome(list, outcome string)
	WriteConflict(list string)
}

// Registry is a Recorder backed by prometheus counters.
type Registry struct {
	reg       *prometheus.Registry
	requests  *prometheus.CounterVec
	domains   *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	lastRun   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listsync",
			Name:      "requests_total",
			Help:      "Requests processed, by terminal result.",
		}, []string{"result"}),
		domains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listsync",
			Name:      "domains_total",
			Help:      "Per-domain outcomes, by list and outcome.",
		}, []string{"list", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listsync",
			Name:      "write_conflicts_total",
			Help:      "Optimistic write conflicts, by list.",
		}, []string{"list"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "listsync",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.reg.MustRegister(r.requests, r.domains, r.conflicts, r.lastRun)
	return r
}

func (r *Registry) RequestProcessed(result string) { r.requests.WithLabelValues(result).Inc() }

func (r *Registry) DomainOutcome(list, outcome string) {
	r.domains.WithLabelValues(list, outcome).Inc()
}

func (r *Registry) WriteConflict(list string) { r.conflicts.WithLabelValues(list).Inc() }

// Gatherer exposes the underlying registry, e.g. for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile stamps the run time and writes every collector in the
// prometheus text format to path.
func (r *Registry) WriteTextfile(path string, unixSeconds int64) error {
	r.lastRun.Set(float64(unixSeconds))
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

type noop struct{}

func (noop) RequestProcessed(string)      {}
func (noop) DomainOutcome(string, string) {}
func (noop) WriteConflict(string)         {}

// NewNoop returns a Recorder that discards everything.
func NewNoop() Recorder { return noop{} }

var _ Recorder = (*Registry)(nil)
