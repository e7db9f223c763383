// Package metrics records shape generation runs in a Prometheus registry
// and can write them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Run summarizes one generation run.
type Run struct {
	Shapes     int
	Properties int
	Skipped    int
	Duration   time.Duration
}

// Recorder holds the shapegen collectors. A nil *Recorder discards
// everything.
type Recorder struct {
	registry   *prometheus.Registry
	runs       *prometheus.CounterVec
	shapes     prometheus.Counter
	properties prometheus.Counter
	skipped    prometheus.Counter
	duration   prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shapegen",
			Name:      "runs_total",
			Help:      "Shape generation runs by result.",
		}, []string{"result"}),
		shapes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shapegen",
			Name:      "shapes_emitted_total",
			Help:      "Node shapes written.",
		}),
		properties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shapegen",
			Name:      "properties_emitted_total",
			Help:      "Property constraints written.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shapegen",
			Name:      "mappings_skipped_total",
			Help:      "Mappings left out for lack of a subject or class.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shapegen",
			Name:      "run_duration_seconds",
			Help:      "Wall time of shape generation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	r.registry.MustRegister(r.runs, r.shapes, r.properties, r.skipped, r.duration)
	// Pre-create both series so they are exported at zero.
	r.runs.WithLabelValues(ResultOK)
	r.runs.WithLabelValues(ResultError)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRun records a finished run. On error only the failure is counted.
func (r *Recorder) ObserveRun(run Run, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.runs.WithLabelValues(ResultError).Inc()
		return
	}
	r.runs.WithLabelValues(ResultOK).Inc()
	r.shapes.Add(float64(run.Shapes))
	r.properties.Add(float64(run.Properties))
	r.skipped.Add(float64(run.Skipped))
	r.duration.Observe(run.Duration.Seconds())
}

// WriteTextfile writes all metrics to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
