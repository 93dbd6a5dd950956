// Package metrics exposes the timing of a test run as Prometheus metrics,
// written in the text format read by the node exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift/test-performance-analyzer/pkg/perfstats"
)

const namespace = "playwright"

// Recorder holds the collectors for a single run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	testDuration *prometheus.HistogramVec
	fileDuration *prometheus.GaugeVec
	tests        *prometheus.GaugeVec
}

// NewRecorder creates and registers the collectors.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		testDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "test_duration_seconds",
				Help:      "Duration of single test attempts in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"file", "status"},
		),
		fileDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "file_duration_seconds_total",
				Help:      "Summed duration of all test attempts of a spec file in seconds.",
			},
			[]string{"file"},
		),
		tests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tests_total",
				Help:      "Number of test attempts by status.",
			},
			[]string{"status"},
		),
	}
	for name, collector := range map[string]prometheus.Collector{
		"testDuration": r.testDuration,
		"fileDuration": r.fileDuration,
		"tests":        r.tests,
	} {
		if err := r.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register %s metric: %w", name, err)
		}
	}
	return r, nil
}

// Observe records every attempt of the summary.
func (r *Recorder) Observe(summary *perfstats.Summary) {
	for _, record := range summary.Sorted {
		r.testDuration.WithLabelValues(record.File, record.Status).Observe(record.DurationTime().Seconds())
	}
	for _, file := range summary.Files {
		r.fileDuration.WithLabelValues(file.File).Set(float64(file.TotalDuration) / 1000)
	}
	for status, count := range summary.ByStatus {
		r.tests.WithLabelValues(status).Set(float64(count))
	}
}

// Gatherer exposes the registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes the metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
