// Package metrics exposes Prometheus instrumentation for source scans and
// frequency operations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scan result label values.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Recorder receives scan and operation events from a processor.
type Recorder interface {
	ObserveScan(d time.Duration, tokens int, result string)
	IncOperation(op string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) ObserveScan(time.Duration, int, string) {}
func (Nop) IncOperation(string)                    {}

// Metrics is a Recorder backed by Prometheus collectors.
type Metrics struct {
	scans      *prometheus.CounterVec
	tokens     prometheus.Counter
	duration   prometheus.Histogram
	operations *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textfreq_scans_total",
			Help: "Tokenize passes over a source file, by result.",
		}, []string{"result"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textfreq_tokens_total",
			Help: "Tokens produced by successful scans.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "textfreq_scan_duration_seconds",
			Help:    "Wall time of tokenize passes.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textfreq_operations_total",
			Help: "Processor operations served, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.scans, m.tokens, m.duration, m.operations)
	return m
}

// ObserveScan records one tokenize pass. Tokens are only counted for
// successful scans.
func (m *Metrics) ObserveScan(d time.Duration, tokens int, result string) {
	m.duration.Observe(d.Seconds())
	m.scans.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.tokens.Add(float64(tokens))
	}
}

// IncOperation counts one served operation.
func (m *Metrics) IncOperation(op string) {
	m.operations.WithLabelValues(op).Inc()
}

var (
	// Registry holds the process-wide collectors served on /metrics and
	// written by WriteTextfile.
	Registry = prometheus.NewRegistry()

	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide Metrics registered on Registry.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New(Registry)
	})
	return defaultMetrics
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
