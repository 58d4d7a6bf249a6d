package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects inspection results in a private registry so they can be
// written as a node_exporter textfile after each run.
type Metrics struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	responses       *prometheus.CounterVec
	requestDuration prometheus.Histogram
	responseBytes   prometheus.Gauge
	records         prometheus.Gauge
	lastRun         prometheus.Gauge
}

// New creates and registers the inspection metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hadith_inspect_runs_total",
			Help: "Inspection runs by outcome",
		}, []string{"outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hadith_inspect_responses_total",
			Help: "HTTP responses received by status code",
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hadith_inspect_request_duration_seconds",
			Help:    "Time from sending the request to reading the full body",
			Buckets: prometheus.DefBuckets,
		}),
		responseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hadith_inspect_response_bytes",
			Help: "Size of the last response body",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hadith_inspect_records",
			Help: "Hadith records in the last decoded response",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hadith_inspect_last_run_timestamp_seconds",
			Help: "Unix time of the last completed inspection",
		}),
	}

	m.registry.MustRegister(m.runs, m.responses, m.requestDuration, m.responseBytes, m.records, m.lastRun)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResponse records a completed HTTP exchange
func (m *Metrics) ObserveResponse(status int, size int, elapsed time.Duration) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
	m.requestDuration.Observe(elapsed.Seconds())
	m.responseBytes.Set(float64(size))
}

// ObserveOutcome counts a finished run
func (m *Metrics) ObserveOutcome(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
	m.lastRun.SetToCurrentTime()
}

// ObserveRecords sets the record count of the last decoded envelope
func (m *Metrics) ObserveRecords(count int) {
	m.records.Set(float64(count))
}

// WriteTextfile writes all metrics in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
