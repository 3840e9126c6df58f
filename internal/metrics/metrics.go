package metrics

/*
domhits — aggregate domain hit counts from access logs
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry          = prometheus.NewRegistry()
	defaultRegisterer = promauto.With(registry)
	metricsEnabled    bool
	enabledMu         sync.RWMutex
)

// Metrics contains all the Prometheus metrics for the application
type Metrics struct {
	// Input metrics
	InputBytesTotal *prometheus.CounterVec
	EntriesTotal    *prometheus.CounterVec
	HitsTotal       *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec

	// Result metrics
	DomainsAggregated *prometheus.GaugeVec
	ReportLines       *prometheus.GaugeVec
	LastRunTimestamp  *prometheus.GaugeVec

	// Timing
	PhaseDuration *prometheus.HistogramVec
}

// Global instance of metrics
var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection
func EnableMetrics() {
	enabledMu.Lock()
	metricsEnabled = true
	enabledMu.Unlock()
}

// IsMetricsEnabled returns whether metrics collection is enabled
func IsMetricsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return metricsEnabled
}

// Registry exposes the application registry, mainly for tests and exporters.
func Registry() *prometheus.Registry {
	return registry
}

// newMetrics creates and registers all metrics
func newMetrics() *Metrics {
	buckets := []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	return &Metrics{
		InputBytesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domhits_input_bytes_total",
				Help: "Total bytes of log text read",
			},
			[]string{"source"},
		),
		EntriesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domhits_entries_total",
				Help: "Total number of log entries aggregated",
			},
			[]string{"source"},
		),
		HitsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domhits_hits_total",
				Help: "Sum of hit counts over all aggregated entries",
			},
			[]string{"source"},
		),
		ErrorsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domhits_errors_total",
				Help: "Total number of failed runs by error type",
			},
			[]string{"source", "error_type"},
		),
		DomainsAggregated: defaultRegisterer.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domhits_domains_aggregated",
				Help: "Distinct normalized domains in the last run",
			},
			[]string{"source"},
		),
		ReportLines: defaultRegisterer.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domhits_report_lines",
				Help: "Domains that passed the minimum-hits threshold in the last run",
			},
			[]string{"source"},
		),
		LastRunTimestamp: defaultRegisterer.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domhits_last_run_timestamp_seconds",
				Help: "Unix time the last successful run finished",
			},
			[]string{"source"},
		),
		PhaseDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domhits_phase_duration_seconds",
				Help:    "Time spent in each pipeline phase",
				Buckets: buckets,
			},
			[]string{"source", "phase"},
		),
	}
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, for pickup by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if !IsMetricsEnabled() {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

// MeasureDuration is a helper to measure the duration of a function
func MeasureDuration(histogram *prometheus.HistogramVec, labels prometheus.Labels) func() {
	if !IsMetricsEnabled() {
		return func() {}
	}

	start := time.Now()
	return func() {
		histogram.With(labels).Observe(time.Since(start).Seconds())
	}
}

// RecordRun updates the per-run counters and gauges for source.
func (m *Metrics) RecordRun(source string, inputBytes, entries, hits int64, domains, reportLines int) {
	if !IsMetricsEnabled() {
		return
	}

	m.InputBytesTotal.WithLabelValues(source).Add(float64(inputBytes))
	m.EntriesTotal.WithLabelValues(source).Add(float64(entries))
	m.HitsTotal.WithLabelValues(source).Add(float64(hits))
	m.DomainsAggregated.WithLabelValues(source).Set(float64(domains))
	m.ReportLines.WithLabelValues(source).Set(float64(reportLines))
	m.LastRunTimestamp.WithLabelValues(source).SetToCurrentTime()
}

// RecordError counts a failed run.
func (m *Metrics) RecordError(source, errorType string) {
	if !IsMetricsEnabled() {
		return
	}

	m.ErrorsTotal.WithLabelValues(source, errorType).Inc()
}
