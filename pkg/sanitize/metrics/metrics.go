// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics instruments the sanitize pipeline with Prometheus
// counters and gauges, grounded on the AI chat metrics in Pulse
// (internal/ai/chat/metrics.go): a struct of pre-built collectors,
// registered once at construction, with nil-safe methods so a disabled
// Metrics value can be threaded through call sites unconditionally.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the sanitize engine's Prometheus collectors. A nil
// *Metrics is valid and every method becomes a no-op — the constructor
// arg lets callers (and tests) disable instrumentation entirely rather
// than threading a separate enabled/disabled flag everywhere.
type Metrics struct {
	devicesTotal         *prometheus.CounterVec
	verificationFailures prometheus.Counter
	runDuration          prometheus.Histogram
	stepDuration         *prometheus.HistogramVec
	devicesInProgress    prometheus.Gauge
}

// New registers the sanitize collectors against reg and returns a Metrics
// wired to them. Passing a nil Registerer returns a nil *Metrics, whose
// methods are safe no-ops — the pattern used in tests and in any run where
// metrics are not exported.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		devicesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sanitize",
				Name:      "devices_total",
				Help:      "Total devices that reached a final result, by storage medium and result",
			},
			[]string{"medium", "result"},
		),
		verificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sanitize",
				Name:      "verification_failures_total",
				Help:      "Total devices whose pre- or post-verify validation failed",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sanitize",
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of one device's full sanitize pipeline",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
			},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sanitize",
				Name:      "step_duration_seconds",
				Help:      "Duration of one overwriting step, by tool",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
			},
			[]string{"tool"},
		),
		devicesInProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sanitize",
				Name:      "devices_in_progress",
				Help:      "Devices currently being sanitized",
			},
		),
	}

	reg.MustRegister(m.devicesTotal, m.verificationFailures, m.runDuration, m.stepDuration, m.devicesInProgress)
	return m
}

// DeviceStarted records a device entering the pipeline and returns the
// start time so the caller can pass it back to DeviceCompleted.
func (m *Metrics) DeviceStarted() time.Time {
	if m == nil {
		return time.Time{}
	}
	m.devicesInProgress.Inc()
	return time.Now()
}

// DeviceCompleted records a device reaching RESULT_COMPUTED: the final
// result counter, the run's wall-clock duration, and — when result is
// false because validation failed — the verification-failure counter.
func (m *Metrics) DeviceCompleted(medium string, result bool, verificationFailed bool, startedAt time.Time) {
	if m == nil {
		return
	}
	m.devicesTotal.WithLabelValues(medium, strconv.FormatBool(result)).Inc()
	m.devicesInProgress.Dec()
	if !startedAt.IsZero() {
		m.runDuration.Observe(time.Since(startedAt).Seconds())
	}
	if verificationFailed {
		m.verificationFailures.Inc()
	}
}

// ObserveStepDuration records the wall-clock duration of one overwriting
// step, keyed by its tool.
func (m *Metrics) ObserveStepDuration(tool string, seconds float64) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(tool).Observe(seconds)
}
