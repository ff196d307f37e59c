// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the canvas server.
//
// # Description
//
// Metrics cover expression evaluations, shape detections, drawn segments,
// voice commands, live sessions and template playback time. They are exposed
// on /metrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aircanvas"
	canvasSubsystem  = "canvas"
)

// Metrics holds the canvas metrics.
type Metrics struct {
	// EvaluationsTotal counts evaluator calls.
	// Labels: outcome (ok, or an error kind such as division_by_zero)
	EvaluationsTotal *prometheus.CounterVec

	// DetectionsTotal counts recognized freehand shapes.
	// Labels: shape (circle, heart)
	DetectionsTotal *prometheus.CounterVec

	// SegmentsTotal counts drawn segments.
	// Labels: source (freehand, template)
	SegmentsTotal *prometheus.CounterVec

	// CommandsTotal counts voice commands.
	// Labels: command, status (ok, debounced, unknown, error)
	CommandsTotal *prometheus.CounterVec

	// ActiveSessions is the number of open live sessions.
	ActiveSessions prometheus.Gauge

	// PlaybackDurationSeconds measures template playback wall time.
	// Labels: template, completed (true, false)
	PlaybackDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the instance registered by InitMetrics.
var DefaultMetrics *Metrics

// InitMetrics registers the metrics with the default Prometheus registry.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *Metrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics creates metrics registered with reg. Tests pass a fresh
// prometheus.NewRegistry() to stay isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "evaluations_total",
				Help:      "Expression evaluations by outcome",
			},
			[]string{"outcome"},
		),

		DetectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "detections_total",
				Help:      "Freehand shapes recognized by shape",
			},
			[]string{"shape"},
		),

		SegmentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "segments_total",
				Help:      "Line segments drawn by source",
			},
			[]string{"source"},
		),

		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "commands_total",
				Help:      "Voice commands by command and status",
			},
			[]string{"command", "status"},
		),

		ActiveSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "active_sessions",
				Help:      "Number of open live canvas sessions",
			},
		),

		PlaybackDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: canvasSubsystem,
				Name:      "playback_duration_seconds",
				Help:      "Template playback wall time in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"template", "completed"},
		),
	}
}

// =============================================================================
// Recording
// =============================================================================

// ObserveEvaluation counts one evaluation.
func (m *Metrics) ObserveEvaluation(outcome string) {
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDetection counts one recognized shape.
func (m *Metrics) ObserveDetection(shape string) {
	m.DetectionsTotal.WithLabelValues(shape).Inc()
}

// ObserveSegment counts one drawn segment.
func (m *Metrics) ObserveSegment(source string) {
	m.SegmentsTotal.WithLabelValues(source).Inc()
}

// ObserveCommand counts one voice command.
func (m *Metrics) ObserveCommand(command, status string) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	m.ActiveSessions.Dec()
}

// ObservePlayback records one finished playback run.
func (m *Metrics) ObservePlayback(template string, completed bool, elapsed time.Duration) {
	c := "false"
	if completed {
		c = "true"
	}
	m.PlaybackDurationSeconds.WithLabelValues(template, c).Observe(elapsed.Seconds())
}
