// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestNewMetrics_AllFieldsSet(t *testing.T) {
	m, _ := newTestMetrics(t)

	if m.EvaluationsTotal == nil {
		t.Error("EvaluationsTotal should not be nil")
	}
	if m.DetectionsTotal == nil {
		t.Error("DetectionsTotal should not be nil")
	}
	if m.SegmentsTotal == nil {
		t.Error("SegmentsTotal should not be nil")
	}
	if m.CommandsTotal == nil {
		t.Error("CommandsTotal should not be nil")
	}
	if m.ActiveSessions == nil {
		t.Error("ActiveSessions should not be nil")
	}
	if m.PlaybackDurationSeconds == nil {
		t.Error("PlaybackDurationSeconds should not be nil")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveEvaluation("ok")
	m.ObserveEvaluation("ok")
	m.ObserveEvaluation("division_by_zero")
	m.ObserveDetection("circle")
	m.ObserveSegment("freehand")
	m.ObserveSegment("template")
	m.ObserveSegment("template")
	m.ObserveCommand("draw", "ok")
	m.ObserveCommand("draw", "debounced")

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"evaluations ok", m.EvaluationsTotal.WithLabelValues("ok"), 2},
		{"evaluations division", m.EvaluationsTotal.WithLabelValues("division_by_zero"), 1},
		{"detections circle", m.DetectionsTotal.WithLabelValues("circle"), 1},
		{"segments template", m.SegmentsTotal.WithLabelValues("template"), 2},
		{"segments freehand", m.SegmentsTotal.WithLabelValues("freehand"), 1},
		{"commands draw ok", m.CommandsTotal.WithLabelValues("draw", "ok"), 1},
		{"commands draw debounced", m.CommandsTotal.WithLabelValues("draw", "debounced"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMetrics_ActiveSessions(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	if got := testutil.ToFloat64(m.ActiveSessions); got != 1 {
		t.Errorf("ActiveSessions = %f, want 1", got)
	}
}

func TestMetrics_Playback(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObservePlayback("star", true, 300*time.Millisecond)
	m.ObservePlayback("star", false, 50*time.Millisecond)

	if n := testutil.CollectAndCount(m.PlaybackDurationSeconds); n != 2 {
		t.Errorf("playback series = %d, want 2", n)
	}

	expected := `
# HELP aircanvas_canvas_active_sessions Number of open live canvas sessions
# TYPE aircanvas_canvas_active_sessions gauge
aircanvas_canvas_active_sessions 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "aircanvas_canvas_active_sessions"); err != nil {
		t.Error(err)
	}
}
