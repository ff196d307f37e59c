// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
)

// Source says where a drawn segment came from.
type Source int

const (
	// SourceFreehand segments follow the tracked fingertip.
	SourceFreehand Source = iota

	// SourceTemplate segments come from template playback.
	SourceTemplate
)

// String returns "freehand" or "template".
func (s Source) String() string {
	switch s {
	case SourceFreehand:
		return "freehand"
	case SourceTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Status is the observable session state sent to the renderer.
type Status struct {
	SessionID string `json:"session_id"`
	Drawing   bool   `json:"drawing"`
	AIDrawing bool   `json:"ai_drawing"`
	Typing    bool   `json:"typing"`
	Color     string `json:"color"`
	Text      string `json:"text"`
	Playback  string `json:"playback"`
	Template  string `json:"template,omitempty"`
	PathLen   int    `json:"path_len"`
	Strokes   int    `json:"strokes"`
}

// Sink receives everything a session wants rendered.
//
// Calls are made while the session lock is held and arrive in order.
// Implementations must not call back into the Session.
type Sink interface {
	// Segment draws one line.
	Segment(ctx context.Context, seg geometry.Segment, src Source)

	// Detection reports a recognized freehand shape.
	Detection(ctx context.Context, res shape.Result)

	// Text shows typed text. final is true for a committed line (after
	// Enter), false for the in-progress buffer.
	Text(ctx context.Context, text string, final bool)

	// Clear wipes the canvas.
	Clear(ctx context.Context)

	// State reports a mode or color change.
	State(ctx context.Context, st Status)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Segment(context.Context, geometry.Segment, Source) {}
func (NopSink) Detection(context.Context, shape.Result)           {}
func (NopSink) Text(context.Context, string, bool)                {}
func (NopSink) Clear(context.Context)                             {}
func (NopSink) State(context.Context, Status)                     {}

var _ Sink = NopSink{}

// Observer receives counters for metrics. Labels are plain strings so the
// metrics package does not depend on session types.
type Observer interface {
	ObserveEvaluation(outcome string)
	ObserveDetection(shape string)
	ObserveSegment(source string)
	ObserveCommand(command, status string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvaluation(string)     {}
func (nopObserver) ObserveDetection(string)      {}
func (nopObserver) ObserveSegment(string)        {}
func (nopObserver) ObserveCommand(string, string) {}
