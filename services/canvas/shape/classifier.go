// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package shape decides whether a freehand path looks like a circle or a heart.
//
// # Description
//
// The classifier is a bounding-box heuristic, not shape recognition. It is
// order-dependent only through the box and the left/right point counts.
// Thresholds are tuned by trial and must be kept as they are; in particular
// the circle test runs before the heart test so near-circular hearts fire
// once, as circles.
//
// Detection is gated to a single trigger color ("pink") and to paths of at
// least MinSamples points.
//
// # Thread Safety
//
// Classifier is immutable; Classify is a pure function of its arguments.
package shape

import (
	"math"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

// =============================================================================
// Shapes
// =============================================================================

// Shape is a classification outcome.
type Shape int

const (
	// None means no shape was recognized; the caller keeps accumulating.
	None Shape = iota

	// Circle is a roughly square bounding box.
	Circle

	// Heart is a wider-tolerance box with balanced sides and a bottom cusp.
	Heart
)

// String returns the string representation of the shape.
func (s Shape) String() string {
	switch s {
	case None:
		return "none"
	case Circle:
		return "circle"
	case Heart:
		return "heart"
	default:
		return "unknown"
	}
}

// Result is a transient classification event.
type Result struct {
	// Shape is the outcome.
	Shape Shape `json:"shape"`

	// Box is the bounding box that was tested. Zero when the path was not
	// examined (wrong color or too few samples).
	Box geometry.BoundingBox `json:"bbox"`
}

// Detected reports whether a shape was recognized.
func (r Result) Detected() bool {
	return r.Shape != None
}

// ClearBuffer reports whether the caller must clear its path buffer.
// It is true exactly when a shape was detected.
func (r Result) ClearBuffer() bool {
	return r.Detected()
}

// =============================================================================
// Thresholds
// =============================================================================

const (
	// DefaultMinSamples is the minimum path length examined.
	DefaultMinSamples = 30

	// TriggerColor is the only stroke color that is classified.
	TriggerColor = "pink"
)

// Thresholds holds the heuristic's tuning constants.
type Thresholds struct {
	MinSamples int

	CircleMinAspect float64
	CircleMaxAspect float64

	HeartMinAspect float64
	HeartMaxAspect float64

	// MinExtent is the minimum width and height, in pixels, for either shape.
	MinExtent float64

	// MaxSideImbalance is the largest allowed |left-right| point count difference.
	MaxSideImbalance int

	// BottomTolerance is how far above maxY the lowest point may sit.
	BottomTolerance float64
}

// DefaultThresholds returns the canonical tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSamples:       DefaultMinSamples,
		CircleMinAspect:  0.8,
		CircleMaxAspect:  1.2,
		HeartMinAspect:   0.4,
		HeartMaxAspect:   1.7,
		MinExtent:        30,
		MaxSideImbalance: 50,
		BottomTolerance:  25,
	}
}

// =============================================================================
// Classifier
// =============================================================================

// Classifier applies the circle and heart heuristics.
type Classifier struct {
	th Thresholds
}

// Option configures a Classifier.
type Option func(*Thresholds)

// WithMinSamples overrides the minimum path length.
func WithMinSamples(n int) Option {
	return func(t *Thresholds) {
		if n > 0 {
			t.MinSamples = n
		}
	}
}

// New creates a Classifier with DefaultThresholds and opts applied.
func New(opts ...Option) *Classifier {
	th := DefaultThresholds()
	for _, opt := range opts {
		opt(&th)
	}
	return &Classifier{th: th}
}

// Thresholds returns the active tuning.
func (c *Classifier) Thresholds() Thresholds {
	return c.th
}

// Classify examines a path snapshot.
//
// # Description
//
//  1. Return None unless color is TriggerColor and len(path) >= MinSamples.
//  2. Compute the bounding box and aspect = width/height.
//  3. Circle if aspect is in [0.8, 1.2] and both extents are >= 30.
//  4. Otherwise, if aspect is in [0.4, 1.7] and both extents are >= 30:
//     reject when the strict left/right split around centerX differs by more
//     than 50 points, or when the lowest point is more than 25px above maxY;
//     else Heart.
//  5. Otherwise None.
//
// # Inputs
//
//   - path: Points oldest first. Not modified.
//   - color: Active stroke color.
//
// # Outputs
//
//   - Result: Shape and tested box. Result.ClearBuffer() tells the caller to
//     reset its PathBuffer.
func (c *Classifier) Classify(path []geometry.Point, color string) Result {
	if color != TriggerColor || len(path) < c.th.MinSamples {
		return Result{Shape: None}
	}

	box, ok := geometry.Bounds(path)
	if !ok {
		return Result{Shape: None}
	}
	width, height := box.Width(), box.Height()
	aspect := box.Aspect()
	bigEnough := width >= c.th.MinExtent && height >= c.th.MinExtent

	if bigEnough && inRange(aspect, c.th.CircleMinAspect, c.th.CircleMaxAspect) {
		return Result{Shape: Circle, Box: box}
	}

	if bigEnough && inRange(aspect, c.th.HeartMinAspect, c.th.HeartMaxAspect) {
		if c.isHeart(path, box) {
			return Result{Shape: Heart, Box: box}
		}
	}

	return Result{Shape: None, Box: box}
}

func (c *Classifier) isHeart(path []geometry.Point, box geometry.BoundingBox) bool {
	centerX := box.CenterX()
	left, right := 0, 0
	for _, p := range path {
		switch {
		case p.X < centerX:
			left++
		case p.X > centerX:
			right++
		}
	}
	if abs(left-right) > c.th.MaxSideImbalance {
		return false
	}

	bottom := path[0]
	for _, p := range path[1:] {
		if p.Y > bottom.Y {
			bottom = p
		}
	}
	return bottom.Y >= box.MaxY-c.th.BottomTolerance
}

// inRange reports lo <= v <= hi; NaN is never in range.
func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
