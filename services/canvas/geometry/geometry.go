// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package geometry holds the canvas-space primitives shared by the drawing
// components: points, segments and axis-aligned bounding boxes.
//
// All coordinates are canvas pixels with the origin at the top-left corner
// and y growing downwards. Points arriving from the hand tracker are already
// mirrored horizontally relative to the camera frame (see FromLandmark).
package geometry

import "math"

// Default canvas dimensions used by the browser client.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// IndexFingerTip is the hand-landmark index of the index fingertip.
const IndexFingerTip = 8

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Segment is one straight stroke between two points.
type Segment struct {
	From  Point  `json:"from"`
	To    Point  `json:"to"`
	Color string `json:"color,omitempty"`
}

// BoundingBox is an axis-aligned box enclosing a set of points.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX-MinX.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY-MinY.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// CenterX returns the horizontal midpoint of the box.
func (b BoundingBox) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }

// Aspect returns Width/Height.
//
// A zero-height box yields +Inf (or NaN for a degenerate single point), which
// fails every range comparison the classifier makes.
func (b BoundingBox) Aspect() float64 {
	return b.Width() / b.Height()
}

// Bounds computes the bounding box of points.
//
// # Outputs
//
//   - BoundingBox: The enclosing box.
//   - bool: False when points is empty.
func Bounds(points []Point) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		box.MinX = math.Min(box.MinX, p.X)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return box, true
}

// FromLandmark converts a normalized landmark coordinate (0..1 in both axes)
// to canvas pixels. With mirror set, x is flipped so that moving the hand to
// the right moves the pointer to the right on a selfie-view camera.
func FromLandmark(nx, ny float64, width, height int, mirror bool) Point {
	x := nx * float64(width)
	y := ny * float64(height)
	if mirror {
		x = float64(width) - x
	}
	return Point{X: x, Y: y}
}
