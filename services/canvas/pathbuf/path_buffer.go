// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pathbuf keeps the rolling window of recent pointer samples that
// the shape classifier inspects.
package pathbuf

import (
	"fmt"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

const (
	// DefaultCapacity is the path window of the interactive build.
	DefaultCapacity = 50

	// HeuristicCapacity is the larger window of the heuristic-only build.
	HeuristicCapacity = 70
)

// Variant selects a build profile for the path window.
type Variant string

const (
	VariantInteractive Variant = "interactive"
	VariantHeuristic   Variant = "heuristic"
)

// CapacityFor returns the default capacity for a variant.
func CapacityFor(v Variant) (int, error) {
	switch v {
	case VariantInteractive, "":
		return DefaultCapacity, nil
	case VariantHeuristic:
		return HeuristicCapacity, nil
	default:
		return 0, fmt.Errorf("unknown path variant %q", v)
	}
}

// PathBuffer is the bounded, insertion-ordered window of recent points.
//
// # Description
//
// Push appends at the tail and, once capacity is exceeded, evicts from the
// head, so Snapshot always holds the min(C, pushed) most recent points in
// order. Clear empties it on mode changes, clear commands and after a
// positive shape detection.
//
// # Thread Safety
//
// Safe for concurrent use; in practice a session is the single writer.
type PathBuffer struct {
	ring *RingBuffer[geometry.Point]
}

// New creates a PathBuffer holding at most capacity points.
//
// # Panics
//
// Panics if capacity <= 0.
func New(capacity int) *PathBuffer {
	return &PathBuffer{ring: NewRingBuffer[geometry.Point](capacity)}
}

// Push appends p, evicting the oldest point when full.
func (b *PathBuffer) Push(p geometry.Point) {
	b.ring.Push(p)
}

// Snapshot returns an immutable copy of the points, oldest first.
func (b *PathBuffer) Snapshot() []geometry.Point {
	return b.ring.Snapshot()
}

// Clear empties the buffer.
func (b *PathBuffer) Clear() {
	b.ring.Clear()
}

// Len returns the number of buffered points.
func (b *PathBuffer) Len() int {
	return b.ring.Size()
}

// Capacity returns C.
func (b *PathBuffer) Capacity() int {
	return b.ring.Capacity()
}

// Evicted returns how many points have been evicted since the last Clear.
func (b *PathBuffer) Evicted() int64 {
	return b.ring.DroppedCount()
}
