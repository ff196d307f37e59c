// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pathbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

func TestPathBuffer_SnapshotHoldsMostRecent(t *testing.T) {
	for _, capacity := range []int{1, 5, DefaultCapacity, HeuristicCapacity} {
		for _, pushed := range []int{0, 1, capacity - 1, capacity, capacity + 1, 3*capacity + 2} {
			buf := New(capacity)
			for i := 0; i < pushed; i++ {
				buf.Push(geometry.Point{X: float64(i), Y: float64(-i)})
			}

			snap := buf.Snapshot()
			wantLen := min(capacity, pushed)
			require.Len(t, snap, wantLen, "capacity=%d pushed=%d", capacity, pushed)

			first := pushed - wantLen
			for j, p := range snap {
				assert.Equal(t, float64(first+j), p.X, "capacity=%d pushed=%d idx=%d", capacity, pushed, j)
			}
		}
	}
}

func TestPathBuffer_Clear(t *testing.T) {
	buf := New(DefaultCapacity)
	for i := 0; i < 60; i++ {
		buf.Push(geometry.Point{X: float64(i)})
	}
	assert.Equal(t, int64(10), buf.Evicted())

	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Snapshot())
	assert.Equal(t, DefaultCapacity, buf.Capacity())
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		variant Variant
		want    int
		wantErr bool
	}{
		{VariantInteractive, 50, false},
		{"", 50, false},
		{VariantHeuristic, 70, false},
		{"turbo", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			got, err := CapacityFor(tt.variant)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
