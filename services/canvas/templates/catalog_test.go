// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package templates

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	require.NotNil(t, c)
	assert.Equal(t, 23, c.Len())
	assert.Same(t, c, Builtin(), "built-in catalog is built once")

	names := c.Names()
	assert.True(t, sort.StringsAreSorted(names))

	for _, name := range []string{"circle", "square", "heart", "star", "spiral", "house", "pyramid"} {
		_, ok := c.Lookup(name)
		assert.True(t, ok, "missing %q", name)
	}

	circle, _ := c.Lookup("circle")
	assert.Equal(t, 9, circle.Len())
	assert.Equal(t, 8, circle.Segments())
	assert.Equal(t, geometry.Point{X: 320, Y: 100}, circle.Point(0))
	assert.Equal(t, circle.Point(0), circle.Point(circle.Len()-1), "circle is closed")

	for _, name := range names {
		tpl, _ := c.Lookup(name)
		assert.GreaterOrEqual(t, tpl.Len(), MinPoints, name)
		box := tpl.Bounds()
		assert.GreaterOrEqual(t, box.MinX, 0.0, name)
		assert.LessOrEqual(t, box.MaxX, float64(geometry.DefaultWidth), name)
		assert.GreaterOrEqual(t, box.MinY, 0.0, name)
		assert.LessOrEqual(t, box.MaxY, float64(geometry.DefaultHeight), name)
	}
}

func TestNewTemplate(t *testing.T) {
	two := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}

	tests := []struct {
		name    string
		tname   string
		points  []geometry.Point
		wantErr error
	}{
		{"valid", "line", two, nil},
		{"one point", "dot", two[:1], ErrTooFewPoints},
		{"no points", "empty", nil, ErrTooFewPoints},
		{"empty name", "", two, ErrInvalidName},
		{"uppercase name", "Line", two, ErrInvalidName},
		{"name with space", "my line", two, ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := NewTemplate(tt.tname, tt.points)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, tpl)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tname, tpl.Name())
		})
	}
}

func TestTemplate_CopiesPoints(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	tpl, err := NewTemplate("line", pts)
	require.NoError(t, err)

	pts[0].X = 99
	assert.Equal(t, 0.0, tpl.Point(0).X, "input slice is copied")

	out := tpl.Points()
	out[1].Y = -1
	assert.Equal(t, 10.0, tpl.Point(1).Y, "Points returns a copy")
}

func TestNewCatalog_Duplicate(t *testing.T) {
	a, _ := NewTemplate("line", []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	b, _ := NewTemplate("line", []geometry.Point{{X: 5, Y: 5}, {X: 6, Y: 6}})

	_, err := NewCatalog(a, b)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCatalog_With(t *testing.T) {
	base := Builtin()
	override, err := NewTemplate("circle", []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 100}})
	require.NoError(t, err)
	extra, err := NewTemplate("zigzag", []geometry.Point{{X: 100, Y: 100}, {X: 150, Y: 200}, {X: 200, Y: 100}})
	require.NoError(t, err)

	merged, err := base.With(override, extra)
	require.NoError(t, err)

	assert.Equal(t, base.Len()+1, merged.Len())
	got, _ := merged.Lookup("circle")
	assert.Equal(t, 2, got.Len())
	_, ok := merged.Lookup("zigzag")
	assert.True(t, ok)

	orig, _ := base.Lookup("circle")
	assert.Equal(t, 9, orig.Len(), "base catalog unchanged")
	_, ok = base.Lookup("zigzag")
	assert.False(t, ok)
}

func TestCatalog_NamesIsCopy(t *testing.T) {
	c := Builtin()
	names := c.Names()
	names[0] = "mutated"
	assert.NotEqual(t, "mutated", c.Names()[0])
}
