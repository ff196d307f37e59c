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
	"sync"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

var (
	builtinOnce    sync.Once
	builtinCatalog *Catalog
)

// Builtin returns the catalog of built-in templates.
//
// The catalog is built once per process and shared; it is read-only.
// Coordinates target the default 640x480 canvas.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		var list []*Template
		for name, points := range builtinPoints() {
			list = append(list, &Template{name: name, points: points})
		}
		c, err := NewCatalog(list...)
		if err != nil {
			panic("built-in template catalog is invalid: " + err.Error())
		}
		builtinCatalog = c
	})
	return builtinCatalog
}

// pts builds a point list from x, y pairs.
func pts(xy ...float64) []geometry.Point {
	out := make([]geometry.Point, len(xy)/2)
	for i := range out {
		out[i] = geometry.Point{X: xy[2*i], Y: xy[2*i+1]}
	}
	return out
}

func builtinPoints() map[string][]geometry.Point {
	return map[string][]geometry.Point{
		"circle": pts(
			320, 100, 390, 130, 420, 200, 390, 270, 320, 300, 250, 270,
			220, 200, 250, 130, 320, 100,
		),
		"ellipse": pts(
			320, 100, 370, 115, 400, 160, 410, 200, 400, 240, 370, 285,
			320, 300, 270, 285, 240, 240, 230, 200, 240, 160, 270, 115,
			320, 100,
		),
		"rectangle": pts(220, 150, 420, 150, 420, 250, 220, 250, 220, 150),
		"parallelogram": pts(250, 150, 420, 150, 370, 250, 200, 250, 250, 150),
		"trapezoid": pts(260, 150, 380, 150, 420, 250, 220, 250, 260, 150),
		"crescent": pts(
			350, 100, 400, 150, 420, 200, 400, 250, 350, 300, 300, 250,
			320, 200, 300, 150, 350, 100,
		),
		"arrow": pts(
			200, 200, 350, 200, 350, 150, 420, 225, 350, 300, 350, 250,
			200, 250, 200, 200,
		),
		"diamond": pts(320, 100, 400, 200, 320, 300, 240, 200, 320, 100),
		"infinity": pts(
			270, 200, 250, 170, 220, 170, 200, 200, 220, 230, 250, 230,
			270, 200, 370, 200, 390, 170, 420, 170, 440, 200, 420, 230,
			390, 230, 370, 200,
		),
		"triangle": pts(320, 100, 200, 300, 440, 300, 320, 100),
		"square": pts(200, 100, 440, 100, 440, 300, 200, 300, 200, 100),
		"pentagon": pts(320, 100, 440, 180, 380, 300, 260, 300, 200, 180, 320, 100),
		"hexagon": pts(320, 100, 440, 160, 440, 240, 320, 300, 200, 240, 200, 160, 320, 100),
		"octagon": pts(
			320, 100, 420, 140, 440, 220, 440, 280, 420, 360, 320, 400,
			220, 360, 200, 280, 200, 220, 220, 140, 320, 100,
		),
		"star": pts(
			320, 100, 350, 200, 440, 220, 370, 280, 400, 380, 320, 320,
			240, 380, 270, 280, 200, 220, 290, 200, 320, 100,
		),
		"cross": pts(
			320, 100, 320, 250, 200, 250, 200, 280, 320, 280, 320, 400,
			350, 400, 350, 280, 440, 280, 440, 250, 350, 250, 350, 100,
			320, 100,
		),
		"leaf": pts(320, 100, 250, 180, 320, 250, 390, 180, 320, 100),
		"cloud": pts(
			250, 200, 280, 150, 350, 130, 420, 150, 450, 200, 420, 250,
			350, 270, 280, 250, 250, 200,
		),
		"heart": pts(
			320, 150, 250, 100, 200, 150, 250, 220, 320, 280, 390, 220,
			440, 150, 390, 100, 320, 150,
		),
		"spiral": pts(
			320, 200, 280, 180, 300, 220, 340, 240, 360, 210, 340, 180,
			310, 170, 290, 190, 310, 220, 350, 240, 380, 220,
		),
		"fractal": pts(320, 100, 280, 160, 350, 180, 300, 240, 370, 260, 340, 320, 400, 340),
		"house": pts(320, 100, 200, 220, 200, 350, 440, 350, 440, 220, 320, 100),
		"pyramid": pts(320, 100, 200, 350, 440, 350, 320, 100),
	}
}
