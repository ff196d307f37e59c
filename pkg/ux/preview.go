// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"math"
	"strings"
)

// Line is one stroke in canvas pixel coordinates.
type Line struct {
	X1, Y1, X2, Y2 float64
}

// Preview rasterizes strokes onto a character grid for terminal display.
//
// # Description
//
// The canvas (Width x Height pixels) is scaled onto Cols x Rows cells. Each
// line is stepped cell by cell so that no gaps appear between its ends.
// Strokes outside the canvas are clipped.
//
// # Thread Safety
//
// Not safe for concurrent use.
type Preview struct {
	cols, rows    int
	width, height float64
	cells         [][]bool
}

// NewPreview creates an empty preview grid. Non-positive sizes fall back to
// a 64x24 grid over a 640x480 canvas.
func NewPreview(cols, rows int, width, height float64) *Preview {
	if cols <= 0 || rows <= 0 {
		cols, rows = 64, 24
	}
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	cells := make([][]bool, rows)
	for i := range cells {
		cells[i] = make([]bool, cols)
	}
	return &Preview{cols: cols, rows: rows, width: width, height: height, cells: cells}
}

// Draw adds one stroke.
func (p *Preview) Draw(l Line) {
	c1, r1 := p.cell(l.X1, l.Y1)
	c2, r2 := p.cell(l.X2, l.Y2)
	steps := max(abs(c2-c1), abs(r2-r1))
	if steps == 0 {
		p.set(c1, r1)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c := int(math.Round(float64(c1) + t*float64(c2-c1)))
		r := int(math.Round(float64(r1) + t*float64(r2-r1)))
		p.set(c, r)
	}
}

// Clear empties the grid.
func (p *Preview) Clear() {
	for _, row := range p.cells {
		for i := range row {
			row[i] = false
		}
	}
}

// Filled returns the number of inked cells.
func (p *Preview) Filled() int {
	n := 0
	for _, row := range p.cells {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}

// String renders the grid with '#' for ink and '.' for blank.
func (p *Preview) String() string {
	return p.render('#', '.')
}

// Render renders the grid for o, coloring the ink when o is styled.
func (p *Preview) Render(o *Output) string {
	if !o.Styled() {
		return p.String()
	}
	lines := strings.Split(p.render('█', ' '), "\n")
	for i, l := range lines {
		lines[i] = Styles.Stroke.Render(l)
	}
	return strings.Join(lines, "\n")
}

func (p *Preview) render(ink, blank rune) string {
	var b strings.Builder
	for r, row := range p.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, on := range row {
			if on {
				b.WriteRune(ink)
			} else {
				b.WriteRune(blank)
			}
		}
	}
	return b.String()
}

func (p *Preview) cell(x, y float64) (int, int) {
	c := int(math.Floor(x / p.width * float64(p.cols)))
	r := int(math.Floor(y / p.height * float64(p.rows)))
	return c, r
}

func (p *Preview) set(c, r int) {
	if c < 0 || c >= p.cols || r < 0 || r >= p.rows {
		return
	}
	p.cells[r][c] = true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
