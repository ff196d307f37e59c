// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package templates holds the named polylines replayed by the playback engine.
//
// # Description
//
// A Template is an immutable, named sequence of at least two points. A
// Catalog is an immutable name -> Template registry; the built-in catalog
// carries the shapes the voice command "draw <name>" understands. Catalog
// files in YAML can add or override templates, and a Registry can watch such
// a file and atomically swap in a freshly built Catalog when it changes.
//
// # Thread Safety
//
// Template and Catalog are read-only after construction and safe to share.
// Registry is safe for concurrent use.
package templates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AleutianAI/aircanvas/pkg/validation"
	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrTooFewPoints is returned for a template with fewer than two points.
	ErrTooFewPoints = errors.New("template needs at least two points")

	// ErrDuplicateName is returned when a catalog contains the same name twice.
	ErrDuplicateName = errors.New("duplicate template name")

	// ErrInvalidName is returned for a name that fails validation.
	ErrInvalidName = errors.New("invalid template name")
)

// MinPoints is the smallest valid template.
const MinPoints = 2

// -----------------------------------------------------------------------------
// Template
// -----------------------------------------------------------------------------

// Template is a named polyline.
type Template struct {
	name   string
	points []geometry.Point
}

// NewTemplate validates and copies points into a new Template.
func NewTemplate(name string, points []geometry.Point) (*Template, error) {
	if err := validation.ValidateTemplateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if len(points) < MinPoints {
		return nil, fmt.Errorf("%w: %q has %d", ErrTooFewPoints, name, len(points))
	}
	cp := make([]geometry.Point, len(points))
	copy(cp, points)
	return &Template{name: name, points: cp}, nil
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Len returns the number of points.
func (t *Template) Len() int { return len(t.points) }

// Segments returns the number of line segments, Len()-1.
func (t *Template) Segments() int { return len(t.points) - 1 }

// Point returns the i-th point. Panics when i is out of range.
func (t *Template) Point(i int) geometry.Point { return t.points[i] }

// Points returns a copy of the points.
func (t *Template) Points() []geometry.Point {
	cp := make([]geometry.Point, len(t.points))
	copy(cp, t.points)
	return cp
}

// Bounds returns the template's bounding box.
func (t *Template) Bounds() geometry.BoundingBox {
	box, _ := geometry.Bounds(t.points)
	return box
}

// -----------------------------------------------------------------------------
// Catalog
// -----------------------------------------------------------------------------

// Catalog is an immutable registry of templates by name.
type Catalog struct {
	byName map[string]*Template
	names  []string
}

// NewCatalog builds a catalog. Templates must have distinct names.
func NewCatalog(list ...*Template) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Template, len(list))}
	for _, t := range list {
		if t == nil {
			continue
		}
		if len(t.points) < MinPoints {
			return nil, fmt.Errorf("%w: %q", ErrTooFewPoints, t.name)
		}
		if _, dup := c.byName[t.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, t.name)
		}
		c.byName[t.name] = t
		c.names = append(c.names, t.name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Lookup returns the template called name.
func (c *Catalog) Lookup(name string) (*Template, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Names returns the template names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.names) }

// With returns a new catalog containing c's templates with overrides applied.
// An override replaces a same-named template; c itself is unchanged.
func (c *Catalog) With(overrides ...*Template) (*Catalog, error) {
	merged := make(map[string]*Template, len(c.byName)+len(overrides))
	for name, t := range c.byName {
		merged[name] = t
	}
	for _, t := range overrides {
		if t != nil {
			merged[t.name] = t
		}
	}
	list := make([]*Template, 0, len(merged))
	for _, t := range merged {
		list = append(list, t)
	}
	return NewCatalog(list...)
}
