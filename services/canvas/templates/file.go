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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

// fileFormat is the on-disk catalog layout:
//
//	templates:
//	  - name: zigzag
//	    points: [[100, 100], [150, 200], [200, 100]]
type fileFormat struct {
	Templates []fileTemplate `yaml:"templates"`
}

type fileTemplate struct {
	Name   string      `yaml:"name"`
	Points [][]float64 `yaml:"points"`
}

// Parse decodes YAML catalog data into templates.
//
// Every point must be an [x, y] pair and names must be unique within the file.
func Parse(data []byte) ([]*Template, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Templates))
	out := make([]*Template, 0, len(f.Templates))
	for i, ft := range f.Templates {
		if seen[ft.Name] {
			return nil, fmt.Errorf("template %d: %w: %q", i, ErrDuplicateName, ft.Name)
		}
		seen[ft.Name] = true

		points := make([]geometry.Point, 0, len(ft.Points))
		for j, xy := range ft.Points {
			if len(xy) != 2 {
				return nil, fmt.Errorf("template %q point %d: want [x, y], got %d values", ft.Name, j, len(xy))
			}
			points = append(points, geometry.Point{X: xy[0], Y: xy[1]})
		}

		t, err := NewTemplate(ft.Name, points)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadFile reads a YAML catalog file and merges it over base.
func LoadFile(path string, base *Catalog) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template catalog %s: %w", path, err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base.With(list...)
}

// Marshal encodes templates in the catalog file format.
func Marshal(list ...*Template) ([]byte, error) {
	f := fileFormat{Templates: make([]fileTemplate, 0, len(list))}
	for _, t := range list {
		ft := fileTemplate{Name: t.name, Points: make([][]float64, len(t.points))}
		for i, p := range t.points {
			ft.Points[i] = []float64{p.X, p.Y}
		}
		f.Templates = append(f.Templates, ft)
	}
	return yaml.Marshal(f)
}
