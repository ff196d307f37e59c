// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// StandardColors are the stroke colors offered by the canvas palette.
var StandardColors = []string{
	"red", "blue", "green", "yellow", "black", "white",
	"pink", "purple", "orange", "brown", "gray",
}

// templateNamePattern matches catalog names: lowercase words joined by
// single hyphens or underscores, at most 32 characters.
var templateNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*([_-][a-z0-9]+)*$`)

// IsValidColor reports whether name is a standard color, ignoring case and
// surrounding whitespace.
func IsValidColor(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range StandardColors {
		if c == n {
			return true
		}
	}
	return false
}

// SanitizeColor normalizes and validates a color name.
//
//	color, err := validation.SanitizeColor(" Pink ")
//	// color == "pink"
func SanitizeColor(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("color cannot be empty")
	}
	if !IsValidColor(n) {
		return "", fmt.Errorf("unknown color %q (must be one of %s)", n, strings.Join(StandardColors, ", "))
	}
	return n, nil
}

// ValidateTemplateName checks a template name read from a catalog file.
func ValidateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if len(name) > 32 || !templateNamePattern.MatchString(name) {
		return fmt.Errorf("invalid template name %q (lowercase letters, digits, '-' or '_', max 32 chars)", name)
	}
	return nil
}
