// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-provided
// text that reaches the canvas core: typed arithmetic, color names and
// template names.
//
// Validators here are pure and allocation-light so they can run on every
// keystroke or voice transcript without measurable cost.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// expressionPattern matches the full character class accepted by the
// arithmetic evaluator: digits, dots, parentheses and + - * / ^.
var expressionPattern = regexp.MustCompile(`^[0-9+\-*/^().]+$`)

// mathHintPattern matches text that contains at least one digit, operator or
// parenthesis. Typed text matching it is sent to the evaluator on Enter.
var mathHintPattern = regexp.MustCompile(`[\d+\-*/^()]`)

// StripWhitespace removes every Unicode whitespace rune from s.
//
// Example:
//
//	StripWhitespace(" 2 + 3\t* 4 ") // "2+3*4"
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsExpressionCharset reports whether s consists solely of evaluator
// characters. The empty string does not match.
func IsExpressionCharset(s string) bool {
	return expressionPattern.MatchString(s)
}

// LooksLikeMath reports whether typed text should be treated as arithmetic.
//
// This is intentionally loose: "abc1" looks like math and will fail in the
// evaluator with an invalid-characters error, which is what gets displayed.
func LooksLikeMath(s string) bool {
	return mathHintPattern.MatchString(s)
}

// ValidateExpression strips whitespace and checks the evaluator charset.
//
// Returns the stripped expression when valid.
//
// Example:
//
//	clean, err := validation.ValidateExpression(userInput)
//	if err != nil {
//	    return fmt.Errorf("invalid expression: %w", err)
//	}
func ValidateExpression(s string) (string, error) {
	clean := StripWhitespace(s)
	if clean == "" {
		return "", fmt.Errorf("expression cannot be empty")
	}
	if !IsExpressionCharset(clean) {
		return "", fmt.Errorf("invalid expression %q (allowed: digits . ( ) + - * / ^)", clean)
	}
	return clean, nil
}
