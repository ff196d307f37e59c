// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	// TokenNumber is a run of digits and dots, or a spliced intermediate result.
	TokenNumber TokenKind = iota

	// TokenOperator is one of + - * / ^.
	TokenOperator

	// TokenLeftParen is "(".
	TokenLeftParen

	// TokenRightParen is ")".
	TokenRightParen
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenOperator:
		return "operator"
	case TokenLeftParen:
		return "lparen"
	case TokenRightParen:
		return "rparen"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of an expression.
//
// Number tokens carry their parsed Value. A run such as "." or "..5" that has
// no numeric prefix keeps Value = NaN and is rejected only when an operator
// tries to use it, matching the lenient prefix parsing of the browser client.
type Token struct {
	Kind  TokenKind
	Text  string
	Value float64
}

func (t Token) isOp(op string) bool {
	return t.Kind == TokenOperator && t.Text == op
}

// numberPrefix matches the longest leading decimal literal of a run.
var numberPrefix = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)

// parseNumber parses the leading decimal literal of s ("1.2.3" -> 1.2).
// Returns NaN when s has no numeric prefix.
func parseNumber(s string) float64 {
	m := numberPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// numberToken builds a Number token for an intermediate result.
func numberToken(v float64) Token {
	return Token{Kind: TokenNumber, Text: formatNumber(v), Value: v}
}

// Tokenize splits s on operator and parenthesis characters, keeping each of
// them as its own token. Runs between delimiters become Number tokens and
// empty runs are dropped.
//
// Tokenize does not validate; callers check the charset first.
//
// # Example
//
//	Tokenize("12+(3.5*2)")
//	// [12] [+] [(] [3.5] [*] [2] [)]
func Tokenize(s string) []Token {
	tokens := make([]Token, 0, len(s))
	start := 0
	flush := func(end int) {
		if end > start {
			run := s[start:end]
			tokens = append(tokens, Token{Kind: TokenNumber, Text: run, Value: parseNumber(run)})
		}
	}
	for i := 0; i < len(s); i++ {
		var kind TokenKind
		switch s[i] {
		case '+', '-', '*', '/', '^':
			kind = TokenOperator
		case '(':
			kind = TokenLeftParen
		case ')':
			kind = TokenRightParen
		default:
			continue
		}
		flush(i)
		tokens = append(tokens, Token{Kind: kind, Text: s[i : i+1]})
		start = i + 1
	}
	flush(len(s))
	return tokens
}

// joinTokens reassembles the text of tokens.
func joinTokens(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// formatNumber renders v the way the browser client prints numbers: plain
// decimal below 1e21 and exponent form above.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.Abs(v) >= 1e21:
		return strconv.FormatFloat(v, 'e', -1, 64)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
