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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("12+(3.5*2)")
	require.Len(t, tokens, 7)

	wantText := []string{"12", "+", "(", "3.5", "*", "2", ")"}
	wantKind := []TokenKind{
		TokenNumber, TokenOperator, TokenLeftParen, TokenNumber,
		TokenOperator, TokenNumber, TokenRightParen,
	}
	for i, tok := range tokens {
		assert.Equal(t, wantText[i], tok.Text, "token %d", i)
		assert.Equal(t, wantKind[i], tok.Kind, "token %d", i)
	}
	assert.Equal(t, 12.0, tokens[0].Value)
	assert.Equal(t, 3.5, tokens[3].Value)
}

func TestTokenize_DropsEmptyRuns(t *testing.T) {
	tokens := Tokenize("((1))")
	require.Len(t, tokens, 5)
	assert.Equal(t, "((1))", joinTokens(tokens))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"3.", 3},
		{".25", 0.25},
		{"1.2.3", 1.2},
		{"007", 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseNumber(tt.in))
		})
	}

	assert.True(t, math.IsNaN(parseNumber(".")))
	assert.True(t, math.IsNaN(parseNumber("")))
}

func TestTokenKind_String(t *testing.T) {
	assert.Equal(t, "number", TokenNumber.String())
	assert.Equal(t, "operator", TokenOperator.String())
	assert.Equal(t, "lparen", TokenLeftParen.String())
	assert.Equal(t, "rparen", TokenRightParen.String())
	assert.Equal(t, "unknown", TokenKind(9).String())
}
