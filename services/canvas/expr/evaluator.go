// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package expr evaluates the restricted infix arithmetic typed onto the canvas.
//
// # Description
//
// The grammar is floating-point numbers joined by + - * / ^ with
// parentheses. Evaluation is a fixed pipeline:
//
//  1. Strip whitespace, reject empty input and foreign characters.
//  2. Check parenthesis balance with a depth counter.
//  3. Tokenize on operators and parentheses.
//  4. Replace each innermost parenthesized group with the value of a
//     recursive evaluation of its text.
//  5. Reduce every ^ left to right.
//  6. Reduce every * and / left to right.
//  7. Fold + and - into an accumulator seeded from the first token.
//  8. Reject NaN/Inf and round to three decimals.
//
// Steps 5 and 6 only inspect odd token positions and rewind by two after
// each reduction, so 2^3^2 is (2^3)^2 = 64. Unary minus is not supported;
// "-5" fails with ErrMissingLeadingOperand.
//
// # Thread Safety
//
// Evaluator is immutable and safe for concurrent use.
package expr

import (
	"math"

	"github.com/AleutianAI/aircanvas/pkg/validation"
)

// DefaultMaxDepth bounds recursive evaluation of parenthesized groups.
const DefaultMaxDepth = 64

// roundingScale rounds results to three decimal places.
const roundingScale = 1000

// Evaluator evaluates arithmetic expressions.
type Evaluator struct {
	maxDepth int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDepth sets the recursion bound. Negative values are treated as zero,
// which rejects any parenthesized input.
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth < 0 {
			depth = 0
		}
		e.maxDepth = depth
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Evaluate evaluates text with the default Evaluator.
//
// # Example
//
//	v, err := expr.Evaluate("(2+3)*4") // 20, nil
//	v, err = expr.Evaluate("1/3")      // 0.333, nil
//	_, err = expr.Evaluate("5/0")      // errors.Is(err, ErrDivisionByZero)
func Evaluate(text string) (float64, error) {
	return defaultEvaluator.Evaluate(text)
}

// FormatResult renders a result the way it is displayed next to the typed
// expression ("2+3 = 5", "1/3 = 0.333").
func FormatResult(v float64) string {
	return formatNumber(v)
}

// Evaluate parses and evaluates text.
//
// # Inputs
//
//   - text: The expression. Whitespace anywhere is ignored.
//
// # Outputs
//
//   - float64: The result rounded to three decimals (half away from zero).
//   - error: An *EvaluationError on failure. Never panics.
func (e *Evaluator) Evaluate(text string) (float64, error) {
	return e.evaluate(text, 0)
}

func (e *Evaluator) evaluate(text string, depth int) (float64, error) {
	clean := validation.StripWhitespace(text)
	if depth > e.maxDepth {
		return 0, newError(KindRecursionLimit, clean, "")
	}
	if clean == "" {
		return 0, newError(KindEmptyExpression, clean, "")
	}
	if !validation.IsExpressionCharset(clean) {
		return 0, newError(KindInvalidCharacters, clean, "")
	}
	if !balanced(clean) {
		return 0, newError(KindUnbalancedParentheses, clean, "")
	}

	tokens, err := e.resolveGroups(clean, Tokenize(clean), depth)
	if err != nil {
		return 0, err
	}
	if tokens, err = reducePass(clean, tokens, "^"); err != nil {
		return 0, err
	}
	if tokens, err = reducePass(clean, tokens, "*", "/"); err != nil {
		return 0, err
	}
	result, err := accumulate(clean, tokens)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, newError(KindNonFiniteResult, clean, "")
	}
	return round3(result), nil
}

// balanced scans parenthesis depth; it must never go negative and must end at zero.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// resolveGroups replaces parenthesized groups, innermost first, with the
// value of their recursively evaluated text.
func (e *Evaluator) resolveGroups(expression string, tokens []Token, depth int) ([]Token, error) {
	for {
		open := -1
		for i := len(tokens) - 1; i >= 0; i-- {
			if tokens[i].Kind == TokenLeftParen {
				open = i
				break
			}
		}
		if open < 0 {
			return tokens, nil
		}

		closing := -1
		for i := open + 1; i < len(tokens); i++ {
			if tokens[i].Kind == TokenRightParen {
				closing = i
				break
			}
		}
		if closing < 0 {
			return nil, newError(KindMismatchedParentheses, expression, "")
		}

		v, err := e.evaluate(joinTokens(tokens[open+1:closing]), depth+1)
		if err != nil {
			return nil, err
		}
		tokens = splice(tokens, open, closing-open+1, numberToken(v))
	}
}

// reducePass reduces (operand, op, operand) triples for the given operators,
// visiting odd positions left to right and rewinding after each reduction.
func reducePass(expression string, tokens []Token, ops ...string) ([]Token, error) {
	for i := 1; i < len(tokens); i += 2 {
		if !matchesAny(tokens[i], ops) {
			continue
		}
		v, err := apply(expression, tokens[i].Text, operand(tokens, i-1), operand(tokens, i+1))
		if err != nil {
			return nil, err
		}
		tokens = splice(tokens, i-1, 3, numberToken(v))
		i -= 2
	}
	return tokens, nil
}

// accumulate folds the remaining tokens left to right.
func accumulate(expression string, tokens []Token) (float64, error) {
	if len(tokens) == 0 {
		return 0, newError(KindEmptyExpression, expression, "")
	}
	result := operand(tokens, 0)
	if math.IsNaN(result) {
		return 0, newError(KindMissingLeadingOperand, expression, tokens[0].Text)
	}
	for i := 1; i < len(tokens); i += 2 {
		if tokens[i].Kind != TokenOperator {
			return 0, newError(KindInvalidOperator, expression, tokens[i].Text)
		}
		v, err := apply(expression, tokens[i].Text, result, operand(tokens, i+1))
		if err != nil {
			return 0, err
		}
		result = v
	}
	return result, nil
}

func apply(expression, op string, a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, newError(KindInvalidOperand, expression, "operands for "+op)
	}
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, newError(KindDivisionByZero, expression, "")
		}
		return a / b, nil
	case "^":
		return math.Pow(a, b), nil
	default:
		return 0, newError(KindInvalidOperator, expression, op)
	}
}

// operand returns the numeric value at index i, or NaN when the position is
// out of range or not a number.
func operand(tokens []Token, i int) float64 {
	if i < 0 || i >= len(tokens) || tokens[i].Kind != TokenNumber {
		return math.NaN()
	}
	return tokens[i].Value
}

func matchesAny(t Token, ops []string) bool {
	for _, op := range ops {
		if t.isOp(op) {
			return true
		}
	}
	return false
}

// splice replaces n tokens starting at start with repl.
func splice(tokens []Token, start, n int, repl Token) []Token {
	out := make([]Token, 0, len(tokens)-n+1)
	out = append(out, tokens[:start]...)
	out = append(out, repl)
	return append(out, tokens[start+n:]...)
}

func round3(v float64) float64 {
	r := math.Round(v*roundingScale) / roundingScale
	if math.IsInf(r, 0) {
		// v*1000 overflowed; v is far beyond three-decimal precision anyway.
		r = v
	}
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
