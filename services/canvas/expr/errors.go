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
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrEmptyExpression is returned when the input is empty after whitespace is stripped.
	ErrEmptyExpression = errors.New("empty expression")

	// ErrInvalidCharacters is returned when the input contains anything other
	// than digits, dots, parentheses and the operators + - * / ^.
	ErrInvalidCharacters = errors.New("invalid characters in expression")

	// ErrUnbalancedParentheses is returned when parenthesis depth goes negative
	// or does not return to zero.
	ErrUnbalancedParentheses = errors.New("unbalanced parentheses")

	// ErrMismatchedParentheses is returned when an opening parenthesis has no
	// closing partner after it.
	ErrMismatchedParentheses = errors.New("mismatched parentheses")

	// ErrDivisionByZero is returned for a division whose right operand is exactly zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrMissingLeadingOperand is returned when the reduced expression does not start with a number.
	ErrMissingLeadingOperand = errors.New("expression must start with a number")

	// ErrInvalidOperator is returned when an operator position holds something else.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidOperand is returned when an operator's neighbour is not a number.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrNonFiniteResult is returned when the result is NaN or infinite.
	ErrNonFiniteResult = errors.New("invalid result")

	// ErrRecursionLimit is returned when parentheses nest deeper than the evaluator allows.
	ErrRecursionLimit = errors.New("parentheses nested too deeply")
)

// =============================================================================
// Error Kinds
// =============================================================================

// Kind classifies an evaluation failure.
type Kind int

const (
	KindEmptyExpression Kind = iota
	KindInvalidCharacters
	KindUnbalancedParentheses
	KindMismatchedParentheses
	KindDivisionByZero
	KindMissingLeadingOperand
	KindInvalidOperator
	KindInvalidOperand
	KindNonFiniteResult
	KindRecursionLimit
)

var kindSentinels = map[Kind]error{
	KindEmptyExpression:       ErrEmptyExpression,
	KindInvalidCharacters:     ErrInvalidCharacters,
	KindUnbalancedParentheses: ErrUnbalancedParentheses,
	KindMismatchedParentheses: ErrMismatchedParentheses,
	KindDivisionByZero:        ErrDivisionByZero,
	KindMissingLeadingOperand: ErrMissingLeadingOperand,
	KindInvalidOperator:       ErrInvalidOperator,
	KindInvalidOperand:        ErrInvalidOperand,
	KindNonFiniteResult:       ErrNonFiniteResult,
	KindRecursionLimit:        ErrRecursionLimit,
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyExpression:
		return "empty_expression"
	case KindInvalidCharacters:
		return "invalid_characters"
	case KindUnbalancedParentheses:
		return "unbalanced_parentheses"
	case KindMismatchedParentheses:
		return "mismatched_parentheses"
	case KindDivisionByZero:
		return "division_by_zero"
	case KindMissingLeadingOperand:
		return "missing_leading_operand"
	case KindInvalidOperator:
		return "invalid_operator"
	case KindInvalidOperand:
		return "invalid_operand"
	case KindNonFiniteResult:
		return "non_finite_result"
	case KindRecursionLimit:
		return "recursion_limit"
	default:
		return "unknown"
	}
}

// =============================================================================
// EvaluationError
// =============================================================================

// EvaluationError describes why an expression could not be evaluated.
//
// # Description
//
// Carries the failure Kind, the (whitespace-stripped) expression or
// sub-expression that failed, and an optional detail such as the offending
// operator. Unwrap returns the sentinel for Kind so callers can use either
// errors.Is or errors.As.
//
// # Example
//
//	_, err := expr.Evaluate("5/0")
//	errors.Is(err, expr.ErrDivisionByZero) // true
//
//	var evalErr *expr.EvaluationError
//	if errors.As(err, &evalErr) {
//	    fmt.Println(evalErr.Kind) // division_by_zero
//	}
//
// # Thread Safety
//
// Immutable after creation.
type EvaluationError struct {
	// Kind is the failure category.
	Kind Kind

	// Expression is the text being evaluated when the failure occurred.
	Expression string

	// Detail is optional extra context (an operator or operand token).
	Detail string
}

// Error returns the sentinel message, followed by the detail when present.
func (e *EvaluationError) Error() string {
	msg := e.Unwrap().Error()
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the sentinel error for the kind.
func (e *EvaluationError) Unwrap() error {
	if err, ok := kindSentinels[e.Kind]; ok {
		return err
	}
	return errors.New("evaluation failed")
}

// KindOf extracts the Kind from err.
//
// Returns false when err is not (and does not wrap) an *EvaluationError.
func KindOf(err error) (Kind, bool) {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return evalErr.Kind, true
	}
	return 0, false
}

func newError(kind Kind, expression, detail string) *EvaluationError {
	return &EvaluationError{Kind: kind, Expression: expression, Detail: detail}
}
