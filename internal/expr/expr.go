// Package expr evaluates the restricted conditional expressions used in
// template descriptor defaults and visibility conditions.
//
// The grammar is deliberately closed: delimiter stripping, bare identifier
// lookup, ternary selection, and string equality checks. Anything else is
// returned unchanged so an unsupported expression degrades to literal text
// instead of aborting provisioning.
package expr

import (
	"fmt"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Evaluate resolves expression against the provided bindings. It is a pure
// function: no side effects, no access to anything beyond its arguments.
func Evaluate(expression string, bindings map[string]any) any {
	expr := strings.TrimSpace(expression)
	if strings.HasPrefix(expr, openDelim) && strings.HasSuffix(expr, closeDelim) {
		expr = strings.TrimSpace(expr[len(openDelim) : len(expr)-len(closeDelim)])
	}

	// Bare identifier reference, e.g. {{ use_github_repo }}.
	if value, ok := bindings[expr]; ok {
		return value
	}

	// Ternary selection, e.g. 'yes' if flag == 'on' else 'no'. Must be
	// matched before the comparison forms: the condition usually contains
	// an == or != of its own.
	if truePart, rest, ok := strings.Cut(expr, " if "); ok {
		if condition, falsePart, ok := strings.Cut(rest, " else "); ok {
			result := Evaluate(strings.TrimSpace(condition), bindings)
			if isTruthy(result) {
				return stripQuotes(strings.TrimSpace(truePart))
			}
			return stripQuotes(strings.TrimSpace(falsePart))
		}
	}

	// Equality check, e.g. license == 'MIT'. A name that is not bound is
	// never equal to anything.
	if name, literal, ok := strings.Cut(expr, " == "); ok {
		value, bound := bindings[strings.TrimSpace(name)]
		if !bound {
			return false
		}
		return literalString(value) == stripQuotes(strings.TrimSpace(literal))
	}

	// Inequality check, the complement of the above: an unbound name is
	// unequal to every literal.
	if name, literal, ok := strings.Cut(expr, " != "); ok {
		value, bound := bindings[strings.TrimSpace(name)]
		if !bound {
			return true
		}
		return literalString(value) != stripQuotes(strings.TrimSpace(literal))
	}

	// Not part of the grammar: hand the original text back unchanged.
	return expression
}

func stripQuotes(s string) string {
	return strings.Trim(s, `'"`)
}

func literalString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
