package wordmath

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Allowed contains every non-whitespace rune that may appear in an expression.
// Any whitespace rune is also allowed.
const Allowed = "0123456789+-*/()."

// allowed reports whether r passes the character-set gate.
func allowed(r rune) bool {
	switch {
	case '0' <= r && r <= '9':
		return true
	case r == '+', r == '-', r == '*', r == '/', r == '(', r == ')', r == '.':
		return true
	case r == utf8.RuneError:
		// Invalid UTF-8 decodes to RuneError. A literal U+FFFD is not allowed
		// either, so there is no need to tell them apart.
		return false
	default:
		return unicode.IsSpace(r)
	}
}

// Check verifies that s consists entirely of runes from Allowed and
// whitespace. The whole string must match, and the empty string never does.
// If s fails the gate, the error is a *ValidationError.
func Check(s string) error {
	if s == "" {
		return &ValidationError{Expr: s}
	}
	col := 0
	for _, r := range s {
		col++
		if !allowed(r) {
			return &ValidationError{Expr: s, Col: col, Rune: r}
		}
	}
	return nil
}

// ValidationError indicates a candidate expression containing a rune outside
// the allowed character set. No part of such an expression is ever parsed or
// evaluated.
type ValidationError struct {
	// Expr is the complete rejected input.
	Expr string
	// Col is the 1-based rune position of the first disallowed rune, or 0 if
	// the input was empty.
	Col int
	// Rune is the first disallowed rune.
	Rune rune
}

func (err *ValidationError) Error() string {
	return "unsafe expression: " + err.Expr
}

// Detail describes the first rejected rune in a form suitable for display.
func (err *ValidationError) Detail() string {
	if err.Col == 0 {
		return "empty expression"
	}
	return errpos(err.Col, "disallowed character "+strconv.QuoteRune(err.Rune))
}
