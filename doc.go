// Package wordmath implements a safe evaluator for the arithmetic expressions
// a language model produces from word problems.
//
// Model output is untrusted. Before anything is parsed, Check requires that
// the whole input is made of decimal digits, the operators + - * /,
// parentheses, decimal points, and whitespace. What passes the gate is parsed
// by a small precedence-climbing parser that knows nothing but numerals and
// those four operators, and is evaluated exactly like IEEE double arithmetic
// unless a higher precision is requested.
//
// The usual entry point is Evaluate, which returns the result as a canonical
// decimal string. Parse and Context give access to the parse tree and the
// arbitrary-precision value.
package wordmath
