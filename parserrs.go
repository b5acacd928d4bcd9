package wordmath

import "strconv"

// SyntaxError indicates a candidate expression that passed the character-set
// gate but is not a well-formed arithmetic expression. It unwraps to the
// positional error describing the problem.
type SyntaxError struct {
	// Expr is the complete input.
	Expr string
	// Err is the specific parse error.
	Err InputError
}

func (err *SyntaxError) Error() string {
	return "malformed expression " + strconv.Quote(err.Expr) + ": " + err.Err.Error()
}

func (err *SyntaxError) Unwrap() error {
	return err.Err
}

// Pos returns the position of the underlying parse error.
func (err *SyntaxError) Pos() int {
	return err.Err.Pos()
}

// OperatorError is an error indicating an operator token in a position where
// it cannot be used, e.g. the second operator of "5 + * 3". It implements
// InputError.
type OperatorError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the token that was not understood.
	Operator string
	// Unary is whether the parser expected a unary operator at the time.
	Unary bool
}

func (err *OperatorError) Error() string {
	s := "binary"
	if err.Unary {
		s = "unary"
	}
	return errpos(err.Col, "unknown "+s+" operator "+strconv.Quote(err.Operator))
}

func (err *OperatorError) Pos() int {
	return err.Col
}

// BracketError is an error indicating mismatched brackets in the
// input. It implements InputError.
type BracketError struct {
	// Col is the position of the offending token.
	Col int
	// Left is the opening bracket, or empty if there was none.
	Left string
	// Right is the closing bracket, or empty if there was none.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Col, "close bracket "+err.Right+" with no open bracket")
	}
	return errpos(err.Col, "open bracket "+err.Left+" with no close bracket")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// JuxtapositionError is an error indicating a term directly following another
// term with no operator between them, as in "2 3" or "2 (3)". It implements
// InputError.
type JuxtapositionError struct {
	// Col is the position of the second term.
	Col int
	// Text is the token that began the second term.
	Text string
}

func (err *JuxtapositionError) Error() string {
	return errpos(err.Col, "missing operator before "+strconv.Quote(err.Text))
}

func (err *JuxtapositionError) Pos() int {
	return err.Col
}

// EmptyExpressionError is an error indicating an empty subexpression.
// It implements InputError.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is the token that ended the subexpression.
	End string
}

func (err *EmptyExpressionError) Error() string {
	if err.End == "" {
		if err.Col <= 1 {
			return errpos(err.Col, "no expression")
		}
		return errpos(err.Col, "no expression at end")
	}
	return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

// DepthError is an error indicating subexpressions nested more deeply than
// the parser allows. It implements InputError.
type DepthError struct {
	// Col is the position of the token that exceeded the limit.
	Col int
	// Max is the limit.
	Max int
}

func (err *DepthError) Error() string {
	return errpos(err.Col, "expression nested deeper than "+strconv.Itoa(err.Max)+" levels")
}

func (err *DepthError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input to Parse implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*OperatorError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*JuxtapositionError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*DepthError)(nil)
	_ InputError = (*LexError)(nil)
	_ InputError = (*SyntaxError)(nil)
)
