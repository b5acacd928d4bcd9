package wordmath

import (
	"io"
	"strings"
)

// Expr = num | Neg | Plus | Add | Sub | Mul | Div | '(' Expr ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr
// Div = Expr '/' Expr

// Expr is a parsed expression that can be evaluated with a context.
type Expr struct {
	// n is the root node of the expression.
	n *node
}

// Parse parses an arithmetic expression so it can be evaluated with a
// context. The given options are applied in order.
//
// Parse does not apply the character-set gate; its lexer rejects anything
// that is not part of the grammar, but callers handling untrusted input should
// use Check or EvalString so that rejections are reported as ValidationErrors.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	scan := lex(src)
	p := parsectx{max: DefaultMaxDepth}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.max <= 0 {
		p.max = DefaultMaxDepth
	}
	n, err := parseterm(scan, &p, exprprec)
	if err != nil {
		return nil, err
	}
	if tok := scan.must(); tok.kind != tokenEOF {
		return nil, itShouldNotHaveEndedThisWay(tok)
	}
	if n == nil {
		// parselhs reports EOF as an empty expression, so only a stray close
		// bracket leaves n nil, and that was handled above.
		panic("wordmath: parsed nothing without error")
	}
	return &Expr{n: n}, nil
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression ended by a close bracket, the result is nil with no error;
// callers must create an error in contexts where empty subexpressions are
// illegal, which is all of them.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenOpen:
			// Neither 2 3 nor 2 (3) is a multiplication.
			return nil, &JuxtapositionError{Col: tok.pos, Text: tok.text}
		case tokenOp:
			prec := binop(tok.text)
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &node{kind: prec.op, col: tok.pos, left: n, right: rhs}
		case tokenClose, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("wordmath: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text, col: tok.pos}, nil
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		rhs, err := parseterm(scan, p, prec)
		p.leave()
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return &node{kind: prec.op, col: tok.pos, left: rhs}, nil
	case tokenOpen:
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		rhs, err := parseterm(scan, p, exprprec)
		p.leave()
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose {
			return nil, itShouldNotHaveEndedThisWay(end)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return rhs, nil
	case tokenClose:
		// Let the caller decide which error this is.
		scan.push(tok)
		return nil, nil
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("wordmath: unknown token: " + tok.String())
	}
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression.
func itShouldNotHaveEndedThisWay(tok lexToken) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: "(", Right: ""}
	case tokenClose:
		// A close bracket here has nothing to match.
		return &BracketError{Col: tok.pos, Left: "", Right: tok.text}
	default:
		panic("wordmath: it really should not have ended this way: " + tok.String())
	}
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	return e.n.String()
}

// Canonical renders the expression with only the parentheses its structure
// requires and no whitespace. Parsing the result gives the same tree.
func (e *Expr) Canonical() string {
	var b strings.Builder
	e.n.canon(&b, exprprec.prec, false)
	return b.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
