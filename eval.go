package wordmath

import (
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// DefaultPrec is the default precision of calculations in bits. It is the
// mantissa width of an IEEE 754 double. At this precision, every value is
// also limited to the range of float64 after each literal and operation, so
// magnitudes beyond it become infinities and tiny ones round toward zero as
// float64 arithmetic does. At any other precision the exponent is unbounded.
const DefaultPrec = 53

// Context is a context for evaluating expressions. It is not safe to use a
// Context concurrently.
type Context struct {
	stack []*big.Float
	prec  uint
	err   error
	// binary64 clamps values to the range of float64.
	binary64 bool
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type precopt uint

func (precopt) ctxOption() {}

// Prec sets the precision of calculations. A precision of zero means
// DefaultPrec.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is DefaultPrec.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{prec: DefaultPrec}
	return ctx.Clone(opts...)
}

// Eval evaluates an expression and returns the result. If an error occurs,
// i.e. an operation with no defined value such as 0/0, then the result is nil
// and ctx.Err returns the error.
func (ctx *Context) Eval(e *Expr) *big.Float {
	switch len(ctx.stack) {
	case 0: // do nothing
	case 1:
		ctx.stack[0] = new(big.Float).SetPrec(ctx.prec)
		ctx.stack = ctx.stack[:0]
	default:
		panic("wordmath: Eval during Eval")
	}
	err := e.n.eval(ctx)
	ctx.err = err
	if err != nil {
		ctx.stack = ctx.stack[:0]
		return nil
	}
	return ctx.Result()
}

// Result returns the result obtained after evaluating an expression. Panics if
// ctx has not been used to evaluate an expression. Returns nil if an error
// occurred during evaluation.
func (ctx *Context) Result() *big.Float {
	if ctx.err != nil {
		return nil
	}
	switch len(ctx.stack) {
	case 0:
		panic("wordmath: Context.Result called before evaluating any expression")
	case 1:
		return ctx.stack[0]
	default:
		panic("wordmath: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
}

// Err returns the error that occurred while evaluating the last expression
// with ctx, if any.
func (ctx *Context) Err() error {
	return ctx.err
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Clone creates a copy of a context and applies options to it. The returned
// context has no Result and is safe to use to evaluate an expression.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		stack: make([]*big.Float, 0, cap(ctx.stack)),
		prec:  ctx.prec,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case precopt:
			n.prec = uint(opt)
		default:
			panic("wordmath: unknown option type")
		}
	}
	if n.prec == 0 {
		n.prec = DefaultPrec
	}
	n.binary64 = n.prec == DefaultPrec
	return &n
}

// push ensures a settable value on the stack.
func (ctx *Context) push() *big.Float {
	if len(ctx.stack) < cap(ctx.stack) {
		ctx.stack = ctx.stack[:len(ctx.stack)+1]
		if ctx.stack[len(ctx.stack)-1] == nil {
			ctx.stack[len(ctx.stack)-1] = new(big.Float).SetPrec(ctx.prec)
		}
	} else {
		ctx.stack = append(ctx.stack, new(big.Float).SetPrec(ctx.prec))
	}
	return ctx.stack[len(ctx.stack)-1]
}

// pop removes the top from the stack and returns it. The returned value may be
// modified by future node evaluations.
func (ctx *Context) pop() *big.Float {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (ctx *Context) top() *big.Float {
	return ctx.stack[len(ctx.stack)-1]
}

// clamp rounds x into the range of float64 if the context requires it.
func (ctx *Context) clamp(x *big.Float) {
	if !ctx.binary64 {
		return
	}
	f, _ := x.Float64()
	x.SetFloat64(f)
}

// num parses a numeral to the context's precision.
func (ctx *Context) num(s string) *big.Float {
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(s, 10)
	if err != nil {
		// The lexer only produces valid decimal numerals.
		panic("wordmath: invalid number: " + s + " (" + err.Error() + ")")
	}
	return r
}

// eval pushes the node's value to the context's stack.
func (n *node) eval(ctx *Context) error {
	switch n.kind {
	case nodeNum:
		v := ctx.push()
		v.Set(ctx.num(n.name))
		ctx.clamp(v)
	case nodeNeg:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		v.Neg(v)
	case nodeNop:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		if err := n.right.eval(ctx); err != nil {
			return err
		}
		r := ctx.pop()
		l := ctx.top()
		// big.Float panics on operations with no defined value, so check
		// for them first.
		if undefined(n.kind, l, r) {
			return &DomainError{Col: n.col, Op: n.kind.symbol(), X: new(big.Float).Copy(l), Y: new(big.Float).Copy(r)}
		}
		switch n.kind {
		case nodeAdd:
			l.Add(l, r)
		case nodeSub:
			l.Sub(l, r)
		case nodeMul:
			l.Mul(l, r)
		case nodeDiv:
			l.Quo(l, r)
		}
		ctx.clamp(l)
	default:
		panic("wordmath: invalid AST node " + n.kind.String())
	}
	return nil
}

// undefined reports whether applying the binary operation k to l and r would
// produce NaN under IEEE 754 rules.
func undefined(k nodeKind, l, r *big.Float) bool {
	switch k {
	case nodeAdd:
		return l.IsInf() && r.IsInf() && l.Signbit() != r.Signbit()
	case nodeSub:
		return l.IsInf() && r.IsInf() && l.Signbit() == r.Signbit()
	case nodeMul:
		return l.IsInf() && r.Sign() == 0 || l.Sign() == 0 && r.IsInf()
	case nodeDiv:
		return l.Sign() == 0 && r.Sign() == 0 || l.IsInf() && r.IsInf()
	default:
		return false
	}
}

// EvalString is a shortcut to apply the character-set gate, parse an
// expression, and return its result. Input the gate rejects gives a
// *ValidationError and is never parsed. Input that is not a well-formed
// expression gives a *SyntaxError. An operation with no defined value gives a
// *DomainError.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	if err := Check(src); err != nil {
		return nil, err
	}
	a, err := Parse(strings.NewReader(src))
	if err != nil {
		var ie InputError
		if errors.As(err, &ie) {
			return nil, &SyntaxError{Expr: src, Err: ie}
		}
		return nil, err
	}
	ctx := NewContext(opts...)
	ctx.Eval(a)
	return ctx.Result(), ctx.Err()
}

// Eval reads an entire expression from src and evaluates it as EvalString
// does.
func Eval(src io.Reader, opts ...ContextOption) (*big.Float, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return EvalString(string(b), opts...)
}

// Evaluate computes the value of an untrusted arithmetic expression at the
// default precision and renders it with Format. It fails in the same ways as
// EvalString.
func Evaluate(src string) (string, error) {
	r, err := EvalString(src)
	if err != nil {
		return "", err
	}
	return Format(r), nil
}

// DomainError is an error returned when an operation is applied to operands
// for which it has no defined value, e.g. 0/0 or inf-inf. Where IEEE 754
// arithmetic would produce NaN, evaluation fails with a DomainError instead.
type DomainError struct {
	// Col is the position of the operator.
	Col int
	// Op is the operator.
	Op string
	// X and Y are the left and right operands.
	X, Y *big.Float
}

func (err *DomainError) Error() string {
	return errpos(err.Col, Format(err.X)+" "+err.Op+" "+Format(err.Y)+" is undefined")
}

func (err *DomainError) Pos() int {
	return err.Col
}
