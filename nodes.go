package wordmath

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	name string
	col  int

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum // push num

	nodeNeg // evaluate left, then negate
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodeNop // evaluate left
)

func (k nodeKind) String() string {
	switch k {
	case nodeNone:
		return "None"
	case nodeNum:
		return "Num"
	case nodeNeg:
		return "Neg"
	case nodeAdd:
		return "Add"
	case nodeSub:
		return "Sub"
	case nodeMul:
		return "Mul"
	case nodeDiv:
		return "Div"
	case nodeNop:
		return "Nop"
	default:
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// symbol is the operator text for a binary node kind.
func (k nodeKind) symbol() string {
	switch k {
	case nodeAdd:
		return "+"
	case nodeSub:
		return "-"
	case nodeMul:
		return "*"
	case nodeDiv:
		return "/"
	default:
		return ""
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, square)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, square)
		}
		b.WriteByte('$')
	case nodeNum:
		b.WriteString(n.name)
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, !square)
	case nodeAdd, nodeSub, nodeMul, nodeDiv:
		n.left.fmt(b, !square)
		b.WriteString(" " + n.kind.symbol() + " ")
		n.right.fmt(b, !square)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, !square)
	default:
		panic("wordmath: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// canon writes n with only the parentheses needed to preserve its structure.
// prec is the binding strength of the enclosing operator; right indicates
// that n is the right operand of it.
func (n *node) canon(b *strings.Builder, prec int8, right bool) {
	switch n.kind {
	case nodeNum:
		b.WriteString(n.name)
	case nodeNeg, nodeNop:
		op := unop("-")
		wrap := op.prec < prec
		if wrap {
			b.WriteByte('(')
		}
		if n.kind == nodeNeg {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
		n.left.canon(b, op.prec, true)
		if wrap {
			b.WriteByte(')')
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv:
		op := binop(n.kind.symbol())
		// Binary operators are left-associative, so an equally binding right
		// operand needs parentheses: a-(b-c).
		wrap := op.prec < prec || op.prec == prec && right
		if wrap {
			b.WriteByte('(')
		}
		n.left.canon(b, op.prec, false)
		b.WriteString(n.kind.symbol())
		n.right.canon(b, op.prec, true)
		if wrap {
			b.WriteByte(')')
		}
	default:
		panic("wordmath: invalid node kind " + n.kind.String())
	}
}
