package wordmath

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

// DefaultMaxDepth is the default limit on nested parentheses and unary
// operators.
const DefaultMaxDepth = 200

type depthopt int

// parsectx holds general data for parsing.
type parsectx struct {
	// depth is the current nesting depth.
	depth int
	// max is the greatest allowed nesting depth.
	max int
}

// MaxDepth limits how deeply subexpressions may nest. Each open parenthesis
// and each unary operator adds a level. A limit of zero or less means
// DefaultMaxDepth.
func MaxDepth(n int) ParseOption {
	return depthopt(n)
}

func (o depthopt) parseOption(p parsectx) parsectx {
	p.max = int(o)
	return p
}

// enter adds a nesting level, failing if that exceeds the limit.
func (p *parsectx) enter(col int) error {
	p.depth++
	if p.depth > p.max {
		return &DepthError{Col: col, Max: p.max}
	}
	return nil
}

// leave removes a nesting level.
func (p *parsectx) leave() {
	p.depth--
}
