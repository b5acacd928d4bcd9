package wordmath

import (
	"math/big"
	"strconv"
	"strings"
)

// Values with a decimal exponent in [minPlainExp, maxPlainExp) are written
// without an exponent. These are the points where Python's float repr
// switches to exponent notation.
const (
	minPlainExp = -4
	maxPlainExp = 16
)

// Format renders a result as a canonical decimal string. Integral values have
// no fractional part, and other values use the fewest digits that identify
// the value uniquely at its precision. Very large or small magnitudes use
// exponent notation, e.g. 1e+16 and 1e-05. Infinities are "inf" and "-inf", and
// negative zero is "0".
func Format(x *big.Float) string {
	switch {
	case x.IsInf():
		if x.Signbit() {
			return "-inf"
		}
		return "inf"
	case x.Sign() == 0:
		return "0"
	}
	if exp := decexp(x); exp < minPlainExp || exp >= maxPlainExp {
		return x.Text('g', -1)
	}
	return x.Text('f', -1)
}

// decexp returns the exponent of x written in shortest scientific notation.
func decexp(x *big.Float) int {
	s := x.Text('e', -1)
	k := strings.LastIndexByte(s, 'e')
	if k < 0 {
		panic("wordmath: no exponent in " + s)
	}
	exp, err := strconv.Atoi(s[k+1:])
	if err != nil {
		panic("wordmath: bad exponent in " + s)
	}
	return exp
}
