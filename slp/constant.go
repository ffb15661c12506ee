package slp

import (
	"math/big"

	"github.com/sbl8/straightline/expr"
	"github.com/sbl8/straightline/mpc"
)

// Constant pairs the symbolic value of an embedded number with the memory
// slot holding its working-precision projection. The symbolic node is
// precision-agnostic; projections are recomputed whenever the program's
// precision changes.
type Constant struct {
	Node *expr.Node // numeric leaf: integer, rational, or big-float
	Slot int
}

// complex128 projects the constant to machine precision.
func (c Constant) complex128() complex128 {
	switch c.Node.Kind {
	case expr.KindInteger:
		f, _ := new(big.Float).SetInt(c.Node.Int).Float64()
		return complex(f, 0)
	case expr.KindRational:
		f, _ := new(big.Float).SetRat(c.Node.Rat).Float64()
		return complex(f, 0)
	case expr.KindFloat:
		re, _ := c.Node.Re.Float64()
		var im float64
		if c.Node.Im != nil {
			im, _ = c.Node.Im.Float64()
		}
		return complex(re, im)
	}
	return 0
}

// project writes the constant into dst at dst's precision.
func (c Constant) project(dst *mpc.Complex) {
	switch c.Node.Kind {
	case expr.KindInteger:
		dst.SetBigInt(c.Node.Int)
	case expr.KindRational:
		dst.SetBigRat(c.Node.Rat)
	case expr.KindFloat:
		dst.SetBigFloat(c.Node.Re, c.Node.Im)
	}
}
