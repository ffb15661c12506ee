// Package expr defines the expression graphs consumed by the slp compiler.
//
// An expression is a directed acyclic graph of Nodes. Sharing is by
// pointer: two references to the same *Node denote the same subexpression,
// and downstream consumers (the compiler, the differ) treat pointer
// identity as node identity. Structurally equal but distinct nodes are
// distinct subexpressions.
//
// Numeric leaves carry exact, precision-agnostic payloads (big.Int,
// big.Rat, big.Float pairs) so a graph can be projected to any working
// precision after compilation.
//
// The node-kind set is closed. Sum and Product are n-ary with per-operand
// signs (addition vs subtraction, multiplication vs division), mirroring
// how polynomial systems arrive from problem generators.
package expr

import (
	"fmt"
	"math/big"
)

// Kind discriminates the closed set of node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVariable
	KindInteger
	KindRational
	KindFloat // big-float literal with optional imaginary part
	KindSum
	KindProduct
	KindIntegerPower
	KindPower
	KindNegate
	KindExp
	KindLog
	KindSin
	KindCos
	KindTan
	KindAsin
	KindAcos
	KindAtan
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindVariable:     "variable",
	KindInteger:      "integer",
	KindRational:     "rational",
	KindFloat:        "float",
	KindSum:          "sum",
	KindProduct:      "product",
	KindIntegerPower: "intpow",
	KindPower:        "pow",
	KindNegate:       "neg",
	KindExp:          "exp",
	KindLog:          "log",
	KindSin:          "sin",
	KindCos:          "cos",
	KindTan:          "tan",
	KindAsin:         "asin",
	KindAcos:         "acos",
	KindAtan:         "atan",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is one vertex of an expression graph. Fields beyond Kind are
// populated according to the kind; see the builder functions. Nodes are
// immutable once built.
type Node struct {
	Kind Kind

	Name     string     // KindVariable
	Int      *big.Int   // KindInteger
	Rat      *big.Rat   // KindRational
	Re, Im   *big.Float // KindFloat (Im may be nil)
	Exponent int        // KindIntegerPower

	// Operands are the child nodes. For KindSum and KindProduct, Signs
	// holds one +1/-1 per operand: addition/subtraction for sums,
	// multiplication/division for products.
	Operands []*Node
	Signs    []int
}

// IsNumeric reports whether n is a numeric leaf.
func (n *Node) IsNumeric() bool {
	switch n.Kind {
	case KindInteger, KindRational, KindFloat:
		return true
	}
	return false
}

// IsZero reports whether n is the numeric literal zero.
func (n *Node) IsZero() bool {
	switch n.Kind {
	case KindInteger:
		return n.Int.Sign() == 0
	case KindRational:
		return n.Rat.Sign() == 0
	case KindFloat:
		return n.Re.Sign() == 0 && (n.Im == nil || n.Im.Sign() == 0)
	}
	return false
}

// IsOne reports whether n is the numeric literal one.
func (n *Node) IsOne() bool {
	switch n.Kind {
	case KindInteger:
		return n.Int.Cmp(big.NewInt(1)) == 0
	case KindRational:
		return n.Rat.Cmp(big.NewRat(1, 1)) == 0
	case KindFloat:
		return n.Re.Cmp(big.NewFloat(1)) == 0 && (n.Im == nil || n.Im.Sign() == 0)
	}
	return false
}

// Var returns a fresh variable node. Identity matters: use the same *Node
// everywhere the variable occurs.
func Var(name string) *Node {
	return &Node{Kind: KindVariable, Name: name}
}

// Int returns an integer literal node.
func Int(v int64) *Node {
	return &Node{Kind: KindInteger, Int: big.NewInt(v)}
}

// BigInt returns an integer literal node holding v.
func BigInt(v *big.Int) *Node {
	return &Node{Kind: KindInteger, Int: new(big.Int).Set(v)}
}

// Rat returns a rational literal node num/den.
func Rat(num, den int64) *Node {
	return &Node{Kind: KindRational, Rat: big.NewRat(num, den)}
}

// BigRat returns a rational literal node holding v.
func BigRat(v *big.Rat) *Node {
	return &Node{Kind: KindRational, Rat: new(big.Rat).Set(v)}
}

// Float returns a real big-float literal node.
func Float(v *big.Float) *Node {
	return &Node{Kind: KindFloat, Re: new(big.Float).Copy(v)}
}

// Complex returns a complex big-float literal node. im may be nil.
func Complex(re, im *big.Float) *Node {
	n := &Node{Kind: KindFloat, Re: new(big.Float).Copy(re)}
	if im != nil {
		n.Im = new(big.Float).Copy(im)
	}
	return n
}

// Sum returns an n-ary signed sum. len(signs) must equal len(terms) and
// every sign must be +1 or -1.
func Sum(terms []*Node, signs []int) *Node {
	checkSigns(terms, signs)
	return &Node{Kind: KindSum, Operands: terms, Signs: signs}
}

// Add returns the sum of its operands.
func Add(xs ...*Node) *Node {
	return Sum(xs, plusSigns(len(xs)))
}

// Sub returns a - b.
func Sub(a, b *Node) *Node {
	return Sum([]*Node{a, b}, []int{1, -1})
}

// Product returns an n-ary product with per-factor exponents of +1
// (multiply) or -1 (divide).
func Product(factors []*Node, exps []int) *Node {
	checkSigns(factors, exps)
	return &Node{Kind: KindProduct, Operands: factors, Signs: exps}
}

// Mul returns the product of its operands.
func Mul(xs ...*Node) *Node {
	return Product(xs, plusSigns(len(xs)))
}

// Div returns a / b.
func Div(a, b *Node) *Node {
	return Product([]*Node{a, b}, []int{1, -1})
}

// PowInt returns base raised to a fixed integer exponent.
func PowInt(base *Node, n int) *Node {
	return &Node{Kind: KindIntegerPower, Operands: []*Node{base}, Exponent: n}
}

// Pow returns base raised to an arbitrary exponent expression.
func Pow(base, exp *Node) *Node {
	return &Node{Kind: KindPower, Operands: []*Node{base, exp}}
}

// Neg returns the negation of x.
func Neg(x *Node) *Node { return unary(KindNegate, x) }

// Exp returns e^x.
func Exp(x *Node) *Node { return unary(KindExp, x) }

// Log returns the natural logarithm of x.
func Log(x *Node) *Node { return unary(KindLog, x) }

// Sin returns sin(x).
func Sin(x *Node) *Node { return unary(KindSin, x) }

// Cos returns cos(x).
func Cos(x *Node) *Node { return unary(KindCos, x) }

// Tan returns tan(x).
func Tan(x *Node) *Node { return unary(KindTan, x) }

// Asin returns arcsin(x).
func Asin(x *Node) *Node { return unary(KindAsin, x) }

// Acos returns arccos(x).
func Acos(x *Node) *Node { return unary(KindAcos, x) }

// Atan returns arctan(x).
func Atan(x *Node) *Node { return unary(KindAtan, x) }

func unary(k Kind, x *Node) *Node {
	return &Node{Kind: k, Operands: []*Node{x}}
}

func plusSigns(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func checkSigns(ops []*Node, signs []int) {
	if len(ops) != len(signs) {
		panic(fmt.Sprintf("expr: %d operands with %d signs", len(ops), len(signs)))
	}
	for _, s := range signs {
		if s != 1 && s != -1 {
			panic(fmt.Sprintf("expr: sign must be +1 or -1, got %d", s))
		}
	}
}

// String renders the expression in infix form, for diagnostics only.
func (n *Node) String() string {
	switch n.Kind {
	case KindVariable:
		return n.Name
	case KindInteger:
		return n.Int.String()
	case KindRational:
		return n.Rat.RatString()
	case KindFloat:
		if n.Im != nil && n.Im.Sign() != 0 {
			return fmt.Sprintf("(%s+%si)", n.Re.Text('g', 17), n.Im.Text('g', 17))
		}
		return n.Re.Text('g', 17)
	case KindSum:
		s := "("
		for i, op := range n.Operands {
			switch {
			case i == 0 && n.Signs[i] < 0:
				s += "-"
			case i > 0 && n.Signs[i] < 0:
				s += " - "
			case i > 0:
				s += " + "
			}
			s += op.String()
		}
		return s + ")"
	case KindProduct:
		s := "("
		for i, op := range n.Operands {
			if i > 0 {
				if n.Signs[i] < 0 {
					s += "/"
				} else {
					s += "*"
				}
			} else if n.Signs[i] < 0 {
				s += "1/"
			}
			s += op.String()
		}
		return s + ")"
	case KindIntegerPower:
		return fmt.Sprintf("%s^%d", n.Operands[0], n.Exponent)
	case KindPower:
		return fmt.Sprintf("%s^(%s)", n.Operands[0], n.Operands[1])
	case KindNegate:
		return fmt.Sprintf("-(%s)", n.Operands[0])
	case KindExp, KindLog, KindSin, KindCos, KindTan, KindAsin, KindAcos, KindAtan:
		return fmt.Sprintf("%s(%s)", n.Kind, n.Operands[0])
	}
	return "<invalid>"
}
