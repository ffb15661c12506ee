package expr

import (
	"fmt"
	"math/big"
)

// differ performs symbolic differentiation with respect to one variable.
// Results are memoized per node so shared subtrees yield shared derivative
// subtrees, preserving the DAG structure the compiler deduplicates on.
type differ struct {
	memo map[diffKey]*Node
	zero *Node
	one  *Node
}

type diffKey struct {
	n   *Node
	wrt *Node
}

func newDiffer() *differ {
	return &differ{
		memo: make(map[diffKey]*Node),
		zero: Int(0),
		one:  Int(1),
	}
}

// diff returns the derivative graph of n with respect to wrt.
// Trivial identities are folded during construction (0+x, 1*x, x^1);
// anything deeper is the business of a simplifier, not the differ.
func (d *differ) diff(n, wrt *Node) *Node {
	key := diffKey{n, wrt}
	if r, ok := d.memo[key]; ok {
		return r
	}
	r := d.compute(n, wrt)
	d.memo[key] = r
	return r
}

func (d *differ) compute(n, wrt *Node) *Node {
	switch n.Kind {
	case KindVariable:
		if n == wrt {
			return d.one
		}
		return d.zero

	case KindInteger, KindRational, KindFloat:
		return d.zero

	case KindSum:
		var terms []*Node
		var signs []int
		for i, op := range n.Operands {
			t := d.diff(op, wrt)
			if t.IsZero() {
				continue
			}
			terms = append(terms, t)
			signs = append(signs, n.Signs[i])
		}
		switch len(terms) {
		case 0:
			return d.zero
		case 1:
			if signs[0] < 0 {
				return Neg(terms[0])
			}
			return terms[0]
		}
		return Sum(terms, signs)

	case KindProduct:
		return d.diffProduct(n.Operands, n.Signs, wrt)

	case KindIntegerPower:
		base := n.Operands[0]
		db := d.diff(base, wrt)
		if n.Exponent == 0 || db.IsZero() {
			return d.zero
		}
		return d.mul(Int(int64(n.Exponent)), d.intPow(base, n.Exponent-1), db)

	case KindPower:
		return d.diffPower(n, wrt)

	case KindNegate:
		db := d.diff(n.Operands[0], wrt)
		if db.IsZero() {
			return d.zero
		}
		return Neg(db)

	case KindExp:
		return d.chain(n.Operands[0], wrt, n) // d/dx e^u = u' e^u, sharing n itself

	case KindLog:
		u := n.Operands[0]
		du := d.diff(u, wrt)
		if du.IsZero() {
			return d.zero
		}
		return Div(du, u)

	case KindSin:
		return d.chain(n.Operands[0], wrt, Cos(n.Operands[0]))

	case KindCos:
		u := n.Operands[0]
		du := d.diff(u, wrt)
		if du.IsZero() {
			return d.zero
		}
		return Neg(d.mul(du, Sin(u)))

	case KindTan:
		// d tan u = u' (1 + tan^2 u); reuses the tan node.
		return d.chain(n.Operands[0], wrt, Add(d.one, Mul(n, n)))

	case KindAsin:
		u := n.Operands[0]
		du := d.diff(u, wrt)
		if du.IsZero() {
			return d.zero
		}
		return Div(du, invSqrtArg(u))

	case KindAcos:
		u := n.Operands[0]
		du := d.diff(u, wrt)
		if du.IsZero() {
			return d.zero
		}
		return Neg(Div(du, invSqrtArg(u)))

	case KindAtan:
		u := n.Operands[0]
		du := d.diff(u, wrt)
		if du.IsZero() {
			return d.zero
		}
		return Div(du, Add(d.one, Mul(u, u)))
	}
	panic(fmt.Sprintf("expr: differentiate: unhandled kind %v", n.Kind))
}

// chain returns diff(u) * outer, or zero when diff(u) vanishes.
func (d *differ) chain(u, wrt, outer *Node) *Node {
	du := d.diff(u, wrt)
	if du.IsZero() {
		return d.zero
	}
	return d.mul(du, outer)
}

// diffProduct differentiates f1^e1 * f2^e2 * ... by splitting off the
// first factor and recursing on the tail: (a*R)' = a'R + aR'.
func (d *differ) diffProduct(factors []*Node, exps []int, wrt *Node) *Node {
	if len(factors) == 0 {
		// Empty product is the constant one.
		return d.zero
	}
	if len(factors) == 1 {
		f := factors[0]
		df := d.diff(f, wrt)
		if df.IsZero() {
			return d.zero
		}
		if exps[0] > 0 {
			return df
		}
		// (1/f)' = -f'/f^2
		return Neg(Div(df, d.intPow(f, 2)))
	}

	head := Product(factors[:1], exps[:1])
	tail := Product(factors[1:], exps[1:])
	dHead := d.diffProduct(factors[:1], exps[:1], wrt)
	dTail := d.diffProduct(factors[1:], exps[1:], wrt)

	left := d.mulOrZero(dHead, tail)
	right := d.mulOrZero(head, dTail)
	switch {
	case left.IsZero() && right.IsZero():
		return d.zero
	case left.IsZero():
		return right
	case right.IsZero():
		return left
	}
	return Add(left, right)
}

// diffPower differentiates base^exponent. Constant exponents use the power
// rule; the general case is a^b (b' log a + b a'/a).
func (d *differ) diffPower(n, wrt *Node) *Node {
	base, exp := n.Operands[0], n.Operands[1]
	dBase := d.diff(base, wrt)
	dExp := d.diff(exp, wrt)

	if dExp.IsZero() {
		if dBase.IsZero() {
			return d.zero
		}
		return d.mul(exp, Pow(base, numericDec(exp)), dBase)
	}

	var terms []*Node
	if !dExp.IsZero() {
		terms = append(terms, d.mul(dExp, Log(base)))
	}
	if !dBase.IsZero() {
		terms = append(terms, d.mul(exp, Div(dBase, base)))
	}
	inner := terms[0]
	if len(terms) == 2 {
		inner = Add(terms[0], terms[1])
	}
	return d.mul(n, inner) // reuses the power node itself
}

// mulOrZero returns a*b, short-circuiting zero factors.
func (d *differ) mulOrZero(a, b *Node) *Node {
	if a.IsZero() || b.IsZero() {
		return d.zero
	}
	return d.mul(a, b)
}

// mul multiplies its operands, dropping unit factors.
func (d *differ) mul(xs ...*Node) *Node {
	var kept []*Node
	for _, x := range xs {
		if x.IsOne() {
			continue
		}
		kept = append(kept, x)
	}
	switch len(kept) {
	case 0:
		return d.one
	case 1:
		return kept[0]
	}
	return Mul(kept...)
}

// intPow returns base^n with the small cases folded away.
func (d *differ) intPow(base *Node, n int) *Node {
	switch n {
	case 0:
		return d.one
	case 1:
		return base
	}
	return PowInt(base, n)
}

// invSqrtArg returns sqrt(1 - u^2), the denominator of the arcsine and
// arccosine derivatives, expressed as a half-integer power.
func invSqrtArg(u *Node) *Node {
	return Pow(Sub(Int(1), Mul(u, u)), Rat(1, 2))
}

// numericDec returns exp-1 for an exponent whose derivative is zero,
// folded into a single literal when exp is numeric.
func numericDec(exp *Node) *Node {
	switch exp.Kind {
	case KindInteger:
		return BigInt(new(big.Int).Sub(exp.Int, big.NewInt(1)))
	case KindRational:
		return BigRat(new(big.Rat).Sub(exp.Rat, big.NewRat(1, 1)))
	case KindFloat:
		re := new(big.Float).Copy(exp.Re)
		re.Sub(re, big.NewFloat(1))
		return Complex(re, exp.Im)
	}
	// A non-numeric exponent with zero derivative (another variable, or a
	// subexpression of constants) falls back to the symbolic form.
	return Sub(exp, Int(1))
}
