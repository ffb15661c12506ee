package mpc

import (
	"math/big"
	"sync"

	"github.com/ALTree/bigfloat"
)

// guardBits is added to the working precision of every intermediate so the
// final rounding to the caller's precision absorbs accumulated error.
const guardBits = 32

// piCache holds the widest pi computed so far; narrower requests round down.
var piCache struct {
	mu  sync.Mutex
	val *big.Float
}

// pi returns the circle constant at the given precision.
// Machin's formula: pi = 16*atan(1/5) - 4*atan(1/239).
func pi(prec uint) *big.Float {
	piCache.mu.Lock()
	defer piCache.mu.Unlock()

	if piCache.val != nil && piCache.val.Prec() >= prec+guardBits {
		return new(big.Float).SetPrec(prec).Set(piCache.val)
	}

	p := prec + guardBits
	a := atanRecip(5, p)
	b := atanRecip(239, p)
	a.Mul(a, big.NewFloat(16).SetPrec(p))
	b.Mul(b, big.NewFloat(4).SetPrec(p))
	a.Sub(a, b)

	piCache.val = a
	return new(big.Float).SetPrec(prec).Set(a)
}

// atanRecip computes atan(1/n) for integer n >= 2 by the Taylor series
// sum_k (-1)^k / ((2k+1) n^(2k+1)). Converges a fixed number of bits per
// term, so it terminates for any precision.
func atanRecip(n int64, prec uint) *big.Float {
	invN2 := new(big.Float).SetPrec(prec).SetInt64(n * n)
	invN2.Quo(one(prec), invN2)

	pow := new(big.Float).SetPrec(prec).SetInt64(n)
	pow.Quo(one(prec), pow) // 1/n^(2k+1)
	sum := new(big.Float).SetPrec(prec).Set(pow)
	term := new(big.Float).SetPrec(prec)

	for k := int64(1); ; k++ {
		pow.Mul(pow, invN2)
		term.Quo(pow, new(big.Float).SetPrec(prec).SetInt64(2*k+1))
		if negligible(term, prec) {
			break
		}
		if k%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum
}

// atanReal computes atan(x) for a finite real x.
// The half-angle identity atan(x) = 2*atan(x / (1 + sqrt(1+x^2))) is applied
// until the argument is small, then the Taylor series finishes the job.
func atanReal(x *big.Float, prec uint) *big.Float {
	p := prec + guardBits
	z := new(big.Float).SetPrec(p).Set(x)

	neg := z.Sign() < 0
	if neg {
		z.Neg(z)
	}

	// Reduce until z < 1/8; each step halves the angle.
	small := new(big.Float).SetPrec(p).SetFloat64(0.125)
	doublings := 0
	t := new(big.Float).SetPrec(p)
	for z.Cmp(small) > 0 {
		t.Mul(z, z)
		t.Add(t, one(p))
		t = bigfloat.Sqrt(t)
		t.Add(t, one(p))
		z.Quo(z, t)
		doublings++
	}

	sum := atanSeries(z, p)
	for i := 0; i < doublings; i++ {
		sum.Add(sum, sum)
	}
	if neg {
		sum.Neg(sum)
	}
	return sum.SetPrec(prec)
}

// atanSeries sums the Maclaurin series of atan for |x| < 1/8.
func atanSeries(x *big.Float, prec uint) *big.Float {
	x2 := new(big.Float).SetPrec(prec).Mul(x, x)
	pow := new(big.Float).SetPrec(prec).Set(x)
	sum := new(big.Float).SetPrec(prec).Set(x)
	term := new(big.Float).SetPrec(prec)

	for k := int64(1); ; k++ {
		pow.Mul(pow, x2)
		term.Quo(pow, new(big.Float).SetPrec(prec).SetInt64(2*k+1))
		if negligible(term, prec) {
			break
		}
		if k%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum
}

// atan2Real computes the principal argument of the point (x, y), in (-pi, pi].
// The origin maps to 0; callers that must reject it do so before calling.
func atan2Real(y, x *big.Float, prec uint) *big.Float {
	p := prec + guardBits
	switch {
	case x.Sign() == 0 && y.Sign() == 0:
		return new(big.Float).SetPrec(prec)
	case x.Sign() == 0:
		half := pi(p)
		half.Quo(half, two(p))
		if y.Sign() < 0 {
			half.Neg(half)
		}
		return half.SetPrec(prec)
	}

	q := new(big.Float).SetPrec(p).Quo(y, x)
	a := atanReal(q, p)
	if x.Sign() > 0 {
		return a.SetPrec(prec)
	}
	if y.Sign() >= 0 {
		a.Add(a, pi(p))
	} else {
		a.Sub(a, pi(p))
	}
	return a.SetPrec(prec)
}

// sinCosReal computes sin(x) and cos(x) together: the argument is reduced
// modulo 2*pi, scaled down by 2^4, summed by Taylor series, and rebuilt with
// the double-angle identities.
func sinCosReal(x *big.Float, prec uint) (sin, cos *big.Float) {
	p := prec + guardBits
	// The reduction r = x - 2*pi*floor(x/2*pi) cancels roughly as many
	// bits as x has exponent; widen the working precision to compensate.
	if e := x.MantExp(nil); e > 0 {
		p += uint(e)
	}
	r := new(big.Float).SetPrec(p).Set(x)

	// r := x mod 2*pi, shifted into (-pi, pi].
	twoPi := pi(p)
	twoPi.Mul(twoPi, two(p))
	q := new(big.Float).SetPrec(p).Quo(r, twoPi)
	r.Sub(r, new(big.Float).SetPrec(p).Mul(floorBig(q, p), twoPi))
	if r.Cmp(pi(p)) > 0 {
		r.Sub(r, twoPi)
	}

	const halvings = 4
	r.Quo(r, new(big.Float).SetPrec(p).SetInt64(1<<halvings))

	sin, cos = sinCosSeries(r, p)

	// sin(2a) = 2 sin a cos a; cos(2a) = 1 - 2 sin^2 a.
	t := new(big.Float).SetPrec(p)
	for i := 0; i < halvings; i++ {
		t.Mul(sin, cos)
		t.Add(t, t)
		cos.Mul(sin, sin)
		cos.Add(cos, cos)
		cos.Sub(one(p), cos)
		sin.Set(t)
	}
	return sin.SetPrec(prec), cos.SetPrec(prec)
}

// sinCosSeries sums the Maclaurin series of sin and cos for a reduced
// argument (|x| <= pi/16 after reduction).
func sinCosSeries(x *big.Float, prec uint) (sin, cos *big.Float) {
	x2 := new(big.Float).SetPrec(prec).Mul(x, x)

	sin = new(big.Float).SetPrec(prec).Set(x)
	sterm := new(big.Float).SetPrec(prec).Set(x)
	cos = one(prec)
	cterm := one(prec)
	den := new(big.Float).SetPrec(prec)

	for k := int64(1); ; k++ {
		// cos term: x^(2k) / (2k)!
		cterm.Mul(cterm, x2)
		cterm.Quo(cterm, den.SetInt64(2*k*(2*k-1)))
		// sin term: x^(2k+1) / (2k+1)!
		sterm.Mul(sterm, x2)
		sterm.Quo(sterm, den.SetInt64(2*k*(2*k+1)))

		if k%2 == 1 {
			cos.Sub(cos, cterm)
			sin.Sub(sin, sterm)
		} else {
			cos.Add(cos, cterm)
			sin.Add(sin, sterm)
		}
		if negligible(sterm, prec) && negligible(cterm, prec) {
			break
		}
	}
	return sin, cos
}

// sinhCoshReal computes sinh(x) and cosh(x) from the exponential.
func sinhCoshReal(x *big.Float, prec uint) (sinh, cosh *big.Float) {
	p := prec + guardBits
	e := bigfloat.Exp(new(big.Float).SetPrec(p).Set(x))
	inv := new(big.Float).SetPrec(p).Quo(one(p), e)

	sinh = new(big.Float).SetPrec(p).Sub(e, inv)
	sinh.Quo(sinh, two(p))
	cosh = new(big.Float).SetPrec(p).Add(e, inv)
	cosh.Quo(cosh, two(p))
	return sinh.SetPrec(prec), cosh.SetPrec(prec)
}

// hypot computes sqrt(a^2 + b^2). big.Float exponents span the int32 range,
// so the naive form cannot overflow for any value arising here.
func hypot(a, b *big.Float, prec uint) *big.Float {
	p := prec + guardBits
	s := new(big.Float).SetPrec(p).Mul(a, a)
	t := new(big.Float).SetPrec(p).Mul(b, b)
	s.Add(s, t)
	return bigfloat.Sqrt(s).SetPrec(prec)
}

// floorBig returns the largest integer <= q.
func floorBig(q *big.Float, prec uint) *big.Float {
	i, acc := q.Int(nil)
	f := new(big.Float).SetPrec(prec).SetInt(i)
	if q.Sign() < 0 && acc != big.Exact {
		f.Sub(f, one(prec))
	}
	return f
}

// negligible reports whether |t| < 2^-(prec) relative to unit scale, the
// series-termination test used throughout this file.
func negligible(t *big.Float, prec uint) bool {
	if t.Sign() == 0 {
		return true
	}
	return t.MantExp(nil) < -int(prec)
}

func one(prec uint) *big.Float { return new(big.Float).SetPrec(prec).SetInt64(1) }
func two(prec uint) *big.Float { return new(big.Float).SetPrec(prec).SetInt64(2) }
