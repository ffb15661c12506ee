// Package mpc implements an arbitrary-precision complex scalar on top of
// math/big floats.
//
// A Complex holds a real and an imaginary big.Float at a common precision.
// Arithmetic follows the big.Float convention: the receiver is the
// destination, operands may alias the receiver, and the result is rounded
// to the receiver's precision. Transcendental functions use principal
// branches throughout.
//
// Real-valued exp, log and sqrt come from github.com/ALTree/bigfloat;
// trigonometric kernels and the circle constant are implemented locally
// (see real.go) since no maintained module provides them at arbitrary
// precision.
//
// Operations that leave the function's domain (division by zero, log of
// zero, tan at a pole) return an error instead of producing IEEE specials:
// there is no NaN at arbitrary precision.
package mpc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// Domain errors returned by fallible operations.
var (
	ErrDivisionByZero = errors.New("mpc: division by zero")
	ErrDomain         = errors.New("mpc: argument outside function domain")
)

// Complex is an arbitrary-precision complex number.
// The zero value is 0+0i at precision 0 and adopts the precision of the
// first operand it is assigned from.
type Complex struct {
	re, im big.Float
}

// BitsForDigits converts decimal digits to big.Float precision bits, with
// guard bits so decimal round-trips stay faithful.
func BitsForDigits(digits uint) uint {
	const log2of10 = 3.321928094887362
	return uint(float64(digits)*log2of10) + 17
}

// New returns 0+0i at the given precision in bits.
func New(prec uint) *Complex {
	z := new(Complex)
	z.re.SetPrec(prec)
	z.im.SetPrec(prec)
	return z
}

// Prec returns the precision of z in bits.
func (z *Complex) Prec() uint { return z.re.Prec() }

// SetPrec rounds z to prec bits and sets its precision.
func (z *Complex) SetPrec(prec uint) *Complex {
	z.re.SetPrec(prec)
	z.im.SetPrec(prec)
	return z
}

// Re returns the real part. The returned value is shared with z.
func (z *Complex) Re() *big.Float { return &z.re }

// Im returns the imaginary part. The returned value is shared with z.
func (z *Complex) Im() *big.Float { return &z.im }

// IsZero reports whether z == 0.
func (z *Complex) IsZero() bool { return z.re.Sign() == 0 && z.im.Sign() == 0 }

// Equal reports whether z and x represent the same value.
func (z *Complex) Equal(x *Complex) bool {
	return z.re.Cmp(&x.re) == 0 && z.im.Cmp(&x.im) == 0
}

// Set assigns x to z, rounding to z's precision.
func (z *Complex) Set(x *Complex) *Complex {
	z.adopt(x)
	z.re.Set(&x.re)
	z.im.Set(&x.im)
	return z
}

// SetComplex128 assigns a machine complex to z.
func (z *Complex) SetComplex128(c complex128) *Complex {
	z.re.SetFloat64(real(c))
	z.im.SetFloat64(imag(c))
	return z
}

// Complex128 returns the nearest machine complex to z.
func (z *Complex) Complex128() complex128 {
	r, _ := z.re.Float64()
	i, _ := z.im.Float64()
	return complex(r, i)
}

// SetBigInt assigns an exact integer to z.
func (z *Complex) SetBigInt(v *big.Int) *Complex {
	z.re.SetInt(v)
	z.im.SetInt64(0)
	return z
}

// SetBigRat assigns an exact rational to z, rounded to z's precision.
func (z *Complex) SetBigRat(v *big.Rat) *Complex {
	z.re.SetRat(v)
	z.im.SetInt64(0)
	return z
}

// SetBigFloat assigns re + im*i to z, rounded to z's precision.
// A nil im means zero.
func (z *Complex) SetBigFloat(re, im *big.Float) *Complex {
	z.re.Set(re)
	if im != nil {
		z.im.Set(im)
	} else {
		z.im.SetInt64(0)
	}
	return z
}

// String formats z as "(re, im)" using big.Float's shortest 'g' format.
func (z *Complex) String() string {
	return fmt.Sprintf("(%s, %s)", z.re.Text('g', -1), z.im.Text('g', -1))
}

// adopt gives a zero-precision receiver the precision of x.
func (z *Complex) adopt(x *Complex) {
	if z.re.Prec() == 0 {
		z.SetPrec(x.re.Prec())
	}
}

// Add sets z = x + y.
func (z *Complex) Add(x, y *Complex) *Complex {
	z.adopt(x)
	z.re.Add(&x.re, &y.re)
	z.im.Add(&x.im, &y.im)
	return z
}

// Sub sets z = x - y.
func (z *Complex) Sub(x, y *Complex) *Complex {
	z.adopt(x)
	z.re.Sub(&x.re, &y.re)
	z.im.Sub(&x.im, &y.im)
	return z
}

// Neg sets z = -x.
func (z *Complex) Neg(x *Complex) *Complex {
	z.adopt(x)
	z.re.Neg(&x.re)
	z.im.Neg(&x.im)
	return z
}

// Mul sets z = x * y.
func (z *Complex) Mul(x, y *Complex) *Complex {
	z.adopt(x)
	p := z.Prec() + guardBits
	ac := new(big.Float).SetPrec(p).Mul(&x.re, &y.re)
	bd := new(big.Float).SetPrec(p).Mul(&x.im, &y.im)
	ad := new(big.Float).SetPrec(p).Mul(&x.re, &y.im)
	bc := new(big.Float).SetPrec(p).Mul(&x.im, &y.re)
	z.re.Sub(ac, bd)
	z.im.Add(ad, bc)
	return z
}

// Div sets z = x / y. It returns ErrDivisionByZero when y == 0.
func (z *Complex) Div(x, y *Complex) error {
	if y.IsZero() {
		return ErrDivisionByZero
	}
	z.adopt(x)
	p := z.Prec() + guardBits
	d := new(big.Float).SetPrec(p).Mul(&y.re, &y.re)
	t := new(big.Float).SetPrec(p).Mul(&y.im, &y.im)
	d.Add(d, t)

	ac := new(big.Float).SetPrec(p).Mul(&x.re, &y.re)
	bd := new(big.Float).SetPrec(p).Mul(&x.im, &y.im)
	bc := new(big.Float).SetPrec(p).Mul(&x.im, &y.re)
	ad := new(big.Float).SetPrec(p).Mul(&x.re, &y.im)

	ac.Add(ac, bd)
	bc.Sub(bc, ad)
	z.re.Quo(ac, d)
	z.im.Quo(bc, d)
	return nil
}

// Abs sets dst to |z| and returns it; a nil dst allocates one at z's
// precision.
func (z *Complex) Abs(dst *big.Float) *big.Float {
	if dst == nil {
		dst = new(big.Float).SetPrec(z.Prec())
	}
	return dst.Set(hypot(&z.re, &z.im, z.Prec()))
}

// Arg returns the principal argument of z in (-pi, pi].
func (z *Complex) Arg() *big.Float {
	return atan2Real(&z.im, &z.re, z.Prec())
}

// Exp sets z = e^x.
func (z *Complex) Exp(x *Complex) *Complex {
	z.adopt(x)
	p := z.Prec() + guardBits
	ea := bigfloat.Exp(new(big.Float).SetPrec(p).Set(&x.re))
	sin, cos := sinCosReal(&x.im, p)
	z.re.Mul(ea, cos)
	z.im.Mul(ea, sin)
	return z
}

// Log sets z = log(x) on the principal branch. Log of zero is an error.
func (z *Complex) Log(x *Complex) error {
	if x.IsZero() {
		return fmt.Errorf("%w: log of zero", ErrDomain)
	}
	z.adopt(x)
	p := z.Prec() + guardBits
	mod := hypot(&x.re, &x.im, p)
	arg := atan2Real(&x.im, &x.re, p)
	z.re.Set(bigfloat.Log(mod))
	z.im.Set(arg)
	return nil
}

// Sqrt sets z = sqrt(x) on the principal branch (nonnegative real part).
func (z *Complex) Sqrt(x *Complex) *Complex {
	z.adopt(x)
	if x.IsZero() {
		z.re.SetInt64(0)
		z.im.SetInt64(0)
		return z
	}
	p := z.Prec() + guardBits
	mod := hypot(&x.re, &x.im, p)

	// w = sqrt((|x| + |re|)/2); the larger component is computed directly,
	// the other by division, which avoids cancellation.
	absRe := new(big.Float).SetPrec(p).Abs(&x.re)
	w := new(big.Float).SetPrec(p).Add(mod, absRe)
	w.Quo(w, two(p))
	w = bigfloat.Sqrt(w)

	t := new(big.Float).SetPrec(p).Quo(&x.im, w)
	t.Quo(t, two(p))

	if x.re.Sign() >= 0 {
		z.re.Set(w)
		z.im.Set(t)
		return z
	}
	if x.im.Sign() >= 0 {
		z.re.Abs(t)
		z.im.Set(w)
		return z
	}
	z.re.Abs(t)
	z.im.Neg(w)
	return z
}

// Pow sets z = x^y on the principal branch, via exp(y*log x).
// 0^0 is 1 and 0^y is 0 for re(y) > 0; other zero bases are errors.
func (z *Complex) Pow(x, y *Complex) error {
	if x.IsZero() {
		z.adopt(x)
		if y.IsZero() {
			z.re.SetInt64(1)
			z.im.SetInt64(0)
			return nil
		}
		if y.re.Sign() > 0 {
			z.re.SetInt64(0)
			z.im.SetInt64(0)
			return nil
		}
		return fmt.Errorf("%w: zero base with nonpositive exponent", ErrDomain)
	}
	z.adopt(x)
	p := z.Prec() + guardBits
	ln := New(p)
	if err := ln.Log(x); err != nil {
		return err
	}
	ln.Mul(y, ln)
	z.Exp(ln)
	return nil
}

// Sin sets z = sin(x): sin(a)cosh(b) + i cos(a)sinh(b).
func (z *Complex) Sin(x *Complex) *Complex {
	z.adopt(x)
	p := z.Prec() + guardBits
	sin, cos := sinCosReal(&x.re, p)
	sinh, cosh := sinhCoshReal(&x.im, p)
	z.re.Mul(sin, cosh)
	z.im.Mul(cos, sinh)
	return z
}

// Cos sets z = cos(x): cos(a)cosh(b) - i sin(a)sinh(b).
func (z *Complex) Cos(x *Complex) *Complex {
	z.adopt(x)
	p := z.Prec() + guardBits
	sin, cos := sinCosReal(&x.re, p)
	sinh, cosh := sinhCoshReal(&x.im, p)
	z.re.Mul(cos, cosh)
	z.im.Mul(sin, sinh)
	z.im.Neg(&z.im)
	return z
}

// Tan sets z = tan(x) = sin(x)/cos(x). A pole of tan is an error.
func (z *Complex) Tan(x *Complex) error {
	z.adopt(x)
	p := z.Prec() + guardBits
	s := New(p).Sin(x)
	c := New(p).Cos(x)
	if c.IsZero() {
		return fmt.Errorf("%w: tan at pole", ErrDomain)
	}
	return z.Div(s, c)
}

// Asin sets z = asin(x) = -i log(ix + sqrt(1-x^2)).
func (z *Complex) Asin(x *Complex) error {
	z.adopt(x)
	p := z.Prec() + guardBits
	w := New(p).Mul(x, x)
	w.Sub(onec(p), w)
	w.Sqrt(w)
	// w += i*x
	w.re.Sub(&w.re, &x.im)
	w.im.Add(&w.im, &x.re)
	if err := z.Log(w); err != nil {
		return err
	}
	mulNegI(z)
	return nil
}

// Acos sets z = acos(x) = -i log(x + i sqrt(1-x^2)).
func (z *Complex) Acos(x *Complex) error {
	z.adopt(x)
	p := z.Prec() + guardBits
	w := New(p).Mul(x, x)
	w.Sub(onec(p), w)
	w.Sqrt(w)
	mulI(w)
	w.Add(w, x)
	if err := z.Log(w); err != nil {
		return err
	}
	mulNegI(z)
	return nil
}

// Atan sets z = atan(x) = (i/2)(log(1-ix) - log(1+ix)).
// The branch points +/-i are errors.
func (z *Complex) Atan(x *Complex) error {
	z.adopt(x)
	p := z.Prec() + guardBits
	ix := New(p).Set(x)
	mulI(ix)
	a := New(p).Sub(onec(p), ix)
	b := New(p).Add(onec(p), ix)
	if a.IsZero() || b.IsZero() {
		return fmt.Errorf("%w: atan at branch point", ErrDomain)
	}
	la := New(p)
	if err := la.Log(a); err != nil {
		return err
	}
	lb := New(p)
	if err := lb.Log(b); err != nil {
		return err
	}
	la.Sub(la, lb)
	mulI(la)
	la.re.Quo(&la.re, two(p))
	la.im.Quo(&la.im, two(p))
	z.Set(la)
	return nil
}

// onec returns 1+0i at the given precision.
func onec(prec uint) *Complex {
	z := New(prec)
	z.re.SetInt64(1)
	return z
}

// mulI multiplies z by i in place: (a+bi)*i = -b + ai.
func mulI(z *Complex) {
	t := new(big.Float).SetPrec(z.re.Prec()).Set(&z.re)
	z.re.Neg(&z.im)
	z.im.Set(t)
}

// mulNegI multiplies z by -i in place: (a+bi)*(-i) = b - ai.
func mulNegI(z *Complex) {
	t := new(big.Float).SetPrec(z.re.Prec()).Set(&z.re)
	z.re.Set(&z.im)
	z.im.Neg(t)
}
