package mpc

import (
	"math/big"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBits = 256

// close128 checks an mpc result against a complex128 reference within
// double-precision tolerance.
func close128(t *testing.T, want complex128, got *Complex) {
	t.Helper()
	g := got.Complex128()
	require.InDelta(t, real(want), real(g), 1e-12)
	require.InDelta(t, imag(want), imag(g), 1e-12)
}

func fromC(c complex128) *Complex {
	return New(testBits).SetComplex128(c)
}

func TestFieldOps(t *testing.T) {
	t.Parallel()
	a := fromC(1.5 + 2.25i)
	b := fromC(-0.5 + 3i)

	close128(t, (1.5+2.25i)+(-0.5+3i), New(testBits).Add(a, b))
	close128(t, (1.5+2.25i)-(-0.5+3i), New(testBits).Sub(a, b))
	close128(t, (1.5+2.25i)*(-0.5+3i), New(testBits).Mul(a, b))
	close128(t, -(1.5 + 2.25i), New(testBits).Neg(a))

	q := New(testBits)
	require.NoError(t, q.Div(a, b))
	close128(t, (1.5+2.25i)/(-0.5+3i), q)
}

func TestDivByZero(t *testing.T) {
	t.Parallel()
	err := New(testBits).Div(fromC(1), fromC(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAliasedOperands(t *testing.T) {
	t.Parallel()
	z := fromC(2 + 1i)
	z.Mul(z, z)
	close128(t, (2+1i)*(2+1i), z)

	w := fromC(3 - 1i)
	require.NoError(t, w.Div(w, w))
	close128(t, 1, w)
}

func TestPi(t *testing.T) {
	t.Parallel()
	// 60 decimal digits of pi.
	const want = "3.14159265358979323846264338327950288419716939937510582097494"
	p := pi(BitsForDigits(60))
	require.Equal(t, want[:50], p.Text('f', 48)[:50])
}

func TestTranscendentalsMatchCmplx(t *testing.T) {
	t.Parallel()
	args := []complex128{0.3 + 0.4i, -1.2 + 0.7i, 2.5 - 1.5i, 0.9, -0.4i}

	tests := []struct {
		name string
		ref  func(complex128) complex128
		mp   func(z, x *Complex) error
	}{
		{"exp", cmplx.Exp, func(z, x *Complex) error { z.Exp(x); return nil }},
		{"log", cmplx.Log, func(z, x *Complex) error { return z.Log(x) }},
		{"sqrt", cmplx.Sqrt, func(z, x *Complex) error { z.Sqrt(x); return nil }},
		{"sin", cmplx.Sin, func(z, x *Complex) error { z.Sin(x); return nil }},
		{"cos", cmplx.Cos, func(z, x *Complex) error { z.Cos(x); return nil }},
		{"tan", cmplx.Tan, func(z, x *Complex) error { return z.Tan(x) }},
		{"asin", cmplx.Asin, func(z, x *Complex) error { return z.Asin(x) }},
		{"acos", cmplx.Acos, func(z, x *Complex) error { return z.Acos(x) }},
		{"atan", cmplx.Atan, func(z, x *Complex) error { return z.Atan(x) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, arg := range args {
				z := New(testBits)
				require.NoError(t, tt.mp(z, fromC(arg)), "arg %v", arg)
				close128(t, tt.ref(arg), z)
			}
		})
	}
}

func TestPowMatchesCmplx(t *testing.T) {
	t.Parallel()
	pairs := [][2]complex128{
		{2 + 1i, 3},
		{1.5 - 0.5i, 0.5 + 0.25i},
		{0.7 + 0.3i, -2},
	}
	for _, pq := range pairs {
		z := New(testBits)
		require.NoError(t, z.Pow(fromC(pq[0]), fromC(pq[1])))
		close128(t, cmplx.Pow(pq[0], pq[1]), z)
	}
}

func TestPowZeroBase(t *testing.T) {
	t.Parallel()
	z := New(testBits)
	require.NoError(t, z.Pow(fromC(0), fromC(0)))
	close128(t, 1, z)

	require.NoError(t, z.Pow(fromC(0), fromC(2+1i)))
	close128(t, 0, z)

	err := z.Pow(fromC(0), fromC(-1))
	require.ErrorIs(t, err, ErrDomain)
}

func TestDomainErrors(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, New(testBits).Log(fromC(0)), ErrDomain)
	require.ErrorIs(t, New(testBits).Atan(fromC(1i)), ErrDomain)
	require.ErrorIs(t, New(testBits).Atan(fromC(-1i)), ErrDomain)
}

func TestLogExpRoundTrip(t *testing.T) {
	t.Parallel()
	x := fromC(0.8 + 1.3i)
	l := New(testBits)
	require.NoError(t, l.Log(x))
	back := New(testBits).Exp(l)

	diff := New(testBits).Sub(back, x)
	eps := new(big.Float).SetPrec(testBits).SetFloat64(1)
	eps.SetMantExp(eps, -200) // well below 256-bit working precision
	require.Less(t, diff.Abs(nil).Cmp(eps), 0, "exp(log x) differs from x by %s", diff)
}

func TestPythagoreanIdentityHighPrecision(t *testing.T) {
	t.Parallel()
	bits := BitsForDigits(100)
	x := New(bits).SetComplex128(0.7 + 0.3i)

	s := New(bits).Sin(x)
	c := New(bits).Cos(x)
	sum := New(bits).Mul(s, s)
	c2 := New(bits).Mul(c, c)
	sum.Add(sum, c2)

	one := New(bits).SetComplex128(1)
	diff := New(bits).Sub(sum, one)
	eps := new(big.Float).SetPrec(bits).SetFloat64(1)
	eps.SetMantExp(eps, -int(BitsForDigits(95)))
	require.Less(t, diff.Abs(nil).Cmp(eps), 0,
		"sin^2+cos^2 deviates from 1 by %s", diff)
}

func TestSetBigPayloads(t *testing.T) {
	t.Parallel()
	z := New(testBits).SetBigInt(big.NewInt(-7))
	close128(t, -7, z)

	z.SetBigRat(big.NewRat(1, 3))
	require.InDelta(t, 1.0/3.0, real(z.Complex128()), 1e-15)

	z.SetBigFloat(big.NewFloat(2.5), big.NewFloat(-0.5))
	close128(t, 2.5-0.5i, z)
}

func TestZeroValueAdoptsPrecision(t *testing.T) {
	t.Parallel()
	var z Complex
	z.Add(fromC(1+1i), fromC(2))
	require.Equal(t, uint(testBits), z.Prec())
	close128(t, 3+1i, &z)
}
