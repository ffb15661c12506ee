package expr

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumericPredicates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		node *Node
		zero bool
		one  bool
	}{
		{"int zero", Int(0), true, false},
		{"int one", Int(1), false, true},
		{"int other", Int(-3), false, false},
		{"rat zero", Rat(0, 5), true, false},
		{"rat one", Rat(3, 3), false, true},
		{"float one", Float(big.NewFloat(1)), false, true},
		{"complex nonzero", Complex(big.NewFloat(0), big.NewFloat(1)), false, false},
		{"variable", Var("x"), false, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.zero, tt.node.IsZero())
			require.Equal(t, tt.one, tt.node.IsOne())
		})
	}
}

func TestBuilderShapes(t *testing.T) {
	t.Parallel()
	x, y := Var("x"), Var("y")

	s := Sub(x, y)
	require.Equal(t, KindSum, s.Kind)
	require.Equal(t, []int{1, -1}, s.Signs)

	d := Div(x, y)
	require.Equal(t, KindProduct, d.Kind)
	require.Equal(t, []int{1, -1}, d.Signs)

	p := PowInt(x, 5)
	require.Equal(t, KindIntegerPower, p.Kind)
	require.Equal(t, 5, p.Exponent)

	require.Panics(t, func() { Sum([]*Node{x}, []int{1, -1}) })
	require.Panics(t, func() { Sum([]*Node{x}, []int{2}) })
}

func TestNewSystemValidation(t *testing.T) {
	t.Parallel()
	x, y := Var("x"), Var("y")
	f := Add(x, y)

	_, err := NewSystem(nil, nil, []*Node{f})
	require.Error(t, err)

	_, err = NewSystem([]*Node{x, y}, nil, nil)
	require.Error(t, err)

	_, err = NewSystem([]*Node{x, x}, nil, []*Node{f})
	require.Error(t, err)

	_, err = NewSystem([]*Node{x, y}, x, []*Node{f})
	require.Error(t, err)

	_, err = NewSystem([]*Node{x, Int(3)}, nil, []*Node{f})
	require.Error(t, err)

	sys, err := NewSystem([]*Node{x, y}, nil, []*Node{f})
	require.NoError(t, err)
	require.Equal(t, 2, sys.NumVariables())
	require.Equal(t, 1, sys.NumFunctions())
	require.False(t, sys.HasPathVariable())
}

func TestFingerprintStructural(t *testing.T) {
	t.Parallel()
	build := func() *System {
		x, y := Var("x"), Var("y")
		sys, err := NewSystem([]*Node{x, y}, nil, []*Node{Add(Mul(x, y), Int(1))})
		require.NoError(t, err)
		return sys
	}

	// Structurally identical systems hash identically even though the
	// node pointers differ.
	require.Equal(t, build().Fingerprint(), build().Fingerprint())

	// A different constant changes the hash.
	x, y := Var("x"), Var("y")
	other, err := NewSystem([]*Node{x, y}, nil, []*Node{Add(Mul(x, y), Int(2))})
	require.NoError(t, err)
	require.NotEqual(t, build().Fingerprint(), other.Fingerprint())
}

func TestFingerprintSeesSharing(t *testing.T) {
	t.Parallel()
	x := Var("x")

	shared := Mul(x, x)
	withSharing, err := NewSystem([]*Node{x}, nil, []*Node{Add(shared, shared)})
	require.NoError(t, err)

	x2 := Var("x")
	a, b := Mul(x2, x2), Mul(x2, x2)
	withoutSharing, err := NewSystem([]*Node{x2}, nil, []*Node{Add(a, b)})
	require.NoError(t, err)

	require.NotEqual(t, withSharing.Fingerprint(), withoutSharing.Fingerprint())
}

func TestJacobianShape(t *testing.T) {
	t.Parallel()
	x, y, tvar := Var("x"), Var("y"), Var("t")
	sys, err := NewSystem([]*Node{x, y}, tvar, []*Node{
		Add(x, y),
		Sub(Mul(x, y), tvar),
	})
	require.NoError(t, err)

	jac := sys.Jacobian()
	require.Len(t, jac, 2)
	for _, row := range jac {
		require.Len(t, row, 2)
	}
	// Cached: same graph on second call.
	require.Same(t, jac[0][0], sys.Jacobian()[0][0])

	td := sys.TimeDeriv()
	require.Len(t, td, 2)
}

func TestStringRendering(t *testing.T) {
	t.Parallel()
	x := Var("x")
	n := Sub(Mul(x, x), Rat(3, 2))
	require.Equal(t, "((x*x) - 3/2)", n.String())
	require.Equal(t, "sin(x)", Sin(x).String())
	require.Equal(t, "x^4", PowInt(x, 4).String())
}
