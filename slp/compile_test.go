package slp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sbl8/straightline/expr"
)

func mustSystem(t *testing.T, vars []*expr.Node, pathVar *expr.Node, funcs []*expr.Node) *expr.System {
	t.Helper()
	sys, err := expr.NewSystem(vars, pathVar, funcs)
	require.NoError(t, err)
	return sys
}

func mustCompile(t *testing.T, sys *expr.System) *Program {
	t.Helper()
	p, err := Compile(sys, nil)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	return p
}

func TestCompileLayout(t *testing.T) {
	t.Parallel()
	x, y := expr.Var("x"), expr.Var("y")
	p := mustCompile(t, mustSystem(t, []*expr.Node{x, y}, nil, []*expr.Node{
		expr.Add(x, y),
		expr.Mul(x, y),
	}))

	l := p.Layout()
	require.Equal(t, 2, l.Num.Variables)
	require.Equal(t, 2, l.Num.Functions)
	require.Equal(t, 4, l.Num.Jacobian)
	require.Equal(t, 0, l.Num.TimeDeriv)
	require.False(t, l.HasTime)
	require.Equal(t, 0, l.In.Variables)

	// Output regions are disjoint from inputs and from each other, and
	// functions precede the Jacobian.
	require.GreaterOrEqual(t, l.Out.Functions, 2)
	require.Equal(t, l.Out.Functions+2, l.Out.Jacobian)
	require.Equal(t, l.Out.Jacobian+4, l.MemLen)
}

func TestCompileLayoutWithTime(t *testing.T) {
	t.Parallel()
	x, tv := expr.Var("x"), expr.Var("t")
	p := mustCompile(t, mustSystem(t, []*expr.Node{x}, tv, []*expr.Node{
		expr.Sub(x, tv),
	}))

	l := p.Layout()
	require.True(t, l.HasTime)
	require.Equal(t, 1, l.In.Time)
	require.Equal(t, 1, l.Num.TimeDeriv)
	require.True(t, p.HasPathVariable())
}

func TestCompileDeduplicatesSharedSubtrees(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")

	shared := expr.Mul(x, x)
	withSharing := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil,
		[]*expr.Node{expr.Add(shared, shared)}))

	x2 := expr.Var("x")
	noSharing := mustCompile(t, mustSystem(t, []*expr.Node{x2}, nil,
		[]*expr.Node{expr.Add(expr.Mul(x2, x2), expr.Mul(x2, x2))}))

	// The shared x*x is emitted once; the structurally-equal copy twice.
	require.Less(t, len(withSharing.instrs), len(noSharing.instrs))

	// Both still compute 2x^2.
	require.NoError(t, withSharing.Eval([]complex128{3}))
	require.NoError(t, noSharing.Eval([]complex128{3}))
	require.Equal(t, withSharing.FunctionValues(nil), noSharing.FunctionValues(nil))
}

func TestCompileDeduplicatesConstants(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	c := expr.Int(5)
	p := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{
		expr.Add(expr.Mul(c, x), c),
	}))
	require.Len(t, p.consts, 1)
}

func TestCompileUndeclaredVariable(t *testing.T) {
	t.Parallel()
	x, z := expr.Var("x"), expr.Var("z")
	sys := mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{expr.Add(x, z)})
	_, err := Compile(sys, nil)
	require.ErrorIs(t, err, ErrUndeclaredVariable)
	require.ErrorContains(t, err, "z")
}

func TestCompileUnsupportedNode(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	bogus := &expr.Node{Kind: expr.Kind(200)}
	sys := mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{bogus})
	_, err := Compile(sys, nil)
	require.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestCompileMalformedNode(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	// A sum whose sign list disagrees with its operand list.
	bad := &expr.Node{Kind: expr.KindSum, Operands: []*expr.Node{x, x}, Signs: []int{1}}
	sys := mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{bad})
	_, err := Compile(sys, nil)
	require.ErrorIs(t, err, ErrMalformedNode)
}

func TestCompileEmptySumAndProduct(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	emptySum := &expr.Node{Kind: expr.KindSum}
	emptyProd := &expr.Node{Kind: expr.KindProduct}
	p := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{emptySum, emptyProd}))

	require.NoError(t, p.Eval([]complex128{7}))
	vals := p.FunctionValues(nil)
	require.Equal(t, complex128(0), vals[0])
	require.Equal(t, complex128(1), vals[1])
}

func TestCompileIntegerPowers(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	p := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{
		expr.PowInt(x, 0),
		expr.PowInt(x, 1),
		expr.PowInt(x, 7),
		expr.PowInt(x, -2),
	}))

	require.NoError(t, p.Eval([]complex128{2}))
	vals := p.FunctionValues(nil)
	require.Equal(t, complex128(1), vals[0])
	require.Equal(t, complex128(2), vals[1])
	require.Equal(t, complex128(128), vals[2])
	require.Equal(t, complex128(0.25), vals[3])
}

func TestCompileLogsStatistics(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	sys := mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{expr.Mul(x, x)})

	logger := zap.NewNop()
	opts := CompileOptions{Logger: logger}
	_, err := Compile(sys, &opts)
	require.NoError(t, err)

	// Nil logger inside options is tolerated.
	_, err = Compile(sys, &CompileOptions{})
	require.NoError(t, err)
}

func TestInstructionDestinationsAvoidInputs(t *testing.T) {
	t.Parallel()
	x, tv := expr.Var("x"), expr.Var("t")
	p := mustCompile(t, mustSystem(t, []*expr.Node{x}, tv, []*expr.Node{
		expr.Add(expr.Mul(x, x), tv),
	}))

	inputEnd := uint32(2) // x and t
	ins := p.instrs
	for i := 0; i < len(ins); {
		op := Opcode(ins[i])
		w := op.width()
		dst := ins[i+w-1]
		require.GreaterOrEqual(t, dst, inputEnd, "instruction at word %d writes an input slot", i)
		require.Less(t, dst, uint32(p.layout.MemLen))
		i += w
	}
}
