package slp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/straightline/expr"
)

func TestPoolEvalBatch(t *testing.T) {
	t.Parallel()
	x, y := expr.Var("x"), expr.Var("y")
	master := mustCompile(t, mustSystem(t, []*expr.Node{x, y}, nil, []*expr.Node{
		expr.Add(expr.Mul(x, x), y),
		expr.Mul(x, y),
	}))

	const n = 64
	points := make([][]complex128, n)
	for i := range points {
		points[i] = []complex128{complex(float64(i), 1), complex(2, float64(-i))}
	}

	pool := NewPool(master, 4)
	got, err := pool.EvalBatch(context.Background(), points, nil)
	require.NoError(t, err)
	require.Len(t, got, n)

	// Sequential reference on the master program.
	for i, pt := range points {
		require.NoError(t, master.Eval(pt))
		require.Equal(t, master.FunctionValues(nil), got[i], "point %d", i)
	}
}

func TestPoolEvalBatchWithTime(t *testing.T) {
	t.Parallel()
	x, tv := expr.Var("x"), expr.Var("t")
	master := mustCompile(t, mustSystem(t, []*expr.Node{x}, tv, []*expr.Node{
		expr.Sub(x, tv),
	}))

	points := [][]complex128{{3}, {5}, {7}}
	times := []complex128{1, 2, 3}

	pool := NewPool(master, 2)
	got, err := pool.EvalBatch(context.Background(), points, times)
	require.NoError(t, err)
	require.Equal(t, [][]complex128{{2}, {3}, {4}}, got)

	// Shape mismatch between points and times.
	_, err = pool.EvalBatch(context.Background(), points, times[:2])
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPoolPropagatesEvalErrors(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	master := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{x}))

	pool := NewPool(master, 2)
	_, err := pool.EvalBatch(context.Background(), [][]complex128{{1}, {1, 2}}, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPoolGetPut(t *testing.T) {
	t.Parallel()
	x := expr.Var("x")
	master := mustCompile(t, mustSystem(t, []*expr.Node{x}, nil, []*expr.Node{
		expr.Mul(x, x),
	}))

	pool := NewPool(master, 2)
	a, b := pool.Get(), pool.Get()
	require.NotSame(t, a, b)

	require.NoError(t, a.Eval([]complex128{3}))
	require.NoError(t, b.Eval([]complex128{4}))
	require.Equal(t, []complex128{9}, a.FunctionValues(nil))
	require.Equal(t, []complex128{16}, b.FunctionValues(nil))

	pool.Put(a)
	pool.Put(b)
}
