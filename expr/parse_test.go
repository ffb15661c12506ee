package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSystem(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem(`
# a homotopy with one path variable
var x, y
pathvar t
f1 = x*y + sin(x) - 3/2
f2 = x^2 - t
`)
	require.NoError(t, err)
	require.Equal(t, 2, sys.NumVariables())
	require.Equal(t, 2, sys.NumFunctions())
	require.True(t, sys.HasPathVariable())
	require.Equal(t, "x", sys.Variables()[0].Name)
	require.Equal(t, "t", sys.PathVariable().Name)
}

func TestParseSharesVariableNodes(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem("var x\nf1 = x + 1\nf2 = x - 1")
	require.NoError(t, err)

	x := sys.Variables()[0]
	f1, f2 := sys.Functions()[0], sys.Functions()[1]
	require.Same(t, x, f1.Operands[0])
	require.Same(t, x, f2.Operands[0])
	// The literal 1 is shared between both functions.
	require.Same(t, f1.Operands[1], f2.Operands[1])
}

func TestParsePrecedence(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem("var x, y\nx + y*x^2")
	require.NoError(t, err)

	f := sys.Functions()[0]
	require.Equal(t, KindSum, f.Kind)
	require.Equal(t, KindVariable, f.Operands[0].Kind)
	prod := f.Operands[1]
	require.Equal(t, KindProduct, prod.Kind)
	require.Equal(t, KindIntegerPower, prod.Operands[1].Kind)
	require.Equal(t, 2, prod.Operands[1].Exponent)
}

func TestParseNegativeExponent(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem("var x\nx^-2")
	require.NoError(t, err)
	f := sys.Functions()[0]
	require.Equal(t, KindIntegerPower, f.Kind)
	require.Equal(t, -2, f.Exponent)
}

func TestParseDecimalsAreExactRationals(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem("var x\nx + 0.1")
	require.NoError(t, err)
	lit := sys.Functions()[0].Operands[1]
	require.Equal(t, KindRational, lit.Kind)
	require.Equal(t, "1/10", lit.Rat.RatString())
}

func TestParseImaginaryUnit(t *testing.T) {
	t.Parallel()
	sys, err := ParseSystem("var x\nx + 2*i")
	require.NoError(t, err)
	prod := sys.Functions()[0].Operands[1]
	require.Equal(t, KindProduct, prod.Kind)
	unit := prod.Operands[1]
	require.Equal(t, KindFloat, unit.Kind)
	require.NotNil(t, unit.Im)
}

func TestParseFunctions(t *testing.T) {
	t.Parallel()
	for _, fn := range []string{"exp", "log", "sin", "cos", "tan", "asin", "acos", "atan"} {
		sys, err := ParseSystem("var x\n" + fn + "(x)")
		require.NoError(t, err, fn)
		require.Len(t, sys.Functions()[0].Operands, 1)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
	}{
		{"undeclared variable", "var x\nx + z"},
		{"double declaration", "var x\nvar x\nx"},
		{"two path variables", "var x\npathvar s, t\nx"},
		{"missing paren", "var x\nsin(x"},
		{"trailing operator", "var x\nx +"},
		{"unknown function", "var x\nsinh(x)"},
		{"bad token", "var x\nx $ 2"},
		{"no functions", "var x"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSystem(tt.src)
			require.Error(t, err)
		})
	}
}
