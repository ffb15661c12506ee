// Package straightline compiles systems of multivariate analytic functions
// into straight-line programs and evaluates them repeatedly at numeric
// arguments.
//
// A straight-line program (SLP) is a branch-free sequence of arithmetic
// instructions over a flat memory bank. The target workload is numerical
// homotopy continuation: a compiled program is evaluated millions of times
// per path with different variable and time values, so evaluation is tight,
// branch-predictable, and allocation-free.
//
// # Architecture Overview
//
// The module consists of three libraries and two command-line tools:
//
//   - expr: expression graphs (shared DAGs of algebraic nodes), systems,
//     symbolic differentiation, and a small textual input form
//   - slp: the compiler that lowers a system into instructions plus a
//     memory layout, and the evaluator that interprets the instruction
//     stream over machine-precision and arbitrary-precision complex banks
//   - mpc: an arbitrary-precision complex scalar with principal-branch
//     transcendentals over math/big floats
//
// # Basic Usage
//
//	x := expr.Var("x")
//	sys, _ := expr.NewSystem([]*expr.Node{x}, nil,
//	    []*expr.Node{expr.Add(expr.Mul(x, x), expr.Int(1))})
//
//	prog, err := slp.Compile(sys, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog.Eval([]complex128{2})
//	vals := prog.FunctionValues(nil) // [5+0i]
//	jac := prog.Jacobian(nil)        // [4+0i]
//
// # Package Structure
//
//   - expr: graph representation and system definition
//   - slp: compilation, evaluation, serialization, caching, pooling
//   - mpc: arbitrary-precision complex arithmetic
//   - cmd: command-line tools (slpc, slpbench)
package straightline
