// Command slpbench measures straight-line program evaluation throughput:
// compile once, evaluate many times, report latency per call.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/sbl8/straightline/expr"
	"github.com/sbl8/straightline/mpc"
	"github.com/sbl8/straightline/slp"
)

// defaultSystem mixes add, sub, mul and div with transcendentals; its
// integer power lowers to multiplications, so no pow instruction is emitted.
const defaultSystem = `
var x, y
pathvar t
f1 = x^3*y + sin(x*y) - 3/2*t
f2 = x*y - t*(x + y) + exp(x)
`

func main() {
	var (
		srcPath = flag.String("system", "", "System file (default: a built-in two-variable system)")
		iter    = flag.Int("iter", 1_000_000, "Number of evaluations")
		digits  = flag.Uint("digits", 0, "Also benchmark arbitrary precision at this many digits")
		seed    = flag.Int64("seed", 1, "Input generator seed")
	)
	flag.Parse()

	src := defaultSystem
	if *srcPath != "" {
		data, err := os.ReadFile(*srcPath)
		if err != nil {
			log.Fatalf("read system: %v", err)
		}
		src = string(data)
	}

	sys, err := expr.ParseSystem(src)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	prog, err := slp.Compile(sys, nil)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	fmt.Printf("slpbench: %d variables, %d functions, path variable: %t\n",
		prog.NumVariables(), prog.NumFunctions(), prog.HasPathVariable())
	fmt.Printf("go %s on %s/%s, %d cpus\n\n",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	rng := rand.New(rand.NewSource(*seed))
	vars := make([]complex128, prog.NumVariables())
	for i := range vars {
		vars[i] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
	}
	t := complex(rng.Float64(), 0)

	runMachine(prog, vars, t, *iter)
	if *digits > 0 {
		runBig(prog, vars, t, *iter/1000+1, *digits)
	}
}

func runMachine(prog *slp.Program, vars []complex128, t complex128, iter int) {
	start := time.Now()
	for i := 0; i < iter; i++ {
		var err error
		if prog.HasPathVariable() {
			err = prog.EvalAt(vars, t)
		} else {
			err = prog.Eval(vars)
		}
		if err != nil {
			log.Fatalf("eval: %v", err)
		}
	}
	report("complex128", iter, time.Since(start))
}

func runBig(prog *slp.Program, vars []complex128, t complex128, iter int, digits uint) {
	if err := prog.SetPrecision(digits); err != nil {
		log.Fatalf("set precision: %v", err)
	}
	bits := mpc.BitsForDigits(digits)
	bigVars := make([]*mpc.Complex, len(vars))
	for i, v := range vars {
		bigVars[i] = mpc.New(bits).SetComplex128(v)
	}
	bigT := mpc.New(bits).SetComplex128(t)

	start := time.Now()
	for i := 0; i < iter; i++ {
		var err error
		if prog.HasPathVariable() {
			err = prog.EvalAtMP(bigVars, bigT)
		} else {
			err = prog.EvalMP(bigVars)
		}
		if err != nil {
			log.Fatalf("eval mp: %v", err)
		}
	}
	report(fmt.Sprintf("%d digits", digits), iter, time.Since(start))
}

func report(label string, iter int, elapsed time.Duration) {
	perCall := elapsed / time.Duration(iter)
	fmt.Printf("%-12s %10d evals in %12v  (%v/eval, %.0f evals/sec)\n",
		label, iter, elapsed, perCall, float64(iter)/elapsed.Seconds())
}
