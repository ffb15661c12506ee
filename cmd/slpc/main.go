// Command slpc compiles a textual system description into a straight-line
// program, prints its listing, and optionally evaluates it at a point or
// writes the compiled image to disk.
//
// Usage:
//
//	slpc [options] <system.txt>
//
// The input format:
//
//	# comment
//	var x, y
//	pathvar t
//	f1 = x*y + sin(x) - 3/2
//	f2 = x^2 - t
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sbl8/straightline/expr"
	"github.com/sbl8/straightline/slp"
)

func main() {
	var (
		evalAt  = flag.String("eval", "", "Evaluate at comma-separated complex values, e.g. \"1+2i,3\"")
		timeVal = flag.String("time", "", "Path-variable value for evaluation")
		out     = flag.String("o", "", "Write the compiled program image to this file")
		dump    = flag.Bool("dump", true, "Print the program listing")
		verbose = flag.Bool("verbose", false, "Log compilation statistics")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("slpc - straight-line program compiler v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <system.txt>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("read source: %v", err)
	}
	sys, err := expr.ParseSystem(string(src))
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	opts := slp.DefaultCompileOptions()
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		defer logger.Sync()
		opts.Logger = logger
	}

	prog, err := slp.Compile(sys, &opts)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	if *dump {
		fmt.Print(prog.String())
	}

	if *evalAt != "" {
		if err := evaluate(prog, *evalAt, *timeVal); err != nil {
			log.Fatalf("eval: %v", err)
		}
	}

	if *out != "" {
		image, err := slp.Encode(prog)
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		if err := os.WriteFile(*out, image, 0o644); err != nil {
			log.Fatalf("write image: %v", err)
		}
		fmt.Printf("wrote %d-byte program image to %s\n", len(image), *out)
	}
}

func evaluate(prog *slp.Program, evalAt, timeVal string) error {
	vars, err := parsePoint(evalAt)
	if err != nil {
		return err
	}

	if prog.HasPathVariable() {
		if timeVal == "" {
			return fmt.Errorf("system has a path variable; supply -time")
		}
		t, err := strconv.ParseComplex(strings.TrimSpace(timeVal), 128)
		if err != nil {
			return fmt.Errorf("bad -time value: %v", err)
		}
		if err := prog.EvalAt(vars, t); err != nil {
			return err
		}
	} else {
		if timeVal != "" {
			return fmt.Errorf("system has no path variable; drop -time")
		}
		if err := prog.Eval(vars); err != nil {
			return err
		}
	}

	fmt.Printf("functions: %v\n", prog.FunctionValues(nil))
	F, V := prog.NumFunctions(), prog.NumVariables()
	for i := 0; i < F; i++ {
		row := make([]complex128, V)
		for j := 0; j < V; j++ {
			row[j] = prog.JacobianAt(i, j)
		}
		fmt.Printf("jacobian[%d]: %v\n", i, row)
	}
	if prog.HasPathVariable() {
		td, err := prog.TimeDeriv(nil)
		if err != nil {
			return err
		}
		fmt.Printf("time deriv: %v\n", td)
	}
	return nil
}

func parsePoint(s string) ([]complex128, error) {
	parts := strings.Split(s, ",")
	vars := make([]complex128, 0, len(parts))
	for _, part := range parts {
		c, err := strconv.ParseComplex(strings.TrimSpace(part), 128)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %v", part, err)
		}
		vars = append(vars, c)
	}
	return vars, nil
}
