package slp

import "errors"

// Compile-time errors. All are fatal: no program is returned.
var (
	// ErrUnsupportedNode marks a graph node kind the compiler does not
	// implement.
	ErrUnsupportedNode = errors.New("slp: unsupported node kind")

	// ErrUndeclaredVariable marks a variable used by an expression but
	// absent from the system's variable list.
	ErrUndeclaredVariable = errors.New("slp: undeclared variable")

	// ErrMalformedNode marks an arity or sign-list mismatch in the graph.
	ErrMalformedNode = errors.New("slp: malformed node")
)

// Evaluation-time errors. They leave no partial results observable: any
// partial writes land in the program's private scratch and are overwritten
// by the next call.
var (
	// ErrShapeMismatch is returned when the input vector length does not
	// equal the number of declared variables.
	ErrShapeMismatch = errors.New("slp: input shape mismatch")

	// ErrNoPathVariable is returned when a time value is supplied to, or a
	// time derivative requested from, a program compiled without a path
	// variable.
	ErrNoPathVariable = errors.New("slp: program has no path variable")

	// ErrTimeRequired is returned when a program compiled with a path
	// variable is evaluated without a time value.
	ErrTimeRequired = errors.New("slp: path variable value required")

	// ErrNumericDomain is returned when an arbitrary-precision operation
	// leaves its domain (division by zero, log of zero, tan at a pole).
	// Machine-precision evaluation yields IEEE specials instead.
	ErrNumericDomain = errors.New("slp: numeric domain error")
)

// Configuration errors.
var (
	// ErrPrecisionInvalid is returned for precisions outside
	// [MinDigits, MaxDigits].
	ErrPrecisionInvalid = errors.New("slp: precision out of range")

	// ErrCorruptImage is returned by Decode for malformed program images.
	ErrCorruptImage = errors.New("slp: corrupt program image")
)
