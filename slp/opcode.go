// Package slp compiles expression-graph systems into straight-line
// programs and evaluates them over flat memory banks.
//
// A compiled Program is split into an immutable description (instruction
// stream, memory layout, constant table) and mutable scratch (one memory
// bank per scalar type). The description may be shared freely; a bank is
// owned by exactly one evaluation at a time. Clone gives each worker its
// own scratch over the shared description.
//
// Two scalar instantiations are provided: machine-precision complex128 and
// arbitrary-precision complex (package mpc). The instruction stream is a
// flat sequence of uint32 words; a binary instruction occupies four
// positions (op, src1, src2, dst), a unary three (op, src, dst), and the
// decoder advances by arity.
package slp

import "fmt"

// Opcode identifies one operation of the instruction set. Opcodes are
// classified statically as binary or unary; the classification drives the
// decoder's stride.
type Opcode uint32

const (
	opInvalid Opcode = iota

	// Binary operations.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow

	// Unary operations. OpAssign is a copy.
	OpAssign
	OpNeg
	OpExp
	OpLog
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan

	opCount
)

var opcodeNames = [...]string{
	opInvalid: "invalid",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpPow:     "pow",
	OpAssign:  "assign",
	OpNeg:     "neg",
	OpExp:     "exp",
	OpLog:     "log",
	OpSin:     "sin",
	OpCos:     "cos",
	OpTan:     "tan",
	OpAsin:    "asin",
	OpAcos:    "acos",
	OpAtan:    "atan",
}

// IsUnary reports whether op takes a single source operand. Any future
// opcode must be added to exactly one arity class.
func (op Opcode) IsUnary() bool { return op >= OpAssign && op < opCount }

// IsBinary reports whether op takes two source operands.
func (op Opcode) IsBinary() bool { return op >= OpAdd && op <= OpPow }

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool { return op > opInvalid && op < opCount }

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", uint32(op))
}

// width returns the number of stream positions the instruction occupies.
func (op Opcode) width() int {
	if op.IsBinary() {
		return 4
	}
	return 3
}
