package slp

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sbl8/straightline/expr"
)

// CompileOptions configures compilation.
type CompileOptions struct {
	// Logger receives per-compile statistics at debug level. Nil means no
	// logging. The evaluator itself never logs.
	Logger *zap.Logger
}

// DefaultCompileOptions provides sensible compilation defaults.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{Logger: zap.NewNop()}
}

// Compile lowers a system into a straight-line program.
//
// Each graph node is visited once: shared subtrees (by node identity) are
// compiled once and both consumers read the same slot. Structural equality
// without identity sharing is not deduplicated. The walk order is
// functions first, then Jacobian entries row by row, then time
// derivatives; n-ary sums and products fold left-to-right in graph
// storage order, so a given program is bit-deterministic across
// evaluations.
func Compile(sys *expr.System, opts *CompileOptions) (*Program, error) {
	o := DefaultCompileOptions()
	if opts != nil {
		o = *opts
		if o.Logger == nil {
			o.Logger = zap.NewNop()
		}
	}

	c := &compiler{
		sys:   sys,
		slots: make(map[*expr.Node]int),
	}
	prog, err := c.compile()
	if err != nil {
		return nil, err
	}

	o.Logger.Debug("compiled straight-line program",
		zap.Int("variables", prog.layout.Num.Variables),
		zap.Int("functions", prog.layout.Num.Functions),
		zap.Bool("path_variable", prog.layout.HasTime),
		zap.Int("stream_words", len(prog.instrs)),
		zap.Int("memory_slots", prog.layout.MemLen),
		zap.Int("constants", len(prog.consts)),
		zap.Int("dedup_hits", c.dedupHits),
	)
	return prog, nil
}

// compiler walks a system's graphs, assigns a memory slot to every node's
// result, and emits instructions for each node's definition. The slots
// registry maps node identity to result slot and is what realizes DAG
// sharing.
type compiler struct {
	sys *expr.System

	slots map[*expr.Node]int
	next  int

	instrs []uint32
	consts []Constant

	// Compiler-owned literal nodes, created on demand for empty sums,
	// zeroth powers, and reciprocals.
	zeroNode *expr.Node
	oneNode  *expr.Node

	dedupHits int
}

func (c *compiler) compile() (*Program, error) {
	vars := c.sys.Variables()
	funcs := c.sys.Functions()

	// Inputs occupy the front of the bank: variables in declared order,
	// then the path variable.
	var layout Layout
	layout.In.Variables = c.next
	for _, v := range vars {
		c.slots[v] = c.next
		c.next++
	}
	layout.HasTime = c.sys.HasPathVariable()
	if layout.HasTime {
		layout.In.Time = c.next
		c.slots[c.sys.PathVariable()] = c.next
		c.next++
	}

	// Walk every root. Instructions land in temporaries; the reserved
	// output regions are filled by Assign copies afterwards, so temps
	// always precede outputs in the bank.
	funcSlots := make([]int, len(funcs))
	for i, f := range funcs {
		s, err := c.walk(f)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		funcSlots[i] = s
	}

	// Derivative graphs are derived only after the function walk
	// succeeded, so malformed graphs fail with the function's error.
	jac := c.sys.Jacobian()
	timeDeriv := c.sys.TimeDeriv()

	jacSlots := make([][]int, len(jac))
	for i, row := range jac {
		jacSlots[i] = make([]int, len(row))
		for j, entry := range row {
			s, err := c.walk(entry)
			if err != nil {
				return nil, fmt.Errorf("jacobian (%d,%d): %w", i, j, err)
			}
			jacSlots[i][j] = s
		}
	}
	tdSlots := make([]int, len(timeDeriv))
	for i, entry := range timeDeriv {
		s, err := c.walk(entry)
		if err != nil {
			return nil, fmt.Errorf("time derivative %d: %w", i, err)
		}
		tdSlots[i] = s
	}

	// Reserve the output regions and copy results in.
	F, V := len(funcs), len(vars)
	layout.Num = NumberOf{Variables: V, Functions: F, Jacobian: F * V}
	layout.Out.Functions = c.alloc(F)
	layout.Out.Jacobian = c.alloc(F * V)
	if layout.HasTime {
		layout.Num.TimeDeriv = F
		layout.Out.TimeDeriv = c.alloc(F)
	}

	for i, s := range funcSlots {
		c.emitUnaryTo(OpAssign, s, layout.Out.Functions+i)
	}
	for i := range jacSlots {
		for j, s := range jacSlots[i] {
			c.emitUnaryTo(OpAssign, s, layout.Out.Jacobian+i+j*F)
		}
	}
	for i, s := range tdSlots {
		c.emitUnaryTo(OpAssign, s, layout.Out.TimeDeriv+i)
	}

	layout.MemLen = c.next
	return newProgram(c.instrs, layout, c.consts), nil
}

// walk compiles one node and returns the slot holding its result.
func (c *compiler) walk(n *expr.Node) (int, error) {
	if slot, ok := c.slots[n]; ok {
		c.dedupHits++
		return slot, nil
	}

	slot, err := c.define(n)
	if err != nil {
		return 0, err
	}
	c.slots[n] = slot
	return slot, nil
}

func (c *compiler) define(n *expr.Node) (int, error) {
	switch n.Kind {
	case expr.KindVariable:
		// Declared variables were pre-registered; reaching here means the
		// expression uses a variable the system does not declare.
		return 0, fmt.Errorf("%w: %q", ErrUndeclaredVariable, n.Name)

	case expr.KindInteger, expr.KindRational, expr.KindFloat:
		return c.number(n), nil

	case expr.KindSum:
		return c.foldNary(n, OpAdd, OpSub)

	case expr.KindProduct:
		return c.foldNary(n, OpMul, OpDiv)

	case expr.KindIntegerPower:
		if len(n.Operands) != 1 {
			return 0, c.badArity(n, 1)
		}
		base, err := c.walk(n.Operands[0])
		if err != nil {
			return 0, err
		}
		return c.intPower(base, n.Exponent), nil

	case expr.KindPower:
		if len(n.Operands) != 2 {
			return 0, c.badArity(n, 2)
		}
		base, err := c.walk(n.Operands[0])
		if err != nil {
			return 0, err
		}
		exp, err := c.walk(n.Operands[1])
		if err != nil {
			return 0, err
		}
		return c.emitBinary(OpPow, base, exp), nil

	case expr.KindNegate, expr.KindExp, expr.KindLog, expr.KindSin,
		expr.KindCos, expr.KindTan, expr.KindAsin, expr.KindAcos, expr.KindAtan:
		if len(n.Operands) != 1 {
			return 0, c.badArity(n, 1)
		}
		arg, err := c.walk(n.Operands[0])
		if err != nil {
			return 0, err
		}
		return c.emitUnary(unaryOpcode(n.Kind), arg), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedNode, n.Kind)
}

// foldNary lowers a signed sum or product into a chain of two-operand
// instructions, each targeting a fresh temporary.
func (c *compiler) foldNary(n *expr.Node, posOp, negOp Opcode) (int, error) {
	if len(n.Operands) != len(n.Signs) {
		return 0, fmt.Errorf("%w: %v with %d operands, %d signs",
			ErrMalformedNode, n.Kind, len(n.Operands), len(n.Signs))
	}

	// Children first, in graph order.
	args := make([]int, len(n.Operands))
	for i, op := range n.Operands {
		s, err := c.walk(op)
		if err != nil {
			return 0, err
		}
		args[i] = s
	}

	if len(args) == 0 {
		// Empty sum is zero; empty product is one.
		if posOp == OpAdd {
			return c.emitUnary(OpAssign, c.zero()), nil
		}
		return c.emitUnary(OpAssign, c.one()), nil
	}

	// Leading term. A negative sign means 0-x for sums, 1/x for products.
	acc := args[0]
	switch {
	case n.Signs[0] > 0 && len(args) == 1:
		acc = c.emitUnary(OpAssign, acc)
	case n.Signs[0] < 0 && posOp == OpAdd:
		acc = c.emitUnary(OpNeg, acc)
	case n.Signs[0] < 0:
		acc = c.emitBinary(OpDiv, c.one(), acc)
	}

	for i := 1; i < len(args); i++ {
		op := posOp
		if n.Signs[i] < 0 {
			op = negOp
		}
		acc = c.emitBinary(op, acc, args[i])
	}
	return acc, nil
}

// intPower lowers base^n by exponentiation by squaring. Negative
// exponents go through a reciprocal; n of 0 or 1 degenerates to a copy.
func (c *compiler) intPower(base, n int) int {
	switch n {
	case 0:
		return c.emitUnary(OpAssign, c.one())
	case 1:
		return c.emitUnary(OpAssign, base)
	}

	e := n
	if e < 0 {
		e = -e
	}
	acc := -1
	cur := base
	for e > 0 {
		if e&1 == 1 {
			if acc < 0 {
				acc = cur
			} else {
				acc = c.emitBinary(OpMul, acc, cur)
			}
		}
		e >>= 1
		if e > 0 {
			cur = c.emitBinary(OpMul, cur, cur)
		}
	}
	if n < 0 {
		acc = c.emitBinary(OpDiv, c.one(), acc)
	}
	return acc
}

// number allocates a slot for a numeric leaf and registers it in the
// constant table.
func (c *compiler) number(n *expr.Node) int {
	slot := c.alloc(1)
	c.consts = append(c.consts, Constant{Node: n, Slot: slot})
	return slot
}

// zero returns the slot of the constant 0, materializing it on first use.
func (c *compiler) zero() int {
	if c.zeroNode == nil {
		c.zeroNode = expr.Int(0)
		c.slots[c.zeroNode] = c.number(c.zeroNode)
	}
	return c.slots[c.zeroNode]
}

// one returns the slot of the constant 1, materializing it on first use.
func (c *compiler) one() int {
	if c.oneNode == nil {
		c.oneNode = expr.Int(1)
		c.slots[c.oneNode] = c.number(c.oneNode)
	}
	return c.slots[c.oneNode]
}

func (c *compiler) alloc(n int) int {
	s := c.next
	c.next += n
	return s
}

func (c *compiler) emitBinary(op Opcode, a, b int) int {
	dst := c.alloc(1)
	c.instrs = append(c.instrs, uint32(op), uint32(a), uint32(b), uint32(dst))
	return dst
}

func (c *compiler) emitUnary(op Opcode, src int) int {
	dst := c.alloc(1)
	c.emitUnaryTo(op, src, dst)
	return dst
}

func (c *compiler) emitUnaryTo(op Opcode, src, dst int) {
	c.instrs = append(c.instrs, uint32(op), uint32(src), uint32(dst))
}

func (c *compiler) badArity(n *expr.Node, want int) error {
	return fmt.Errorf("%w: %v with %d operands, want %d",
		ErrMalformedNode, n.Kind, len(n.Operands), want)
}

// unaryOpcode maps unary node kinds to their opcodes.
func unaryOpcode(k expr.Kind) Opcode {
	switch k {
	case expr.KindNegate:
		return OpNeg
	case expr.KindExp:
		return OpExp
	case expr.KindLog:
		return OpLog
	case expr.KindSin:
		return OpSin
	case expr.KindCos:
		return OpCos
	case expr.KindTan:
		return OpTan
	case expr.KindAsin:
		return OpAsin
	case expr.KindAcos:
		return OpAcos
	case expr.KindAtan:
		return OpAtan
	}
	return opInvalid
}
