package slp

import (
	"fmt"
	"math/cmplx"
)

// run interprets the instruction stream over the machine-precision bank.
//
// This is the hot path: no bounds checks beyond the slice's own, no
// branching beyond the opcode dispatch, and no allocation. Bounds
// correctness is a compile-time invariant of the emitter (see Validate).
// Division by zero and domain violations produce IEEE specials.
func (p *Program) run() {
	mem := p.mem
	ins := p.instrs
	for i := 0; i < len(ins); {
		switch Opcode(ins[i]) {
		case OpAdd:
			mem[ins[i+3]] = mem[ins[i+1]] + mem[ins[i+2]]
			i += 4
		case OpSub:
			mem[ins[i+3]] = mem[ins[i+1]] - mem[ins[i+2]]
			i += 4
		case OpMul:
			mem[ins[i+3]] = mem[ins[i+1]] * mem[ins[i+2]]
			i += 4
		case OpDiv:
			mem[ins[i+3]] = mem[ins[i+1]] / mem[ins[i+2]]
			i += 4
		case OpPow:
			mem[ins[i+3]] = cmplx.Pow(mem[ins[i+1]], mem[ins[i+2]])
			i += 4
		case OpAssign:
			mem[ins[i+2]] = mem[ins[i+1]]
			i += 3
		case OpNeg:
			mem[ins[i+2]] = -mem[ins[i+1]]
			i += 3
		case OpExp:
			mem[ins[i+2]] = cmplx.Exp(mem[ins[i+1]])
			i += 3
		case OpLog:
			mem[ins[i+2]] = cmplx.Log(mem[ins[i+1]])
			i += 3
		case OpSin:
			mem[ins[i+2]] = cmplx.Sin(mem[ins[i+1]])
			i += 3
		case OpCos:
			mem[ins[i+2]] = cmplx.Cos(mem[ins[i+1]])
			i += 3
		case OpTan:
			mem[ins[i+2]] = cmplx.Tan(mem[ins[i+1]])
			i += 3
		case OpAsin:
			mem[ins[i+2]] = cmplx.Asin(mem[ins[i+1]])
			i += 3
		case OpAcos:
			mem[ins[i+2]] = cmplx.Acos(mem[ins[i+1]])
			i += 3
		case OpAtan:
			mem[ins[i+2]] = cmplx.Atan(mem[ins[i+1]])
			i += 3
		}
	}
}

// runMP interprets the instruction stream over the arbitrary-precision
// bank. Operations that leave their domain abort the evaluation; partial
// writes stay in the private scratch and are overwritten by the next
// call. Callers hold p.mu.
func (p *Program) runMP() error {
	mem := p.memMP
	ins := p.instrs
	for i := 0; i < len(ins); {
		var err error
		switch Opcode(ins[i]) {
		case OpAdd:
			mem[ins[i+3]].Add(&mem[ins[i+1]], &mem[ins[i+2]])
			i += 4
		case OpSub:
			mem[ins[i+3]].Sub(&mem[ins[i+1]], &mem[ins[i+2]])
			i += 4
		case OpMul:
			mem[ins[i+3]].Mul(&mem[ins[i+1]], &mem[ins[i+2]])
			i += 4
		case OpDiv:
			err = mem[ins[i+3]].Div(&mem[ins[i+1]], &mem[ins[i+2]])
			i += 4
		case OpPow:
			err = mem[ins[i+3]].Pow(&mem[ins[i+1]], &mem[ins[i+2]])
			i += 4
		case OpAssign:
			mem[ins[i+2]].Set(&mem[ins[i+1]])
			i += 3
		case OpNeg:
			mem[ins[i+2]].Neg(&mem[ins[i+1]])
			i += 3
		case OpExp:
			mem[ins[i+2]].Exp(&mem[ins[i+1]])
			i += 3
		case OpLog:
			err = mem[ins[i+2]].Log(&mem[ins[i+1]])
			i += 3
		case OpSin:
			mem[ins[i+2]].Sin(&mem[ins[i+1]])
			i += 3
		case OpCos:
			mem[ins[i+2]].Cos(&mem[ins[i+1]])
			i += 3
		case OpTan:
			err = mem[ins[i+2]].Tan(&mem[ins[i+1]])
			i += 3
		case OpAsin:
			err = mem[ins[i+2]].Asin(&mem[ins[i+1]])
			i += 3
		case OpAcos:
			err = mem[ins[i+2]].Acos(&mem[ins[i+1]])
			i += 3
		case OpAtan:
			err = mem[ins[i+2]].Atan(&mem[ins[i+1]])
			i += 3
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNumericDomain, err)
		}
	}
	return nil
}
