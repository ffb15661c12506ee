package slp

import (
	"fmt"
	"strings"
)

// String renders a human-readable listing of the program: the memory
// layout followed by the decoded instruction stream, with slots annotated
// by their role. The format is for debugging only and not stable.
func (p *Program) String() string {
	var b strings.Builder

	l := &p.layout
	fmt.Fprintf(&b, "straight-line program: %d variables, %d functions",
		l.Num.Variables, l.Num.Functions)
	if l.HasTime {
		b.WriteString(", path variable")
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "memory: %d slots (variables @%d", l.MemLen, l.In.Variables)
	if l.HasTime {
		fmt.Fprintf(&b, ", time @%d", l.In.Time)
	}
	fmt.Fprintf(&b, ", functions @%d, jacobian @%d", l.Out.Functions, l.Out.Jacobian)
	if l.HasTime {
		fmt.Fprintf(&b, ", time deriv @%d", l.Out.TimeDeriv)
	}
	fmt.Fprintf(&b, "), %d constants\n", len(p.consts))

	names := p.slotNames()
	ins := p.instrs
	for i := 0; i < len(ins); {
		op := Opcode(ins[i])
		if op.IsBinary() {
			fmt.Fprintf(&b, "%5d: %-6s %-8s %-8s -> %s\n",
				i, op, names(ins[i+1]), names(ins[i+2]), names(ins[i+3]))
			i += 4
		} else {
			fmt.Fprintf(&b, "%5d: %-6s %-8s %8s -> %s\n",
				i, op, names(ins[i+1]), "", names(ins[i+2]))
			i += 3
		}
	}
	return b.String()
}

// slotNames returns a formatter that annotates slots by region:
// x<i> variables, t time, c<i> constants, f<i> function outputs,
// J(i,j) Jacobian entries, d<i> time derivatives, s<i> temporaries.
func (p *Program) slotNames() func(uint32) string {
	l := &p.layout
	constIdx := make(map[int]int, len(p.consts))
	for i, c := range p.consts {
		constIdx[c.Slot] = i
	}
	return func(u uint32) string {
		s := int(u)
		switch {
		case s < l.Num.Variables:
			return fmt.Sprintf("x%d", s-l.In.Variables)
		case l.HasTime && s == l.In.Time:
			return "t"
		case s >= l.Out.Functions && s < l.Out.Functions+l.Num.Functions:
			return fmt.Sprintf("f%d", s-l.Out.Functions)
		case s >= l.Out.Jacobian && s < l.Out.Jacobian+l.Num.Jacobian:
			k := s - l.Out.Jacobian
			return fmt.Sprintf("J(%d,%d)", k%l.Num.Functions, k/l.Num.Functions)
		case l.HasTime && s >= l.Out.TimeDeriv && s < l.Out.TimeDeriv+l.Num.TimeDeriv:
			return fmt.Sprintf("d%d", s-l.Out.TimeDeriv)
		}
		if i, ok := constIdx[s]; ok {
			return fmt.Sprintf("c%d", i)
		}
		return fmt.Sprintf("s%d", s)
	}
}
