package slp

import (
	"fmt"
	"sync"

	"github.com/sbl8/straightline/mpc"
)

// Precision bounds, in decimal digits, for the arbitrary-precision bank.
const (
	MinDigits     = 16 // roughly machine double
	MaxDigits     = 8192
	DefaultDigits = 50
)

// Program is a compiled straight-line program.
//
// The instruction stream, memory layout, and constant table are immutable
// after compilation and safe to share. The memory banks are scratch: one
// evaluation holds exclusive write access to a bank for the duration of
// its call, so a single Program must not be evaluated concurrently — use
// Clone (or a Pool) to give each worker its own scratch.
//
// The only other mutation is SetPrecision, which re-projects the constant
// table into the arbitrary-precision bank; it is serialized against
// arbitrary-precision evaluation by an internal mutex.
type Program struct {
	instrs []uint32
	layout Layout
	consts []Constant

	// Machine-precision bank. Sized at compile time, never grows.
	mem []complex128

	// Arbitrary-precision bank, allocated on first use.
	mu    sync.Mutex
	prec  uint // decimal digits; 0 until the bank exists
	memMP []mpc.Complex
}

func newProgram(instrs []uint32, layout Layout, consts []Constant) *Program {
	p := &Program{
		instrs: instrs,
		layout: layout,
		consts: consts,
		mem:    make([]complex128, layout.MemLen),
	}
	for _, c := range p.consts {
		p.mem[c.Slot] = c.complex128()
	}
	return p
}

// NumFunctions returns the number of functions in the compiled system.
func (p *Program) NumFunctions() int { return p.layout.Num.Functions }

// NumVariables returns the number of declared variables.
func (p *Program) NumVariables() int { return p.layout.Num.Variables }

// HasPathVariable reports whether the program was compiled with a path
// variable.
func (p *Program) HasPathVariable() bool { return p.layout.HasTime }

// Layout returns a copy of the program's memory layout.
func (p *Program) Layout() Layout { return p.layout }

// Eval evaluates the program at machine precision. The program must have
// been compiled without a path variable; use EvalAt otherwise.
func (p *Program) Eval(vars []complex128) error {
	if p.layout.HasTime {
		return ErrTimeRequired
	}
	if err := p.copyVariableValues(vars); err != nil {
		return err
	}
	p.run()
	return nil
}

// EvalAt evaluates the program at machine precision with the given path
// variable value.
func (p *Program) EvalAt(vars []complex128, t complex128) error {
	if !p.layout.HasTime {
		return ErrNoPathVariable
	}
	if err := p.copyVariableValues(vars); err != nil {
		return err
	}
	p.mem[p.layout.In.Time] = t
	p.run()
	return nil
}

func (p *Program) copyVariableValues(vars []complex128) error {
	if len(vars) != p.layout.Num.Variables {
		return fmt.Errorf("%w: got %d variable values, want %d",
			ErrShapeMismatch, len(vars), p.layout.Num.Variables)
	}
	copy(p.mem[p.layout.In.Variables:], vars)
	return nil
}

// FunctionValues copies the function values of the last machine-precision
// evaluation into dst, which is grown as needed and returned.
func (p *Program) FunctionValues(dst []complex128) []complex128 {
	dst = resizeComplex(dst, p.layout.Num.Functions)
	copy(dst, p.mem[p.layout.Out.Functions:])
	return dst
}

// Jacobian copies the F*V Jacobian block of the last machine-precision
// evaluation into dst, which is grown as needed and returned. Entry (i,j)
// holding d f_i / d x_j lives at index i + j*F.
func (p *Program) Jacobian(dst []complex128) []complex128 {
	dst = resizeComplex(dst, p.layout.Num.Jacobian)
	copy(dst, p.mem[p.layout.Out.Jacobian:])
	return dst
}

// JacobianAt returns d f_i / d x_j from the last machine-precision
// evaluation.
func (p *Program) JacobianAt(i, j int) complex128 {
	return p.mem[p.layout.JacobianSlot(i, j)]
}

// TimeDeriv copies the time-derivative vector of the last
// machine-precision evaluation into dst, which is grown as needed and
// returned. It errors when the program has no path variable.
func (p *Program) TimeDeriv(dst []complex128) ([]complex128, error) {
	if !p.layout.HasTime {
		return nil, ErrNoPathVariable
	}
	dst = resizeComplex(dst, p.layout.Num.TimeDeriv)
	copy(dst, p.mem[p.layout.Out.TimeDeriv:])
	return dst, nil
}

// EvalMP evaluates the program at the current arbitrary precision
// (DefaultDigits if SetPrecision was never called). The program must have
// been compiled without a path variable; use EvalAtMP otherwise.
func (p *Program) EvalMP(vars []*mpc.Complex) error {
	if p.layout.HasTime {
		return ErrTimeRequired
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stageMP(vars, nil); err != nil {
		return err
	}
	return p.runMP()
}

// EvalAtMP evaluates the program at the current arbitrary precision with
// the given path variable value.
func (p *Program) EvalAtMP(vars []*mpc.Complex, t *mpc.Complex) error {
	if !p.layout.HasTime {
		return ErrNoPathVariable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stageMPAndRun(vars, t)
}

func (p *Program) stageMPAndRun(vars []*mpc.Complex, t *mpc.Complex) error {
	if err := p.stageMP(vars, t); err != nil {
		return err
	}
	return p.runMP()
}

// stageMP writes inputs into the arbitrary-precision bank, initializing
// the bank at DefaultDigits on first use. Callers hold p.mu.
func (p *Program) stageMP(vars []*mpc.Complex, t *mpc.Complex) error {
	if len(vars) != p.layout.Num.Variables {
		return fmt.Errorf("%w: got %d variable values, want %d",
			ErrShapeMismatch, len(vars), p.layout.Num.Variables)
	}
	if p.prec == 0 {
		if err := p.setPrecisionLocked(DefaultDigits); err != nil {
			return err
		}
	}
	base := p.layout.In.Variables
	for i, v := range vars {
		p.memMP[base+i].Set(v)
	}
	if t != nil {
		p.memMP[p.layout.In.Time].Set(t)
	}
	return nil
}

// FunctionValuesMP copies the function values of the last
// arbitrary-precision evaluation into dst, growing it (and allocating
// entries) as needed.
func (p *Program) FunctionValuesMP(dst []*mpc.Complex) []*mpc.Complex {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyOutMP(dst, p.layout.Out.Functions, p.layout.Num.Functions)
}

// JacobianMP copies the F*V Jacobian block of the last
// arbitrary-precision evaluation into dst; entry (i,j) is at i + j*F.
func (p *Program) JacobianMP(dst []*mpc.Complex) []*mpc.Complex {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyOutMP(dst, p.layout.Out.Jacobian, p.layout.Num.Jacobian)
}

// TimeDerivMP copies the time-derivative vector of the last
// arbitrary-precision evaluation into dst. It errors when the program has
// no path variable.
func (p *Program) TimeDerivMP(dst []*mpc.Complex) ([]*mpc.Complex, error) {
	if !p.layout.HasTime {
		return nil, ErrNoPathVariable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyOutMP(dst, p.layout.Out.TimeDeriv, p.layout.Num.TimeDeriv), nil
}

func (p *Program) copyOutMP(dst []*mpc.Complex, off, n int) []*mpc.Complex {
	if p.memMP == nil {
		p.setPrecisionLocked(DefaultDigits)
	}
	if cap(dst) < n {
		grown := make([]*mpc.Complex, n)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:n]
	bits := digitsToBits(p.precLocked())
	for i := 0; i < n; i++ {
		if dst[i] == nil {
			dst[i] = mpc.New(bits)
		}
		dst[i].Set(&p.memMP[off+i])
	}
	return dst
}

func (p *Program) precLocked() uint {
	if p.prec == 0 {
		return DefaultDigits
	}
	return p.prec
}

// Precision returns the working precision of the arbitrary-precision bank
// in decimal digits.
func (p *Program) Precision() uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.precLocked()
}

// SetPrecision re-projects every constant into the arbitrary-precision
// bank at the requested number of decimal digits. The machine bank is
// unaffected. The operation touches only existing slots.
func (p *Program) SetPrecision(digits uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setPrecisionLocked(digits)
}

func (p *Program) setPrecisionLocked(digits uint) error {
	if digits < MinDigits || digits > MaxDigits {
		return fmt.Errorf("%w: %d digits (supported %d..%d)",
			ErrPrecisionInvalid, digits, MinDigits, MaxDigits)
	}
	bits := digitsToBits(digits)
	if p.memMP == nil {
		p.memMP = make([]mpc.Complex, p.layout.MemLen)
	}
	for i := range p.memMP {
		p.memMP[i].SetPrec(bits)
	}
	for _, c := range p.consts {
		c.project(&p.memMP[c.Slot])
	}
	p.prec = digits
	return nil
}

// Clone returns a program sharing this program's immutable description
// with fresh scratch banks, for use by another goroutine. Clone must not
// race with an evaluation on p.
func (p *Program) Clone() *Program {
	q := newProgram(p.instrs, p.layout, p.consts)
	p.mu.Lock()
	prec := p.prec
	p.mu.Unlock()
	if prec != 0 {
		q.setPrecisionLocked(prec)
	}
	return q
}

// Validate checks the structural invariants of the instruction stream:
// every instruction decodes, every operand slot is within the bank, and
// no destination lands in the input region. Compiled programs satisfy it
// by construction; Decode uses it to reject corrupt images.
func (p *Program) Validate() error {
	limit := uint32(p.layout.MemLen)
	inputs := uint32(p.layout.inputEnd())
	ins := p.instrs
	for i := 0; i < len(ins); {
		op := Opcode(ins[i])
		if !op.Valid() {
			return fmt.Errorf("%w: bad opcode %d at word %d", ErrCorruptImage, ins[i], i)
		}
		w := op.width()
		if i+w > len(ins) {
			return fmt.Errorf("%w: truncated instruction at word %d", ErrCorruptImage, i)
		}
		for _, src := range ins[i+1 : i+w-1] {
			if src >= limit {
				return fmt.Errorf("%w: source slot %d out of range at word %d", ErrCorruptImage, src, i)
			}
		}
		dst := ins[i+w-1]
		if dst >= limit {
			return fmt.Errorf("%w: destination slot %d out of range at word %d", ErrCorruptImage, dst, i)
		}
		if dst < inputs {
			return fmt.Errorf("%w: destination slot %d overwrites an input at word %d", ErrCorruptImage, dst, i)
		}
		i += w
	}
	return nil
}

// digitsToBits converts decimal digits to big.Float precision bits.
func digitsToBits(digits uint) uint {
	return mpc.BitsForDigits(digits)
}

func resizeComplex(dst []complex128, n int) []complex128 {
	if cap(dst) < n {
		return make([]complex128, n)
	}
	return dst[:n]
}
