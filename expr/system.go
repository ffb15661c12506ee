package expr

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

// System is a square-or-rectangular system of functions over an ordered
// variable list, with an optional distinguished path variable ("time").
// The Jacobian and time-derivative graphs are derived symbolically on
// first use and cached; derivative graphs share subtrees with the
// function graphs by pointer, so a compiler that deduplicates on node
// identity evaluates each shared subexpression once.
type System struct {
	vars    []*Node
	pathVar *Node
	funcs   []*Node

	jac       [][]*Node
	timeDeriv []*Node
}

// NewSystem builds a system from an ordered variable list, an optional
// path variable (nil for none), and an ordered function list.
func NewSystem(vars []*Node, pathVar *Node, funcs []*Node) (*System, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("expr: system has no variables")
	}
	if len(funcs) == 0 {
		return nil, fmt.Errorf("expr: system has no functions")
	}
	seen := make(map[*Node]bool, len(vars)+1)
	for i, v := range vars {
		if v == nil || v.Kind != KindVariable {
			return nil, fmt.Errorf("expr: variable %d is not a variable node", i)
		}
		if seen[v] {
			return nil, fmt.Errorf("expr: variable %q declared twice", v.Name)
		}
		seen[v] = true
	}
	if pathVar != nil {
		if pathVar.Kind != KindVariable {
			return nil, fmt.Errorf("expr: path variable is not a variable node")
		}
		if seen[pathVar] {
			return nil, fmt.Errorf("expr: path variable %q also declared as a variable", pathVar.Name)
		}
	}
	for i, f := range funcs {
		if f == nil {
			return nil, fmt.Errorf("expr: function %d is nil", i)
		}
	}
	return &System{vars: vars, pathVar: pathVar, funcs: funcs}, nil
}

// Variables returns the ordered variable list.
func (s *System) Variables() []*Node { return s.vars }

// PathVariable returns the path variable, or nil.
func (s *System) PathVariable() *Node { return s.pathVar }

// Functions returns the ordered function roots.
func (s *System) Functions() []*Node { return s.funcs }

// NumVariables returns the number of declared variables.
func (s *System) NumVariables() int { return len(s.vars) }

// NumFunctions returns the number of functions.
func (s *System) NumFunctions() int { return len(s.funcs) }

// HasPathVariable reports whether the system has a path variable.
func (s *System) HasPathVariable() bool { return s.pathVar != nil }

// Jacobian returns the F x V matrix of derivative roots, jac[i][j] being
// d f_i / d x_j. Derived once and cached.
func (s *System) Jacobian() [][]*Node {
	if s.jac == nil {
		d := newDiffer()
		s.jac = make([][]*Node, len(s.funcs))
		for i, f := range s.funcs {
			row := make([]*Node, len(s.vars))
			for j, v := range s.vars {
				row[j] = d.diff(f, v)
			}
			s.jac[i] = row
		}
	}
	return s.jac
}

// TimeDeriv returns the F-vector of derivatives with respect to the path
// variable, or nil when the system has none.
func (s *System) TimeDeriv() []*Node {
	if s.pathVar == nil {
		return nil
	}
	if s.timeDeriv == nil {
		d := newDiffer()
		s.timeDeriv = make([]*Node, len(s.funcs))
		for i, f := range s.funcs {
			s.timeDeriv[i] = d.diff(f, s.pathVar)
		}
	}
	return s.timeDeriv
}

// Fingerprint keys for the structural hash. Arbitrary but fixed: cached
// programs must hash identically across processes.
const (
	fpKey0 = 0x736c702d66696e67 // "slp-fing"
	fpKey1 = 0x65727072696e7431 // "erprint1"
)

// Fingerprint returns a structural hash of the system: node kinds,
// payloads, child wiring, and sharing structure all contribute. Two
// systems with equal fingerprints compile to identical programs.
func (s *System) Fingerprint() uint64 {
	e := fpEncoder{ids: make(map[*Node]uint32)}
	for _, v := range s.vars {
		e.walk(v)
	}
	e.buf = append(e.buf, 0xFE)
	if s.pathVar != nil {
		e.walk(s.pathVar)
	}
	e.buf = append(e.buf, 0xFD)
	for _, f := range s.funcs {
		e.walk(f)
	}
	return siphash.Hash(fpKey0, fpKey1, e.buf)
}

type fpEncoder struct {
	ids map[*Node]uint32
	buf []byte
}

func (e *fpEncoder) walk(n *Node) uint32 {
	if id, ok := e.ids[n]; ok {
		// Shared node: reference its id instead of re-encoding, so
		// sharing structure is part of the hash.
		e.buf = append(e.buf, 0xFF)
		e.buf = binary.AppendUvarint(e.buf, uint64(id))
		return id
	}
	id := uint32(len(e.ids))
	e.ids[n] = id

	e.buf = append(e.buf, byte(n.Kind))
	switch n.Kind {
	case KindVariable:
		e.buf = append(e.buf, n.Name...)
		e.buf = append(e.buf, 0)
	case KindInteger:
		e.buf = append(e.buf, n.Int.String()...)
		e.buf = append(e.buf, 0)
	case KindRational:
		e.buf = append(e.buf, n.Rat.RatString()...)
		e.buf = append(e.buf, 0)
	case KindFloat:
		e.buf = append(e.buf, n.Re.Text('p', 0)...)
		e.buf = append(e.buf, 0)
		if n.Im != nil {
			e.buf = append(e.buf, n.Im.Text('p', 0)...)
		}
		e.buf = append(e.buf, 0)
	case KindIntegerPower:
		e.buf = binary.AppendVarint(e.buf, int64(n.Exponent))
	}
	for i, op := range n.Operands {
		if n.Signs != nil {
			e.buf = binary.AppendVarint(e.buf, int64(n.Signs[i]))
		}
		e.walk(op)
	}
	return id
}
