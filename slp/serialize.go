package slp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/klauspost/compress/zstd"

	"github.com/sbl8/straightline/expr"
)

// Program image format: a fixed header followed by a zstd frame holding
// the immutable description. Scratch banks are rebuilt on load, so an
// image is exactly the shareable part of a program.
const (
	imageMagic   = 0x31504C53 // "SLP1", little-endian
	imageVersion = 1
)

// Encode serializes the program's immutable description.
func Encode(p *Program) ([]byte, error) {
	body := &bytes.Buffer{}
	w := imageWriter{buf: body}

	l := &p.layout
	w.u32(uint32(l.In.Variables))
	w.u32(uint32(l.In.Time))
	w.u32(uint32(l.Out.Functions))
	w.u32(uint32(l.Out.Jacobian))
	w.u32(uint32(l.Out.TimeDeriv))
	w.u32(uint32(l.Num.Variables))
	w.u32(uint32(l.Num.Functions))
	w.u32(uint32(l.Num.Jacobian))
	w.u32(uint32(l.Num.TimeDeriv))
	w.flag(l.HasTime)
	w.u32(uint32(l.MemLen))

	w.u32(uint32(len(p.instrs)))
	for _, word := range p.instrs {
		w.u32(word)
	}

	w.u32(uint32(len(p.consts)))
	for _, c := range p.consts {
		w.u32(uint32(c.Slot))
		switch c.Node.Kind {
		case expr.KindInteger:
			w.u8(constInt)
			w.str(c.Node.Int.String())
		case expr.KindRational:
			w.u8(constRat)
			w.str(c.Node.Rat.RatString())
		case expr.KindFloat:
			w.u8(constFloat)
			w.u32(uint32(c.Node.Re.Prec()))
			w.str(c.Node.Re.Text('p', 0))
			if c.Node.Im != nil {
				w.flag(true)
				w.str(c.Node.Im.Text('p', 0))
			} else {
				w.flag(false)
			}
		default:
			return nil, fmt.Errorf("slp: non-numeric constant node %v", c.Node.Kind)
		}
	}
	if w.err != nil {
		return nil, w.err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	out := &bytes.Buffer{}
	binary.Write(out, binary.LittleEndian, uint32(imageMagic))
	binary.Write(out, binary.LittleEndian, uint16(imageVersion))
	out.Write(enc.EncodeAll(body.Bytes(), nil))
	return out.Bytes(), nil
}

// Decode rebuilds a program from an image produced by Encode. The decoded
// description is validated before any bank is allocated; scratch starts
// empty (constants projected, precision at the default).
func Decode(data []byte) (*Program, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: short header", ErrCorruptImage)
	}
	if binary.LittleEndian.Uint32(data) != imageMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptImage)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != imageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptImage, v)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	body, err := dec.DecodeAll(data[6:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	r := imageReader{buf: bytes.NewReader(body)}
	var l Layout
	l.In.Variables = int(r.u32())
	l.In.Time = int(r.u32())
	l.Out.Functions = int(r.u32())
	l.Out.Jacobian = int(r.u32())
	l.Out.TimeDeriv = int(r.u32())
	l.Num.Variables = int(r.u32())
	l.Num.Functions = int(r.u32())
	l.Num.Jacobian = int(r.u32())
	l.Num.TimeDeriv = int(r.u32())
	l.HasTime = r.flag()
	l.MemLen = int(r.u32())

	nInstr := int(r.u32())
	if r.err == nil && nInstr > r.buf.Len() {
		return nil, fmt.Errorf("%w: instruction count %d exceeds body", ErrCorruptImage, nInstr)
	}
	instrs := make([]uint32, nInstr)
	for i := range instrs {
		instrs[i] = r.u32()
	}

	nConst := int(r.u32())
	if r.err == nil && nConst > r.buf.Len() {
		return nil, fmt.Errorf("%w: constant count %d exceeds body", ErrCorruptImage, nConst)
	}
	consts := make([]Constant, 0, nConst)
	for i := 0; i < nConst; i++ {
		slot := int(r.u32())
		node, err := r.constNode()
		if err != nil {
			return nil, err
		}
		if slot < 0 || slot >= l.MemLen {
			return nil, fmt.Errorf("%w: constant slot %d out of range", ErrCorruptImage, slot)
		}
		consts = append(consts, Constant{Node: node, Slot: slot})
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, r.err)
	}

	if l.MemLen < l.inputEnd()+l.Num.Functions+l.Num.Jacobian+l.Num.TimeDeriv {
		return nil, fmt.Errorf("%w: memory length %d too small for layout", ErrCorruptImage, l.MemLen)
	}
	p := &Program{instrs: instrs, layout: l, consts: consts}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.mem = make([]complex128, l.MemLen)
	for _, c := range consts {
		p.mem[c.Slot] = c.complex128()
	}
	return p, nil
}

const (
	constInt byte = iota + 1
	constRat
	constFloat
)

type imageWriter struct {
	buf *bytes.Buffer
	err error
}

func (w *imageWriter) u32(v uint32) {
	if w.err == nil {
		w.err = binary.Write(w.buf, binary.LittleEndian, v)
	}
}

func (w *imageWriter) u8(v byte) {
	if w.err == nil {
		w.err = w.buf.WriteByte(v)
	}
}

func (w *imageWriter) flag(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *imageWriter) str(s string) {
	w.u32(uint32(len(s)))
	if w.err == nil {
		_, w.err = w.buf.WriteString(s)
	}
}

type imageReader struct {
	buf *bytes.Reader
	err error
}

func (r *imageReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	return v
}

func (r *imageReader) u8() byte {
	if r.err != nil {
		return 0
	}
	var b byte
	b, r.err = r.buf.ReadByte()
	return b
}

func (r *imageReader) flag() bool { return r.u8() != 0 }

func (r *imageReader) str() string {
	n := int(r.u32())
	if r.err != nil {
		return ""
	}
	if n > r.buf.Len() {
		r.err = fmt.Errorf("string length %d exceeds body", n)
		return ""
	}
	b := make([]byte, n)
	_, r.err = r.buf.Read(b)
	return string(b)
}

// constNode rebuilds a numeric expression node from its image encoding.
func (r *imageReader) constNode() (*expr.Node, error) {
	switch tag := r.u8(); tag {
	case constInt:
		v, ok := new(big.Int).SetString(r.str(), 10)
		if r.err == nil && !ok {
			return nil, fmt.Errorf("%w: bad integer constant", ErrCorruptImage)
		}
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptImage, r.err)
		}
		return expr.BigInt(v), nil
	case constRat:
		v, ok := new(big.Rat).SetString(r.str())
		if r.err == nil && !ok {
			return nil, fmt.Errorf("%w: bad rational constant", ErrCorruptImage)
		}
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptImage, r.err)
		}
		return expr.BigRat(v), nil
	case constFloat:
		prec := uint(r.u32())
		re, err := parseBigFloat(r.str(), prec, r.err)
		if err != nil {
			return nil, err
		}
		var im *big.Float
		if r.flag() {
			im, err = parseBigFloat(r.str(), prec, r.err)
			if err != nil {
				return nil, err
			}
		}
		return expr.Complex(re, im), nil
	default:
		return nil, fmt.Errorf("%w: unknown constant tag %d", ErrCorruptImage, tag)
	}
}

func parseBigFloat(s string, prec uint, rerr error) (*big.Float, error) {
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, rerr)
	}
	f, _, err := big.ParseFloat(s, 0, prec, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("%w: bad float constant: %v", ErrCorruptImage, err)
	}
	return f, nil
}
