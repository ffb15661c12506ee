package slp

// InputLocations records the base offsets of evaluation inputs in the
// memory bank.
type InputLocations struct {
	Variables int // first variable slot
	Time      int // path-variable slot; meaningful only with HasTime
}

// OutputLocations records the base offsets of the result regions.
type OutputLocations struct {
	Functions int // F contiguous slots
	Jacobian  int // F*V contiguous slots, entry (i,j) at i + j*F
	TimeDeriv int // F contiguous slots; meaningful only with HasTime
}

// NumberOf records the region sizes.
type NumberOf struct {
	Variables int
	Functions int
	Jacobian  int // Functions * Variables
	TimeDeriv int // Functions, or 0 without a path variable
}

// Layout describes the partitioning of a program's memory bank: inputs at
// the front, constants scattered through the temporaries, result regions
// at the back. It is fixed at compile time.
type Layout struct {
	In      InputLocations
	Out     OutputLocations
	Num     NumberOf
	HasTime bool
	MemLen  int // bank length: highest slot used + 1
}

// JacobianSlot returns the bank slot of d f_i / d x_j.
func (l *Layout) JacobianSlot(i, j int) int {
	return l.Out.Jacobian + i + j*l.Num.Functions
}

// inputEnd returns the first slot past the input region. Instruction
// destinations must lie at or beyond it.
func (l *Layout) inputEnd() int {
	if l.HasTime {
		return l.Num.Variables + 1
	}
	return l.Num.Variables
}
