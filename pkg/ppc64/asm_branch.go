package ppc64

// Cond is a branch condition on cr0, encoded as the BO/BI fields of a bc instruction
// shifted down by 16 bits.
type Cond uint32

const (
	cr0LT = 0
	cr0GT = 1
	cr0EQ = 2

	condTrue  = 0x100
	condFalse = 0x000
)

const (
	CondLT Cond = cr0LT | condTrue
	CondGT Cond = cr0GT | condTrue
	CondEQ Cond = cr0EQ | condTrue
	CondGE Cond = cr0LT | condFalse
	CondLE Cond = cr0GT | condFalse
	CondNE Cond = cr0EQ | condFalse
)

// Invert returns the condition that holds exactly when c does not.
func (c Cond) Invert() Cond {
	return c ^ condTrue
}

// Bit returns the cr0 bit tested by the condition (0=lt, 1=gt, 2=eq).
func (c Cond) Bit() int {
	return int(c & 0x1f)
}

// OnTrue reports whether the branch is taken when the tested bit is set.
func (c Cond) OnTrue() bool {
	return c&condTrue != 0
}

func (c Cond) String() string {
	switch c {
	case CondLT:
		return "lt"
	case CondGT:
		return "gt"
	case CondEQ:
		return "eq"
	case CondGE:
		return "ge"
	case CondLE:
		return "le"
	case CondNE:
		return "ne"
	default:
		return "?"
	}
}

// Cmpwi: cmpwi cr0, ra, si
func (a *Assembler) Cmpwi(x Reg, si int16) {
	a.Emit(InstCmpwi | ra(x) | imm16(si))
}

// Cmpdi: cmpdi cr0, ra, si
func (a *Assembler) Cmpdi(x Reg, si int16) {
	a.Emit(InstCmpdi | ra(x) | imm16(si))
}

// Cmplwi: cmplwi cr0, ra, ui
func (a *Assembler) Cmplwi(x Reg, ui uint16) {
	a.Emit(InstCmplwi | ra(x) | uint32(ui))
}

// Cmpldi: cmpldi cr0, ra, ui
func (a *Assembler) Cmpldi(x Reg, ui uint16) {
	a.Emit(InstCmpldi | ra(x) | uint32(ui))
}

// Cmpw: cmpw cr0, ra, rb
func (a *Assembler) Cmpw(x, y Reg) {
	a.Emit(InstCmpw | ra(x) | rb(y))
}

// Cmpd: cmpd cr0, ra, rb
func (a *Assembler) Cmpd(x, y Reg) {
	a.Emit(InstCmpd | ra(x) | rb(y))
}

// Cmplw: cmplw cr0, ra, rb
func (a *Assembler) Cmplw(x, y Reg) {
	a.Emit(InstCmplw | ra(x) | rb(y))
}

// Cmpld: cmpld cr0, ra, rb
func (a *Assembler) Cmpld(x, y Reg) {
	a.Emit(InstCmpld | ra(x) | rb(y))
}

// displacement returns the byte distance from the current word to target (a word index).
func (a *Assembler) displacement(target int) int32 {
	return int32(target-a.idx) * InstrSize
}

// IsNearBranch reports whether a byte displacement fits a conditional branch.
func IsNearBranch(disp int32) bool {
	return disp >= -0x8000 && disp <= 0x7fff
}

// B: b target (target is a word index into the buffer)
func (a *Assembler) B(target int) {
	a.Emit(InstB | uint32(a.displacement(target))&0x03fffffc)
}

// Bc: bc on cond to target, which must be within the conditional branch range
func (a *Assembler) Bc(cond Cond, target int) {
	a.Emit(InstBc | uint32(cond&0x3ff)<<16 | uint32(a.displacement(target))&0xfffc)
}

// Blr: blr
func (a *Assembler) Blr() {
	a.Emit(InstBlr)
}

// Blrl: blrl
func (a *Assembler) Blrl() {
	a.Emit(InstBlrl)
}

// Mflr: mflr rt
func (a *Assembler) Mflr(d Reg) {
	a.Emit(InstMflr | rt(d))
}

// Mtlr: mtlr rs
func (a *Assembler) Mtlr(s Reg) {
	a.Emit(InstMtlr | rs(s))
}

// Jump branches unconditionally to the word index target.
func (a *Assembler) Jump(target int) {
	a.B(target)
}

// BranchCond branches to target when cond holds. It always emits exactly two words so that
// code length never depends on where the target ends up: a short bc followed by a nop, or an
// inverted bc over an unconditional b when the target is out of conditional range.
func (a *Assembler) BranchCond(cond Cond, target int) {
	if IsNearBranch(a.displacement(target)) {
		a.Bc(cond, target)
		a.Nop()
		return
	}
	a.Bc(cond.Invert(), a.idx+2)
	a.B(target)
}
