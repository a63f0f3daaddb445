package ppc64

// And: and ra, rs, rb
func (a *Assembler) And(d, x, y Reg) {
	a.Emit(InstAnd | ra(d) | rs(x) | rb(y))
}

// AndDot: and. ra, rs, rb (sets cr0)
func (a *Assembler) AndDot(d, x, y Reg) {
	a.Emit(InstAndDot | ra(d) | rs(x) | rb(y))
}

// Andi: andi. ra, rs, ui (always sets cr0, immediate is zero-extended)
func (a *Assembler) Andi(d, s Reg, ui uint16) {
	a.Emit(InstAndi | ra(d) | rs(s) | uint32(ui))
}

// Or: or ra, rs, rb
func (a *Assembler) Or(d, x, y Reg) {
	a.Emit(InstOr | ra(d) | rs(x) | rb(y))
}

// Mr: mr ra, rs
func (a *Assembler) Mr(d, s Reg) {
	a.Or(d, s, s)
}

// Ori: ori ra, rs, ui
func (a *Assembler) Ori(d, s Reg, ui uint16) {
	a.Emit(InstOri | ra(d) | rs(s) | uint32(ui))
}

// Oris: oris ra, rs, ui
func (a *Assembler) Oris(d, s Reg, ui uint16) {
	a.Emit(InstOris | ra(d) | rs(s) | uint32(ui))
}

// Xor: xor ra, rs, rb
func (a *Assembler) Xor(d, x, y Reg) {
	a.Emit(InstXor | ra(d) | rs(x) | rb(y))
}

// Xori: xori ra, rs, ui
func (a *Assembler) Xori(d, s Reg, ui uint16) {
	a.Emit(InstXori | ra(d) | rs(s) | uint32(ui))
}

// Xoris: xoris ra, rs, ui
func (a *Assembler) Xoris(d, s Reg, ui uint16) {
	a.Emit(InstXoris | ra(d) | rs(s) | uint32(ui))
}

// Nop: ori r0, r0, 0
func (a *Assembler) Nop() {
	a.Emit(InstNop)
}
