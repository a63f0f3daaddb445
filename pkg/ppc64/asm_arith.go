package ppc64

// Addi: addi rt, ra, si (ra == r0 reads as zero)
func (a *Assembler) Addi(d, s Reg, si int16) {
	a.Emit(InstAddi | rt(d) | ra(s) | imm16(si))
}

// Li: li rt, si
func (a *Assembler) Li(d Reg, si int16) {
	a.Addi(d, R0, si)
}

// Addis: addis rt, ra, si
func (a *Assembler) Addis(d, s Reg, si int16) {
	a.Emit(InstAddis | rt(d) | ra(s) | imm16(si))
}

// Lis: lis rt, si
func (a *Assembler) Lis(d Reg, si int16) {
	a.Addis(d, R0, si)
}

// Add: add rt, ra, rb
func (a *Assembler) Add(d, x, y Reg) {
	a.Emit(InstAdd | rt(d) | ra(x) | rb(y))
}

// Subf: subf rt, ra, rb (rt = rb - ra)
func (a *Assembler) Subf(d, x, y Reg) {
	a.Emit(InstSubf | rt(d) | ra(x) | rb(y))
}

// Sub: rt = ra - rb
func (a *Assembler) Sub(d, x, y Reg) {
	a.Subf(d, y, x)
}

// Mulli: mulli rt, ra, si
func (a *Assembler) Mulli(d, s Reg, si int16) {
	a.Emit(InstMulli | rt(d) | ra(s) | imm16(si))
}

// Mullw: mullw rt, ra, rb
func (a *Assembler) Mullw(d, x, y Reg) {
	a.Emit(InstMullw | rt(d) | ra(x) | rb(y))
}

// Mulld: mulld rt, ra, rb
func (a *Assembler) Mulld(d, x, y Reg) {
	a.Emit(InstMulld | rt(d) | ra(x) | rb(y))
}

// Divwu: divwu rt, ra, rb
func (a *Assembler) Divwu(d, x, y Reg) {
	a.Emit(InstDivwu | rt(d) | ra(x) | rb(y))
}

// Divdu: divdu rt, ra, rb
func (a *Assembler) Divdu(d, x, y Reg) {
	a.Emit(InstDivdu | rt(d) | ra(x) | rb(y))
}

// Neg: neg rt, ra
func (a *Assembler) Neg(d, s Reg) {
	a.Emit(InstNeg | rt(d) | ra(s))
}
