package ppc64

// Lbz: lbz rt, d(ra)
func (a *Assembler) Lbz(d, base Reg, off int16) {
	a.Emit(InstLbz | rt(d) | ra(base) | imm16(off))
}

// Lhz: lhz rt, d(ra)
func (a *Assembler) Lhz(d, base Reg, off int16) {
	a.Emit(InstLhz | rt(d) | ra(base) | imm16(off))
}

// Lwz: lwz rt, d(ra)
func (a *Assembler) Lwz(d, base Reg, off int16) {
	a.Emit(InstLwz | rt(d) | ra(base) | imm16(off))
}

// Ld: ld rt, ds(ra); the low two bits of ds are not encodable and must be zero
func (a *Assembler) Ld(d, base Reg, off int16) {
	a.Emit(InstLd | rt(d) | ra(base) | imm16(off)&0xfffc)
}

// Ldx: ldx rt, ra, rb
func (a *Assembler) Ldx(d, base, idx Reg) {
	a.Emit(InstLdx | rt(d) | ra(base) | rb(idx))
}

// Stb: stb rs, d(ra)
func (a *Assembler) Stb(s, base Reg, off int16) {
	a.Emit(InstStb | rs(s) | ra(base) | imm16(off))
}

// Sth: sth rs, d(ra)
func (a *Assembler) Sth(s, base Reg, off int16) {
	a.Emit(InstSth | rs(s) | ra(base) | imm16(off))
}

// Stw: stw rs, d(ra)
func (a *Assembler) Stw(s, base Reg, off int16) {
	a.Emit(InstStw | rs(s) | ra(base) | imm16(off))
}

// Std: std rs, ds(ra)
func (a *Assembler) Std(s, base Reg, off int16) {
	a.Emit(InstStd | rs(s) | ra(base) | imm16(off)&0xfffc)
}

// Stdu: stdu rs, ds(ra)
func (a *Assembler) Stdu(s, base Reg, off int16) {
	a.Emit(InstStdu | rs(s) | ra(base) | imm16(off)&0xfffc)
}

// Stdx: stdx rs, ra, rb
func (a *Assembler) Stdx(s, base, idx Reg) {
	a.Emit(InstStdx | rs(s) | ra(base) | rb(idx))
}

// Lwarx: lwarx rt, ra, rb
func (a *Assembler) Lwarx(d, base, idx Reg) {
	a.Emit(InstLwarx | rt(d) | ra(base) | rb(idx))
}

// Ldarx: ldarx rt, ra, rb
func (a *Assembler) Ldarx(d, base, idx Reg) {
	a.Emit(InstLdarx | rt(d) | ra(base) | rb(idx))
}

// Stwcx: stwcx. rs, ra, rb
func (a *Assembler) Stwcx(s, base, idx Reg) {
	a.Emit(InstStwcx | rs(s) | ra(base) | rb(idx))
}

// Stdcx: stdcx. rs, ra, rb
func (a *Assembler) Stdcx(s, base, idx Reg) {
	a.Emit(InstStdcx | rs(s) | ra(base) | rb(idx))
}

// Ldbrx: ldbrx rt, ra, rb (byte-reversed doubleword load)
func (a *Assembler) Ldbrx(d, base, idx Reg) {
	a.Emit(InstLdbrx | rt(d) | ra(base) | rb(idx))
}
