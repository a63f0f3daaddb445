package ppc64

// Slw: slw ra, rs, rb (result is zero-extended from 32 bits)
func (a *Assembler) Slw(d, x, y Reg) {
	a.Emit(InstSlw | ra(d) | rs(x) | rb(y))
}

// Sld: sld ra, rs, rb
func (a *Assembler) Sld(d, x, y Reg) {
	a.Emit(InstSld | ra(d) | rs(x) | rb(y))
}

// Srw: srw ra, rs, rb
func (a *Assembler) Srw(d, x, y Reg) {
	a.Emit(InstSrw | ra(d) | rs(x) | rb(y))
}

// Srd: srd ra, rs, rb
func (a *Assembler) Srd(d, x, y Reg) {
	a.Emit(InstSrd | ra(d) | rs(x) | rb(y))
}

// Sraw: sraw ra, rs, rb (result is sign-extended from 32 bits)
func (a *Assembler) Sraw(d, x, y Reg) {
	a.Emit(InstSraw | ra(d) | rs(x) | rb(y))
}

// Srawi: srawi ra, rs, sh
func (a *Assembler) Srawi(d, s Reg, sh uint8) {
	a.Emit(InstSrawi | ra(d) | rs(s) | uint32(sh&0x1f)<<11)
}

// Srad: srad ra, rs, rb
func (a *Assembler) Srad(d, x, y Reg) {
	a.Emit(InstSrad | ra(d) | rs(x) | rb(y))
}

// Sradi: sradi ra, rs, sh
func (a *Assembler) Sradi(d, s Reg, sh uint8) {
	a.Emit(InstSradi | ra(d) | rs(s) | sh64(sh))
}

// Rlwinm: rlwinm ra, rs, sh, mb, me
func (a *Assembler) Rlwinm(d, s Reg, sh, mb, me uint8) {
	a.Emit(InstRlwinm | ra(d) | rs(s) | uint32(sh&0x1f)<<11 | uint32(mb&0x1f)<<6 | uint32(me&0x1f)<<1)
}

// Rlwimi: rlwimi ra, rs, sh, mb, me
func (a *Assembler) Rlwimi(d, s Reg, sh, mb, me uint8) {
	a.Emit(InstRlwimi | ra(d) | rs(s) | uint32(sh&0x1f)<<11 | uint32(mb&0x1f)<<6 | uint32(me&0x1f)<<1)
}

// Rldicl: rldicl ra, rs, sh, mb
func (a *Assembler) Rldicl(d, s Reg, sh, mb uint8) {
	a.Emit(InstRldicl | ra(d) | rs(s) | sh64(sh) | mb64(mb))
}

// Rldicr: rldicr ra, rs, sh, me
func (a *Assembler) Rldicr(d, s Reg, sh, me uint8) {
	a.Emit(InstRldicr | ra(d) | rs(s) | sh64(sh) | mb64(me))
}

// Slwi: slwi ra, rs, n
func (a *Assembler) Slwi(d, s Reg, n uint8) {
	a.Rlwinm(d, s, n, 0, 31-n)
}

// Srwi: srwi ra, rs, n
func (a *Assembler) Srwi(d, s Reg, n uint8) {
	a.Rlwinm(d, s, 32-n, n, 31)
}

// Sldi: sldi ra, rs, n
func (a *Assembler) Sldi(d, s Reg, n uint8) {
	a.Rldicr(d, s, n, 63-n)
}

// Srdi: srdi ra, rs, n
func (a *Assembler) Srdi(d, s Reg, n uint8) {
	a.Rldicl(d, s, 64-n, n)
}

// Clrldi: clrldi ra, rs, n (clear the n high-order bits)
func (a *Assembler) Clrldi(d, s Reg, n uint8) {
	a.Rldicl(d, s, 0, n)
}

// Clrlwi32: rlwinm ra, rs, 0, 0, 31 keeps the low word and clears the high one
func (a *Assembler) Clrlwi32(d, s Reg) {
	a.Rlwinm(d, s, 0, 0, 31)
}
