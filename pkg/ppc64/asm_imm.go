package ppc64

// IsSigned16 reports whether v fits a signed 16-bit immediate.
func IsSigned16(v int64) bool {
	return v >= -0x8000 && v <= 0x7fff
}

// IsUnsigned16 reports whether v fits an unsigned 16-bit immediate.
func IsUnsigned16(v int64) bool {
	return v >= 0 && v <= 0xffff
}

// LoadImm32 materializes a sign-extended 32-bit constant in d using one or two words.
func (a *Assembler) LoadImm32(d Reg, v int32) {
	if IsSigned16(int64(v)) {
		a.Li(d, int16(v))
		return
	}
	a.Lis(d, int16(uint32(v)>>16))
	if lo := uint16(v); lo != 0 {
		a.Ori(d, d, lo)
	}
}

// LoadImm64 materializes an arbitrary 64-bit constant in d using at most five words.
func (a *Assembler) LoadImm64(d Reg, v int64) {
	if v == int64(int32(v)) {
		a.LoadImm32(d, int32(v))
		return
	}
	u := uint64(v)
	if u>>47 == 0 {
		// Bits 47..63 are clear so li of bits 32..47 sign-extends to the right value.
		a.Li(d, int16(u>>32))
	} else {
		a.Lis(d, int16(u>>48))
		if mid := uint16(u >> 32); mid != 0 {
			a.Ori(d, d, mid)
		}
	}
	a.Sldi(d, d, 32)
	if hi := uint16(u >> 16); hi != 0 {
		a.Oris(d, d, hi)
	}
	if lo := uint16(u); lo != 0 {
		a.Ori(d, d, lo)
	}
}
