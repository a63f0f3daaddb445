package sim

import (
	"math/bits"
)

// mask64 returns the PowerPC rotate mask with ones from bit mb through bit me, where bit 0
// is the most significant. The mask wraps when mb > me.
func mask64(mb, me uint) uint64 {
	x := ^uint64(0) >> mb
	y := ^uint64(0) << (63 - me)
	if mb <= me {
		return x & y
	}
	return x | y
}

// rotl32 rotates the low word left and replicates it into both halves, as rlwinm/rlwimi see it.
func rotl32(v uint64, n uint) uint64 {
	r := uint64(bits.RotateLeft32(uint32(v), int(n)))
	return r<<32 | r
}

func signExtend16(w uint32) int64 {
	return int64(int16(uint16(w)))
}

// ra0 reads ra, treating register 0 as the constant zero.
func (m *Machine) ra0(ra uint32) uint64 {
	if ra == 0 {
		return 0
	}
	return m.GPR[ra]
}

// exec executes w at m.PC and returns the next PC.
func (m *Machine) exec(w uint32) (uint64, error) {
	next := m.PC + 4
	rt := (w >> 21) & 31
	ra := (w >> 16) & 31
	rb := (w >> 11) & 31
	si := signExtend16(w)
	ui := uint64(w & 0xffff)
	g := &m.GPR

	switch w >> 26 {
	case 7: // mulli
		g[rt] = uint64(int64(g[ra]) * si)
	case 10: // cmpli
		a := g[ra]
		if w&(1<<21) == 0 {
			a = uint64(uint32(a))
		}
		m.compareUnsigned(a, ui)
	case 11: // cmpi
		a := int64(g[ra])
		if w&(1<<21) == 0 {
			a = int64(int32(a))
		}
		m.compareSigned(a, si)
	case 14: // addi
		g[rt] = m.ra0(ra) + uint64(si)
	case 15: // addis
		g[rt] = m.ra0(ra) + uint64(si<<16)
	case 16: // bc
		if w&2 != 0 {
			return 0, m.illegal(w)
		}
		if w&1 != 0 {
			m.LR = next
		}
		if m.branchTaken(rt, ra) {
			return m.PC + uint64(signExtend16(w&0xfffc)), nil
		}
	case 18: // b
		if w&2 != 0 {
			return 0, m.illegal(w)
		}
		if w&1 != 0 {
			m.LR = next
		}
		disp := int64(int32(w<<6)>>6) &^ 3
		return m.PC + uint64(disp), nil
	case 19:
		if (w>>1)&0x3ff != 16 { // bclr
			return 0, m.illegal(w)
		}
		target := m.LR &^ 3
		if w&1 != 0 {
			m.LR = next
		}
		if m.branchTaken(rt, ra) {
			return target, nil
		}
	case 20: // rlwimi
		mask := mask64(uint((w>>6)&31)+32, uint((w>>1)&31)+32)
		r := rotl32(g[rt], uint(rb))
		g[ra] = r&mask | g[ra]&^mask
		m.recordIf(w, g[ra])
	case 21: // rlwinm
		mask := mask64(uint((w>>6)&31)+32, uint((w>>1)&31)+32)
		g[ra] = rotl32(g[rt], uint(rb)) & mask
		m.recordIf(w, g[ra])
	case 24: // ori
		g[ra] = g[rt] | ui
	case 25: // oris
		g[ra] = g[rt] | ui<<16
	case 26: // xori
		g[ra] = g[rt] ^ ui
	case 27: // xoris
		g[ra] = g[rt] ^ ui<<16
	case 28: // andi.
		g[ra] = g[rt] & ui
		m.setCR0(int64(g[ra]))
	case 30:
		return next, m.execRotate64(w, rt, ra)
	case 31:
		return next, m.execX(w, rt, ra, rb)
	case 32: // lwz
		return next, m.load(rt, m.ra0(ra)+uint64(si), 4)
	case 34: // lbz
		return next, m.load(rt, m.ra0(ra)+uint64(si), 1)
	case 40: // lhz
		return next, m.load(rt, m.ra0(ra)+uint64(si), 2)
	case 36: // stw
		return next, m.Mem.Store(m.ra0(ra)+uint64(si), 4, g[rt])
	case 38: // stb
		return next, m.Mem.Store(m.ra0(ra)+uint64(si), 1, g[rt])
	case 44: // sth
		return next, m.Mem.Store(m.ra0(ra)+uint64(si), 2, g[rt])
	case 58:
		if w&3 != 0 { // only ld
			return 0, m.illegal(w)
		}
		return next, m.load(rt, m.ra0(ra)+uint64(si&^3), 8)
	case 62:
		ea := m.ra0(ra) + uint64(si&^3)
		switch w & 3 {
		case 0: // std
			return next, m.Mem.Store(ea, 8, g[rt])
		case 1: // stdu
			if ra == 0 {
				return 0, m.illegal(w)
			}
			if err := m.Mem.Store(ea, 8, g[rt]); err != nil {
				return 0, err
			}
			g[ra] = ea
		default:
			return 0, m.illegal(w)
		}
	default:
		return 0, m.illegal(w)
	}
	return next, nil
}

// branchTaken evaluates the BO/BI fields. The CTR forms are not supported and never taken.
func (m *Machine) branchTaken(bo, bi uint32) bool {
	if bo&0x04 == 0 {
		return false
	}
	if bo&0x10 != 0 {
		return true
	}
	return m.crBit(bi) == (bo&0x08 != 0)
}

func (m *Machine) recordIf(w uint32, v uint64) {
	if w&1 != 0 {
		m.setCR0(int64(v))
	}
}

func (m *Machine) load(rt uint32, ea uint64, size int) error {
	v, err := m.Mem.Load(ea, size)
	if err != nil {
		return err
	}
	m.GPR[rt] = v
	return nil
}

func (m *Machine) execRotate64(w, rs, ra uint32) error {
	sh := uint((w>>11)&31) | uint((w>>1)&1)<<5
	mb := uint((w>>6)&31) | uint((w>>5)&1)<<5
	r := bits.RotateLeft64(m.GPR[rs], int(sh))
	switch (w >> 2) & 7 {
	case 0: // rldicl
		m.GPR[ra] = r & mask64(mb, 63)
	case 1: // rldicr
		m.GPR[ra] = r & mask64(0, mb)
	default:
		return m.illegal(w)
	}
	m.recordIf(w, m.GPR[ra])
	return nil
}

func (m *Machine) execX(w, rt, ra, rb uint32) error {
	g := &m.GPR
	// XS-form sradi carries a sh bit where X-form instructions have their xo low bit.
	if (w>>2)&0x1ff == 413 {
		sh := uint(rb) | uint((w>>1)&1)<<5
		g[ra] = uint64(int64(g[rt]) >> sh)
		m.recordIf(w, g[ra])
		return nil
	}
	switch (w >> 1) & 0x3ff {
	case 0: // cmp
		a, b := int64(g[ra]), int64(g[rb])
		if w&(1<<21) == 0 {
			a, b = int64(int32(a)), int64(int32(b))
		}
		m.compareSigned(a, b)
	case 32: // cmpl
		a, b := g[ra], g[rb]
		if w&(1<<21) == 0 {
			a, b = uint64(uint32(a)), uint64(uint32(b))
		}
		m.compareUnsigned(a, b)
	case 28: // and
		g[ra] = g[rt] & g[rb]
		m.recordIf(w, g[ra])
	case 444: // or
		g[ra] = g[rt] | g[rb]
		m.recordIf(w, g[ra])
	case 316: // xor
		g[ra] = g[rt] ^ g[rb]
		m.recordIf(w, g[ra])
	case 24: // slw
		if n := g[rb] & 0x3f; n < 32 {
			g[ra] = uint64(uint32(g[rt]) << n)
		} else {
			g[ra] = 0
		}
	case 27: // sld
		if n := g[rb] & 0x7f; n < 64 {
			g[ra] = g[rt] << n
		} else {
			g[ra] = 0
		}
	case 536: // srw
		if n := g[rb] & 0x3f; n < 32 {
			g[ra] = uint64(uint32(g[rt]) >> n)
		} else {
			g[ra] = 0
		}
	case 539: // srd
		if n := g[rb] & 0x7f; n < 64 {
			g[ra] = g[rt] >> n
		} else {
			g[ra] = 0
		}
	case 792: // sraw
		n := g[rb] & 0x3f
		if n > 31 {
			n = 31
		}
		g[ra] = uint64(int64(int32(g[rt]) >> n))
	case 794: // srad
		n := g[rb] & 0x7f
		if n > 63 {
			n = 63
		}
		g[ra] = uint64(int64(g[rt]) >> n)
	case 824: // srawi
		g[ra] = uint64(int64(int32(g[rt]) >> rb))
	case 21: // ldx
		return m.load(rt, m.ra0(ra)+g[rb], 8)
	case 149: // stdx
		return m.Mem.Store(m.ra0(ra)+g[rb], 8, g[rt])
	case 20: // lwarx
		ea := m.ra0(ra) + g[rb]
		if ea&3 != 0 {
			return &AlignmentFault{PC: m.PC, Addr: ea}
		}
		m.reserved, m.resvAddr = true, ea
		return m.load(rt, ea, 4)
	case 84: // ldarx
		ea := m.ra0(ra) + g[rb]
		if ea&7 != 0 {
			return &AlignmentFault{PC: m.PC, Addr: ea}
		}
		m.reserved, m.resvAddr = true, ea
		return m.load(rt, ea, 8)
	case 150: // stwcx.
		return m.storeConditional(m.ra0(ra)+g[rb], 4, g[rt])
	case 214: // stdcx.
		return m.storeConditional(m.ra0(ra)+g[rb], 8, g[rt])
	case 532: // ldbrx
		v, err := m.Mem.Load(m.ra0(ra)+g[rb], 8)
		if err != nil {
			return err
		}
		g[rt] = bits.ReverseBytes64(v)
	case 339: // mfspr
		if spr(w) != sprLR {
			return m.illegal(w)
		}
		g[rt] = m.LR
	case 467: // mtspr
		if spr(w) != sprLR {
			return m.illegal(w)
		}
		m.LR = g[rt]
	case 266: // add
		g[rt] = g[ra] + g[rb]
	case 40: // subf
		g[rt] = g[rb] - g[ra]
	case 235: // mullw
		g[rt] = uint64(int64(int32(g[ra])) * int64(int32(g[rb])))
	case 233: // mulld
		g[rt] = g[ra] * g[rb]
	case 459: // divwu
		if d := uint32(g[rb]); d != 0 {
			g[rt] = uint64(uint32(g[ra]) / d)
		} else {
			g[rt] = 0
		}
	case 457: // divdu
		if d := g[rb]; d != 0 {
			g[rt] = g[ra] / d
		} else {
			g[rt] = 0
		}
	case 104: // neg
		g[rt] = -g[ra]
	default:
		return m.illegal(w)
	}
	return nil
}

// storeConditional completes a reservation. A single thread never loses its reservation,
// so the store always succeeds when one is held for ea.
func (m *Machine) storeConditional(ea uint64, size int, v uint64) error {
	ok := m.reserved && m.resvAddr == ea
	m.reserved = false
	if !ok {
		m.CR0 = 0
		return nil
	}
	if err := m.Mem.Store(ea, size, v); err != nil {
		return err
	}
	m.CR0 = crEQ
	return nil
}

func spr(w uint32) uint32 {
	return (w>>16)&0x1f | ((w>>11)&0x1f)<<5
}
