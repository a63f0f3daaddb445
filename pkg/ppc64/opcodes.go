package ppc64

// Instruction templates. Register and immediate fields are zero.
const (
	InstAddi   uint32 = 0x38000000
	InstAddis  uint32 = 0x3c000000
	InstAdd    uint32 = 0x7c000214
	InstSubf   uint32 = 0x7c000050
	InstMulli  uint32 = 0x1c000000
	InstMullw  uint32 = 0x7c0001d6
	InstMulld  uint32 = 0x7c0001d2
	InstDivwu  uint32 = 0x7c000396
	InstDivdu  uint32 = 0x7c000392
	InstNeg    uint32 = 0x7c0000d0
	InstAnd    uint32 = 0x7c000038
	InstAndDot uint32 = 0x7c000039
	InstAndi   uint32 = 0x70000000
	InstOr     uint32 = 0x7c000378
	InstOri    uint32 = 0x60000000
	InstOris   uint32 = 0x64000000
	InstXor    uint32 = 0x7c000278
	InstXori   uint32 = 0x68000000
	InstXoris  uint32 = 0x6c000000
	InstSlw    uint32 = 0x7c000030
	InstSld    uint32 = 0x7c000036
	InstSrw    uint32 = 0x7c000430
	InstSrd    uint32 = 0x7c000436
	InstSraw   uint32 = 0x7c000630
	InstSrawi  uint32 = 0x7c000670
	InstSrad   uint32 = 0x7c000634
	InstSradi  uint32 = 0x7c000674
	InstRlwinm uint32 = 0x54000000
	InstRlwimi uint32 = 0x50000000
	InstRldicl uint32 = 0x78000000
	InstRldicr uint32 = 0x78000004
	InstLbz    uint32 = 0x88000000
	InstLhz    uint32 = 0xa0000000
	InstLwz    uint32 = 0x80000000
	InstLd     uint32 = 0xe8000000
	InstLdx    uint32 = 0x7c00002a
	InstStb    uint32 = 0x98000000
	InstSth    uint32 = 0xb0000000
	InstStw    uint32 = 0x90000000
	InstStd    uint32 = 0xf8000000
	InstStdu   uint32 = 0xf8000001
	InstStdx   uint32 = 0x7c00012a
	InstLwarx  uint32 = 0x7c000028
	InstLdarx  uint32 = 0x7c0000a8
	InstStwcx  uint32 = 0x7c00012d
	InstStdcx  uint32 = 0x7c0001ad
	InstLdbrx  uint32 = 0x7c000428
	InstCmpwi  uint32 = 0x2c000000
	InstCmpdi  uint32 = 0x2c200000
	InstCmplwi uint32 = 0x28000000
	InstCmpldi uint32 = 0x28200000
	InstCmpw   uint32 = 0x7c000000
	InstCmpd   uint32 = 0x7c200000
	InstCmplw  uint32 = 0x7c000040
	InstCmpld  uint32 = 0x7c200040
	InstB      uint32 = 0x48000000
	InstBc     uint32 = 0x40800000
	InstBlr    uint32 = 0x4e800020
	InstBlrl   uint32 = 0x4e800021
	InstMflr   uint32 = 0x7c0802a6
	InstMtlr   uint32 = 0x7c0803a6
	InstNop    uint32 = 0x60000000
)
