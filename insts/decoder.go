package insts

import (
	"strings"

	"github.com/sarchlab/a64dbt/bitmatch"
	"github.com/sarchlab/a64dbt/register"
)

// field returns n don't-care pattern characters, used to keep long bitmatch
// patterns free of manual bit-counting mistakes.
func field(n int) string {
	return strings.Repeat("x", n)
}

// Decoder turns instruction words into Inst records. It is stateless and
// safe for concurrent use; the top-level group split plus one
// bitmatch.Matcher per group is the two-level dispatch the bit-pattern
// matcher was built for.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode resolves one little-endian-encoded 32-bit instruction word.
func (d *Decoder) Decode(raw [4]byte) (Inst, error) {
	word := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24

	b27 := bitmatch.Extract(word, 27, 28)
	if b27 == 0 {
		if bitmatch.Extract(word, 28, 29) == 0 {
			return Inst{}, ErrUnknownInstruction{Raw: raw}
		}
		b26 := bitmatch.Extract(word, 26, 27)
		var (
			inst Inst
			ok   bool
		)
		if b26 == 0 {
			inst, ok = dpImmMatcher.Match(word)
		} else {
			inst, ok = branchMatcher.Match(word)
		}
		if !ok {
			return Inst{}, ErrUnknownInstruction{Raw: raw}
		}
		if inst.Op == OpUnknown {
			return Inst{}, ErrUnimplemented{Category: "system register"}
		}
		return inst, nil
	}

	b25 := bitmatch.Extract(word, 25, 26)
	if b25 == 0 {
		inst, ok := loadStoreMatcher.Match(word)
		if !ok {
			return Inst{}, ErrUnknownInstruction{Raw: raw}
		}
		if inst.Op == OpUnknown {
			return Inst{}, ErrUnimplemented{Category: "load/store addressing mode"}
		}
		return inst, nil
	}

	b26 := bitmatch.Extract(word, 26, 27)
	var (
		inst Inst
		ok   bool
	)
	if b26 == 0 {
		inst, ok = dpRegMatcher.Match(word)
	} else {
		inst, ok = simdFpMatcher.Match(word)
	}
	if !ok {
		return Inst{}, ErrUnknownInstruction{Raw: raw}
	}
	return inst, nil
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// ---- Data Processing (Immediate) ------------------------------------------

var dpImmMatcher = buildDPImmMatcher()

func buildDPImmMatcher() *bitmatch.Matcher[Inst] {
	m := bitmatch.New[Inst]()

	m.Bind("0"+field(2)+"10000"+field(19)+field(5), func(word uint32) Inst {
		return decodeAdr(word, OpAdr)
	})
	m.Bind("1"+field(2)+"10000"+field(19)+field(5), func(word uint32) Inst {
		return decodeAdr(word, OpAdrp)
	})

	m.Bind(field(3)+"10001"+field(2)+field(12)+field(5)+field(5), decodeAddSubImm)

	m.Bind(field(1)+field(2)+"100100"+field(1)+field(6)+field(6)+field(5)+field(5), decodeLogicalImm)

	m.Bind(field(1)+field(2)+"100101"+field(2)+field(16)+field(5), decodeMoveWide)

	m.Bind(field(1)+field(2)+"100110"+field(1)+field(6)+field(6)+field(5)+field(5), decodeBitfield)

	m.Bind(field(1)+"00100111"+field(1)+field(1)+field(5)+field(6)+field(5)+field(5), decodeExtr)

	return m
}

func decodeAdr(word uint32, op Op) Inst {
	immlo := bitmatch.Extract(word, 29, 31)
	immhi := bitmatch.Extract(word, 5, 24)
	rd := bitmatch.Extract(word, 0, 5)
	imm := uint64(immhi)<<2 | uint64(immlo)
	off := signExtend(imm, 21)
	if op == OpAdrp {
		off <<= 12
	}
	return Inst{Op: op, Rd: register.X(uint8(rd)), SImm: off}
}

func decodeAddSubImm(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	setFlags := bitmatch.Extract(word, 29, 30) == 1
	shift := bitmatch.Extract(word, 22, 24)
	imm12 := uint64(bitmatch.Extract(word, 10, 22))
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	if shift == 1 {
		imm12 <<= 12
	}

	op := pickAddSubOp(isSub, setFlags)

	rdReg := register.XSp(uint8(rd))
	if setFlags {
		rdReg = register.X(uint8(rd))
	}

	return Inst{Op: opAsImm(op), Sf: sf, SetFlags: setFlags, Rd: rdReg, Rn: register.XSp(uint8(rn)), Imm: imm12}
}

// opAsImm maps the shared add/sub discriminant onto the immediate-form Op
// constants (the register-form decoders reuse pickAddSubOp too).
func opAsImm(op Op) Op {
	switch op {
	case OpAddReg:
		return OpAddImm
	case OpAddSReg:
		return OpAddSImm
	case OpSubReg:
		return OpSubImm
	case OpSubSReg:
		return OpSubSImm
	default:
		return op
	}
}

func decodeLogicalImm(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	opc := bitmatch.Extract(word, 29, 31)
	n := uint8(bitmatch.Extract(word, 22, 23))
	immr := uint8(bitmatch.Extract(word, 16, 22))
	imms := uint8(bitmatch.Extract(word, 10, 16))
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpAndImm
	rdReg := register.XSp(uint8(rd))
	switch opc {
	case 0:
		op = OpAndImm
	case 1:
		op = OpOrrImm
	case 2:
		op = OpEorImm
	default:
		op = OpAndSImm
		rdReg = register.X(uint8(rd))
	}

	return Inst{Op: op, Sf: sf, SetFlags: opc == 3, N: n, ImmR: immr, ImmS: imms, Rd: rdReg, Rn: register.X(uint8(rn))}
}

func decodeMoveWide(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	opc := bitmatch.Extract(word, 29, 31)
	hw := bitmatch.Extract(word, 21, 23)
	imm16 := uint64(bitmatch.Extract(word, 5, 21))
	rd := bitmatch.Extract(word, 0, 5)

	op := OpMovz
	switch opc {
	case 0:
		op = OpMovn
	case 2:
		op = OpMovz
	case 3:
		op = OpMovk
	}

	return Inst{Op: op, Sf: sf, Rd: register.X(uint8(rd)), Imm: imm16, Hw: uint8(hw) * 16}
}

func decodeBitfield(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	opc := bitmatch.Extract(word, 29, 31)
	n := uint8(bitmatch.Extract(word, 22, 23))
	immr := uint8(bitmatch.Extract(word, 16, 22))
	imms := uint8(bitmatch.Extract(word, 10, 16))
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpUbfm
	switch opc {
	case 0:
		op = OpSbfm
	case 1:
		op = OpBfm
	case 2:
		op = OpUbfm
	}

	return Inst{Op: op, Sf: sf, N: n, ImmR: immr, ImmS: imms, Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn))}
}

func decodeExtr(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	rm := bitmatch.Extract(word, 16, 21)
	imms := bitmatch.Extract(word, 10, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	return Inst{
		Op: OpExtr, Sf: sf,
		Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)),
		ImmS: uint8(imms),
	}
}

// ---- Branches, Exceptions, System ------------------------------------------

var branchMatcher = buildBranchMatcher()

func buildBranchMatcher() *bitmatch.Matcher[Inst] {
	m := bitmatch.New[Inst]()

	// Fully-fixed system no-ops, most specific patterns first.
	m.Bind(wordPattern(0xD503201F), func(uint32) Inst { return Inst{Op: OpNop} })
	m.Bind(wordPattern(0xD503203F), func(uint32) Inst { return Inst{Op: OpHint, Hint: HintYield} })
	m.Bind(wordPattern(0xD503205F), func(uint32) Inst { return Inst{Op: OpHint, Hint: HintWFE} })
	m.Bind(wordPattern(0xD503207F), func(uint32) Inst { return Inst{Op: OpHint, Hint: HintWFI} })
	m.Bind(wordPattern(0xD503209F), func(uint32) Inst { return Inst{Op: OpHint, Hint: HintSEV} })
	m.Bind(wordPattern(0xD50320BF), func(uint32) Inst { return Inst{Op: OpHint, Hint: HintSEVL} })
	m.Bind(wordPattern(0xD5033F5F), func(uint32) Inst { return Inst{Op: OpBarrier, Barrier: BarrierCLREX} })

	m.Bind("1101010100"+"000"+"011"+"0011"+field(4)+field(3)+"11111", func(word uint32) Inst {
		opc := bitmatch.Extract(word, 5, 8)
		b := BarrierDSB
		switch opc {
		case 0b110:
			b = BarrierISB
		case 0b101:
			b = BarrierDMB
		}
		return Inst{Op: OpBarrier, Barrier: b}
	})

	// MRS/MSR (system register move). A small explicit table covers the
	// handful of system registers this module exposes; the sysreg encoding
	// is the 15-bit o0:op1:CRn:CRm:op2 field at bits[19:5].
	m.Bind("11010101000"+"1"+field(15)+field(5), decodeMrs)
	m.Bind("11010101000"+"0"+field(15)+field(5), decodeMsr)

	m.Bind("1101011000011111000000"+field(5)+"00000", func(word uint32) Inst {
		rn := bitmatch.Extract(word, 5, 10)
		return Inst{Op: OpBr, Rn: register.X(uint8(rn))}
	})
	m.Bind("1101011000111111000000"+field(5)+"00000", func(word uint32) Inst {
		rn := bitmatch.Extract(word, 5, 10)
		return Inst{Op: OpBlr, Rn: register.X(uint8(rn))}
	})
	m.Bind("1101011001011111000000"+field(5)+"00000", func(word uint32) Inst {
		rn := bitmatch.Extract(word, 5, 10)
		return Inst{Op: OpRet, Rn: register.X(uint8(rn))}
	})

	m.Bind("11010100000"+field(16)+"00001", func(word uint32) Inst {
		imm := bitmatch.Extract(word, 5, 21)
		return Inst{Op: OpSvc, Imm: uint64(imm)}
	})
	m.Bind("11010100001"+field(16)+"00000", func(word uint32) Inst {
		imm := bitmatch.Extract(word, 5, 21)
		return Inst{Op: OpBrk, Imm: uint64(imm)}
	})

	m.Bind("0"+"00101"+field(26), func(word uint32) Inst { return decodeB(word, OpB) })
	m.Bind("1"+"00101"+field(26), func(word uint32) Inst { return decodeB(word, OpBl) })

	m.Bind(field(1)+"011010"+"0"+field(19)+field(5), func(word uint32) Inst { return decodeCbz(word, OpCbz) })
	m.Bind(field(1)+"011010"+"1"+field(19)+field(5), func(word uint32) Inst { return decodeCbz(word, OpCbnz) })

	m.Bind(field(1)+"011011"+field(1)+field(5)+field(14)+field(5), decodeTbz)

	m.Bind("0101010"+field(1)+field(19)+field(1)+field(4), decodeBCond)

	return m
}

func wordPattern(w uint32) string {
	b := make([]byte, 32)
	for i := 0; i < 32; i++ {
		if w&(1<<uint(31-i)) != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// mrsTable maps the 15-bit o0:op1:CRn:CRm:op2 system-register encoding to
// the system registers this module models. An encoding absent from this
// table decodes to OpUnknown, which Decode turns into ErrUnimplemented
// rather than silently aliasing it onto some mapped register.
var mrsTable = map[uint32]register.Id{
	24194: register.TpidrEl0, // op0=3 op1=3 CRn=13 CRm=0  op2=2
	16914: register.CurrentEl, // op0=3 op1=0 CRn=4  CRm=2  op2=2
	16384: register.MidrEl1,  // op0=3 op1=0 CRn=0  CRm=0  op2=0
	17920: register.VbarEl1,  // op0=3 op1=0 CRn=12 CRm=0  op2=0
	16514: register.CpacrEl1, // op0=3 op1=0 CRn=1  CRm=0  op2=2
}

func decodeMrs(word uint32) Inst {
	sysOp := bitmatch.Extract(word, 5, 20)
	rt := bitmatch.Extract(word, 0, 5)
	reg, ok := mrsTable[sysOp]
	if !ok {
		return Inst{Op: OpUnknown}
	}
	return Inst{Op: OpMrs, SysReg: reg, Rt: register.X(uint8(rt))}
}

func decodeMsr(word uint32) Inst {
	sysOp := bitmatch.Extract(word, 5, 20)
	rt := bitmatch.Extract(word, 0, 5)
	reg, ok := mrsTable[sysOp]
	if !ok {
		return Inst{Op: OpUnknown}
	}
	return Inst{Op: OpMsr, SysReg: reg, Rt: register.X(uint8(rt))}
}

func decodeB(word uint32, op Op) Inst {
	imm26 := bitmatch.Extract(word, 0, 26)
	off := signExtend(uint64(imm26), 26) << 2
	return Inst{Op: op, SImm: off}
}

func decodeCbz(word uint32, op Op) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	imm19 := bitmatch.Extract(word, 5, 24)
	rt := bitmatch.Extract(word, 0, 5)
	off := signExtend(uint64(imm19), 19) << 2
	return Inst{Op: op, Sf: sf, Rt: register.X(uint8(rt)), SImm: off}
}

func decodeTbz(word uint32) Inst {
	b5 := bitmatch.Extract(word, 31, 32)
	op := bitmatch.Extract(word, 24, 25)
	b40 := bitmatch.Extract(word, 19, 24)
	imm14 := bitmatch.Extract(word, 5, 19)
	rt := bitmatch.Extract(word, 0, 5)
	off := signExtend(uint64(imm14), 14) << 2
	bit := uint8(b5)<<5 | uint8(b40)

	opKind := OpTbz
	if op == 1 {
		opKind = OpTbnz
	}
	return Inst{Op: opKind, Bit: bit, Rt: register.X(uint8(rt)), SImm: off}
}

func decodeBCond(word uint32) Inst {
	imm19 := bitmatch.Extract(word, 5, 24)
	cond := bitmatch.Extract(word, 0, 4)
	off := signExtend(uint64(imm19), 19) << 2
	return Inst{Op: OpBCond, Cond: Cond(cond), SImm: off}
}

// ---- Data Processing (Register) --------------------------------------------

var dpRegMatcher = buildDPRegMatcher()

func buildDPRegMatcher() *bitmatch.Matcher[Inst] {
	m := bitmatch.New[Inst]()

	m.Bind(field(3)+"01010"+field(2)+field(1)+field(5)+field(6)+field(5)+field(5), decodeLogicalShiftedReg)

	m.Bind(field(3)+"01011"+field(2)+"0"+field(5)+field(6)+field(5)+field(5), decodeAddSubShiftedReg)
	m.Bind(field(3)+"01011"+"00"+"1"+field(5)+field(3)+field(3)+field(5)+field(5), decodeAddSubExtendedReg)

	m.Bind(field(1)+field(1)+field(1)+"11010000"+field(5)+"000000"+field(5)+field(5), decodeAddSubCarry)

	m.Bind(field(1)+field(1)+"1"+"11010010"+field(5)+field(4)+"0"+"0"+field(5)+"0"+field(4), decodeCcmpReg)
	m.Bind(field(1)+field(1)+"1"+"11010010"+field(5)+field(4)+"1"+"0"+field(5)+"0"+field(4), decodeCcmpImm)

	m.Bind(field(1)+field(1)+"0"+"11010100"+field(5)+field(4)+"0"+field(1)+field(5)+field(5), decodeCsel)

	m.Bind(field(1)+"00"+"11011"+field(3)+field(5)+field(1)+field(5)+field(5)+field(5), decodeDataProcessing3Source)

	m.Bind(field(1)+"0"+"0"+"11010110"+field(5)+field(6)+field(5)+field(5), decodeDataProcessing2Source)

	return m
}

func decodeLogicalShiftedReg(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	opc := bitmatch.Extract(word, 29, 31)
	shift := bitmatch.Extract(word, 22, 24)
	n := bitmatch.Extract(word, 21, 22)
	rm := bitmatch.Extract(word, 16, 21)
	imm6 := bitmatch.Extract(word, 10, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	var op Op
	switch {
	case opc == 0:
		op = OpAndReg
	case opc == 1:
		op = OpOrrReg
	case opc == 2:
		op = OpEorReg
	default:
		op = OpAndSReg
	}
	_ = n // the NOT-variants (BIC/ORN/EON/BICS, N=1) share the base mnemonic's lowering

	return Inst{
		Op: op, Sf: sf, SetFlags: opc == 3,
		Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)),
		Shift: ShiftType(shift), ShiftAmt: uint8(imm6),
	}
}

func decodeAddSubShiftedReg(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	setFlags := bitmatch.Extract(word, 29, 30) == 1
	shift := bitmatch.Extract(word, 22, 24)
	rm := bitmatch.Extract(word, 16, 21)
	imm6 := bitmatch.Extract(word, 10, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	return Inst{
		Op: pickAddSubOp(isSub, setFlags), Sf: sf, SetFlags: setFlags,
		Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)),
		Shift: ShiftType(shift), ShiftAmt: uint8(imm6),
	}
}

func decodeAddSubExtendedReg(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	setFlags := bitmatch.Extract(word, 29, 30) == 1
	rm := bitmatch.Extract(word, 16, 21)
	option := bitmatch.Extract(word, 13, 16)
	imm3 := bitmatch.Extract(word, 10, 13)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	// Rd and Rn allow the SP alias here (the only register-form add/sub
	// that does, e.g. "ADD SP, SP, Xm, UXTX"); setFlags forces Rd to the
	// plain zero-register alias per the architecture (CMN/CMP have no SP
	// destination).
	rdReg := register.XSp(uint8(rd))
	if setFlags {
		rdReg = register.X(uint8(rd))
	}

	return Inst{
		Op: pickAddSubOp(isSub, setFlags), Sf: sf, SetFlags: setFlags,
		Rd: rdReg, Rn: register.XSp(uint8(rn)), Rm: register.X(uint8(rm)),
		Extend: ExtendType(option), ShiftAmt: uint8(imm3), RegExtend: true,
	}
}

func pickAddSubOp(isSub, setFlags bool) Op {
	switch {
	case isSub && setFlags:
		return OpSubSReg
	case isSub:
		return OpSubReg
	case setFlags:
		return OpAddSReg
	default:
		return OpAddReg
	}
}

func decodeAddSubCarry(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	setFlags := bitmatch.Extract(word, 29, 30) == 1
	rm := bitmatch.Extract(word, 16, 21)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpAdcReg
	switch {
	case isSub && setFlags:
		op = OpSbcSReg
	case isSub:
		op = OpSbcReg
	case setFlags:
		op = OpAdcSReg
	}

	return Inst{Op: op, Sf: sf, SetFlags: setFlags, Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm))}
}

func decodeCcmpReg(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	rm := bitmatch.Extract(word, 16, 21)
	cond := bitmatch.Extract(word, 12, 16)
	rn := bitmatch.Extract(word, 5, 10)
	nzcv := bitmatch.Extract(word, 0, 4)

	op := OpCcmnReg
	if isSub {
		op = OpCcmpReg
	}
	return Inst{Op: op, Sf: sf, Cond: Cond(cond), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)), Imm: uint64(nzcv)}
}

func decodeCcmpImm(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	isSub := bitmatch.Extract(word, 30, 31) == 1
	imm5 := bitmatch.Extract(word, 16, 21)
	cond := bitmatch.Extract(word, 12, 16)
	rn := bitmatch.Extract(word, 5, 10)
	nzcv := bitmatch.Extract(word, 0, 4)

	op := OpCcmnImm
	if isSub {
		op = OpCcmpImm
	}
	return Inst{Op: op, Sf: sf, Cond: Cond(cond), Rn: register.X(uint8(rn)), Imm: uint64(imm5) | uint64(nzcv)<<8}
}

func decodeCsel(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	rm := bitmatch.Extract(word, 16, 21)
	cond := bitmatch.Extract(word, 12, 16)
	op := bitmatch.Extract(word, 30, 31)
	op2 := bitmatch.Extract(word, 10, 12)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	csel := CselSel
	switch op<<1 | op2 {
	case 0:
		csel = CselSel
	case 1:
		csel = CselInc
	case 2:
		csel = CselInv
	case 3:
		csel = CselNeg
	}

	return Inst{
		Op: OpCsel, Sf: sf, Cond: Cond(cond), CselOp: csel,
		Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)),
	}
}

func decodeDataProcessing3Source(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	op31 := bitmatch.Extract(word, 21, 24)
	rm := bitmatch.Extract(word, 16, 21)
	o0 := bitmatch.Extract(word, 15, 16)
	ra := bitmatch.Extract(word, 10, 15)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpMadd
	switch {
	case op31 == 0 && o0 == 0:
		op = OpMadd
	case op31 == 0 && o0 == 1:
		op = OpMsub
	case op31 == 2:
		op = OpSmulh
	case op31 == 6:
		op = OpUmulh
	}

	return Inst{
		Op: op, Sf: sf,
		Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm)), Ra: register.X(uint8(ra)),
	}
}

func decodeDataProcessing2Source(word uint32) Inst {
	sf := bitmatch.Extract(word, 31, 32) == 1
	rm := bitmatch.Extract(word, 16, 21)
	opcode := bitmatch.Extract(word, 10, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpUdiv
	switch opcode {
	case 0b000010:
		op = OpUdiv
	case 0b000011:
		op = OpSdiv
	case 0b001000:
		op = OpLslv
	case 0b001001:
		op = OpLsrv
	case 0b001010:
		op = OpAsrv
	case 0b001011:
		op = OpRorv
	}

	return Inst{Op: op, Sf: sf, Rd: register.X(uint8(rd)), Rn: register.X(uint8(rn)), Rm: register.X(uint8(rm))}
}

// ---- Loads and Stores -------------------------------------------------------

var loadStoreMatcher = buildLoadStoreMatcher()

func buildLoadStoreMatcher() *bitmatch.Matcher[Inst] {
	m := bitmatch.New[Inst]()

	m.Bind(field(2)+"111"+"0"+"01"+field(2)+field(12)+field(5)+field(5), decodeLoadStoreUnsignedImm)

	// Unscaled (LDUR/STUR), immediate post-indexed, and immediate
	// pre-indexed: same size/opc mnemonic space as the unsigned-offset form
	// above, distinguished by bit21=0 (vs. bits25:24="01" there) and a
	// signed 9-bit immediate plus a 2-bit index-mode field instead of the
	// unsigned imm12.
	m.Bind(field(2)+"111"+"0"+"00"+field(2)+"0"+field(9)+field(2)+field(5)+field(5), decodeLoadStoreImm9)

	m.Bind(field(2)+"101"+"0"+field(3)+field(1)+field(7)+field(5)+field(5)+field(5), decodeLoadStorePair)

	m.Bind(field(2)+"011"+"0"+"00"+field(19)+field(5), decodeLoadLiteral)

	m.Bind(field(2)+"111"+"0"+"00"+field(2)+"1"+field(5)+field(3)+field(1)+"10"+field(5)+field(5), decodeLoadStoreRegOffset)

	// 128-bit vector LDR/STR (unsigned offset, V=1). Lives in the
	// Load/Store group (not the SIMD/FP group): the V bit (26) only
	// distinguishes the register file, not the top-level dispatch group.
	m.Bind(field(2)+"111"+"1"+"01"+field(2)+field(12)+field(5)+field(5), decodeLoadStoreVec)

	return m
}

// loadStoreImmOp resolves the byte/halfword/word/doubleword LDR/STR/LDRS*
// mnemonic shared by every single-register load/store-immediate addressing
// form (unsigned offset, unscaled, pre/post-indexed) from its size/opc
// fields.
func loadStoreImmOp(size, opc uint32) Op {
	switch {
	case size == 0 && opc == 0:
		return OpStrbImm
	case size == 0 && opc == 1:
		return OpLdrbImm
	case size == 0 && opc == 2:
		return OpLdrsbImm
	case size == 1 && opc == 0:
		return OpStrhImm
	case size == 1 && opc == 1:
		return OpLdrhImm
	case size == 1 && opc == 2:
		return OpLdrshImm
	case size == 2 && opc == 0:
		return OpStrImm
	case size == 2 && opc == 1:
		return OpLdrImm
	case size == 2 && opc == 2:
		return OpLdrswImm
	case opc == 0:
		return OpStrImm
	default:
		return OpLdrImm
	}
}

func decodeLoadStoreUnsignedImm(word uint32) Inst {
	size := bitmatch.Extract(word, 30, 32)
	opc := bitmatch.Extract(word, 22, 24)
	imm12 := bitmatch.Extract(word, 10, 22)
	rn := bitmatch.Extract(word, 5, 10)
	rt := bitmatch.Extract(word, 0, 5)

	byteSize := uint8(1 << size)

	return Inst{
		Op: loadStoreImmOp(size, opc), Size: byteSize,
		Rt: register.X(uint8(rt)), Rn: register.XSp(uint8(rn)),
		SImm: int64(imm12) * int64(byteSize),
	}
}

// decodeLoadStoreImm9 decodes the signed-9-bit-immediate single-register
// load/store family: unscaled (LDUR/STUR), immediate post-indexed, and
// immediate pre-indexed addressing, selected by the idx field (bits 11:10).
// idx==0b10 is the unprivileged LDTR/STTR form, not modeled here.
func decodeLoadStoreImm9(word uint32) Inst {
	size := bitmatch.Extract(word, 30, 32)
	opc := bitmatch.Extract(word, 22, 24)
	imm9 := bitmatch.Extract(word, 12, 21)
	idx := bitmatch.Extract(word, 10, 12)
	rn := bitmatch.Extract(word, 5, 10)
	rt := bitmatch.Extract(word, 0, 5)

	if idx == 0b10 {
		return Inst{Op: OpUnknown}
	}

	byteSize := uint8(1 << size)
	off := signExtend(uint64(imm9), 9)

	return Inst{
		Op: loadStoreImmOp(size, opc), Size: byteSize,
		Rt: register.X(uint8(rt)), Rn: register.XSp(uint8(rn)),
		SImm:      off,
		WriteBack: idx == 0b01 || idx == 0b11,
		PostIndex: idx == 0b01,
	}
}

func decodeLoadStorePair(word uint32) Inst {
	opc := bitmatch.Extract(word, 30, 32)
	addrMode := bitmatch.Extract(word, 23, 26)
	isLoad := bitmatch.Extract(word, 22, 23) == 1
	imm7 := bitmatch.Extract(word, 15, 22)
	rt2 := bitmatch.Extract(word, 10, 15)
	rn := bitmatch.Extract(word, 5, 10)
	rt := bitmatch.Extract(word, 0, 5)

	scale := uint(2)
	if opc == 2 {
		scale = 3
	}
	off := signExtend(uint64(imm7), 7) << scale

	op := OpStpImm
	if isLoad {
		op = OpLdpImm
		if opc == 1 {
			op = OpLdpswImm
		}
	}

	return Inst{
		Op: op, Sf: opc != 0,
		Rt: register.X(uint8(rt)), Rt2: register.X(uint8(rt2)), Rn: register.XSp(uint8(rn)),
		SImm:      off,
		WriteBack: addrMode == 0b001 || addrMode == 0b011,
		PostIndex: addrMode == 0b001,
	}
}

func decodeLoadLiteral(word uint32) Inst {
	opc := bitmatch.Extract(word, 30, 32)
	imm19 := bitmatch.Extract(word, 5, 24)
	rt := bitmatch.Extract(word, 0, 5)
	off := signExtend(uint64(imm19), 19) << 2

	return Inst{Op: OpLdrLit, Sf: opc == 1, Rt: register.X(uint8(rt)), SImm: off}
}

func decodeLoadStoreRegOffset(word uint32) Inst {
	size := bitmatch.Extract(word, 30, 32)
	opc := bitmatch.Extract(word, 22, 24)
	rm := bitmatch.Extract(word, 16, 21)
	option := bitmatch.Extract(word, 13, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rt := bitmatch.Extract(word, 0, 5)

	byteSize := uint8(1 << size)
	op := OpStrReg
	if opc != 0 {
		op = OpLdrReg
	}

	return Inst{
		Op: op, Size: byteSize,
		Rt: register.X(uint8(rt)), Rn: register.XSp(uint8(rn)), Rm: register.X(uint8(rm)),
		Extend: ExtendType(option),
	}
}

// ---- SIMD & FP (representative subset) --------------------------------------

var simdFpMatcher = buildSimdFpMatcher()

func buildSimdFpMatcher() *bitmatch.Matcher[Inst] {
	m := bitmatch.New[Inst]()

	// FMOV (general <-> scalar FP register), 32- and 64-bit.
	m.Bind("0"+"0"+"0"+"11110"+"00"+"1"+"00"+"110"+"000000"+field(5)+field(5), func(word uint32) Inst {
		return decodeFmovGeneral(word, false, false)
	})
	m.Bind("1"+"0"+"0"+"11110"+"01"+"1"+"00"+"110"+"000000"+field(5)+field(5), func(word uint32) Inst {
		return decodeFmovGeneral(word, true, false)
	})
	m.Bind("0"+"0"+"0"+"11110"+"00"+"1"+"00"+"111"+"000000"+field(5)+field(5), func(word uint32) Inst {
		return decodeFmovGeneral(word, false, true)
	})
	m.Bind("1"+"0"+"0"+"11110"+"01"+"1"+"00"+"111"+"000000"+field(5)+field(5), func(word uint32) Inst {
		return decodeFmovGeneral(word, true, true)
	})

	// FMOV (scalar immediate).
	m.Bind(field(1)+"0"+"0"+"11110"+field(2)+"1"+field(8)+"100"+"00000"+field(5), decodeFmovImm)

	// Scalar FADD/FSUB/FMUL/FDIV.
	m.Bind("0"+"0"+"0"+"11110"+field(2)+"1"+field(5)+field(4)+"10"+field(5)+field(5), decodeFpScalarArith)

	// Three-same vector ADD/SUB (4S/2D representative arrangements: Q is a
	// don't-care field so both the 64-bit and 128-bit views match).
	m.Bind("0"+field(1)+field(1)+"01110"+field(2)+"1"+field(5)+"100001"+field(5)+field(5), decodeVecAddSub)
	// Three-same vector MUL (integer, U=0 fixed).
	m.Bind("0"+field(1)+"0"+"01110"+field(2)+"1"+field(5)+"100111"+field(5)+field(5), decodeVecMul)

	// DUP (general).
	m.Bind("0"+field(1)+"0"+"01110000"+field(4)+"1"+"0000"+"11"+field(5)+field(5), decodeDupGeneral)

	// UMOV.
	m.Bind("0"+field(1)+"0"+"01110000"+field(4)+"1"+"0011"+"11"+field(5)+field(5), decodeUmov)

	// MOVI (vector, modified immediate).
	m.Bind("0"+field(1)+field(1)+"0111100000"+field(3)+field(4)+"0"+"1"+field(5)+field(5), decodeMoviVec)

	return m
}

func decodeFmovGeneral(word uint32, is64 bool, toFpr bool) Inst {
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)
	if toFpr {
		return Inst{Op: OpFmovGprToFpr, Sf: is64, Rn: register.X(uint8(rn)), Rd: register.V(uint8(rd))}
	}
	return Inst{Op: OpFmovFprToGpr, Sf: is64, Rn: register.V(uint8(rn)), Rd: register.X(uint8(rd))}
}

func decodeFmovImm(word uint32) Inst {
	is64 := bitmatch.Extract(word, 22, 23) == 1
	imm8 := bitmatch.Extract(word, 13, 21)
	rd := bitmatch.Extract(word, 0, 5)
	return Inst{Op: OpFmovFprImm, Sf: is64, Rd: register.V(uint8(rd)), Imm: uint64(imm8)}
}

func decodeFpScalarArith(word uint32) Inst {
	is64 := bitmatch.Extract(word, 22, 23) == 1
	rm := bitmatch.Extract(word, 16, 21)
	opcode := bitmatch.Extract(word, 12, 16)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpFaddScalar
	switch opcode {
	case 0b0010:
		op = OpFaddScalar
	case 0b0011:
		op = OpFsubScalar
	case 0b0000:
		op = OpFmulScalar
	case 0b0001:
		op = OpFdivScalar
	}

	return Inst{Op: op, Sf: is64, Rd: register.V(uint8(rd)), Rn: register.V(uint8(rn)), Rm: register.V(uint8(rm))}
}

func decodeVecAddSub(word uint32) Inst {
	q := bitmatch.Extract(word, 30, 31) == 1
	size := bitmatch.Extract(word, 22, 24)
	rm := bitmatch.Extract(word, 16, 21)
	u := bitmatch.Extract(word, 29, 30)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	op := OpVaddVec
	if u == 1 {
		op = OpVsubVec
	}

	return Inst{Op: op, Q: q, Arrangement: vecLanes(q, uint8(size)), Rd: register.V(uint8(rd)), Rn: register.V(uint8(rn)), Rm: register.V(uint8(rm))}
}

func decodeVecMul(word uint32) Inst {
	q := bitmatch.Extract(word, 30, 31) == 1
	size := bitmatch.Extract(word, 22, 24)
	rm := bitmatch.Extract(word, 16, 21)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	return Inst{Op: OpVmulVec, Q: q, Arrangement: vecLanes(q, uint8(size)), Rd: register.V(uint8(rd)), Rn: register.V(uint8(rn)), Rm: register.V(uint8(rm))}
}

func vecLanes(q bool, size uint8) uint8 {
	width := uint8(8) << size
	total := uint8(64)
	if q {
		total = 128
	}
	return total / width
}

func decodeDupGeneral(word uint32) Inst {
	imm5 := bitmatch.Extract(word, 16, 21)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)
	q := bitmatch.Extract(word, 30, 31) == 1

	return Inst{Op: OpDupGen, Q: q, Size: elemSizeFromImm5(uint8(imm5)), Rd: register.V(uint8(rd)), Rn: register.X(uint8(rn))}
}

func decodeUmov(word uint32) Inst {
	imm5 := bitmatch.Extract(word, 16, 21)
	rn := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)
	q := bitmatch.Extract(word, 30, 31) == 1

	return Inst{Op: OpUmov, Sf: q, Size: elemSizeFromImm5(uint8(imm5)), Rd: register.X(uint8(rd)), Rn: register.V(uint8(rn))}
}

// decodeMoviVec decodes MOVI (vector, modified immediate): Rd gets imm8
// (split as abc:defgh across the cmode field) expanded per cmode/op into a
// replicated 32/64-bit pattern and broadcast across the register.
func decodeMoviVec(word uint32) Inst {
	q := bitmatch.Extract(word, 30, 31) == 1
	op := bitmatch.Extract(word, 29, 30)
	abc := bitmatch.Extract(word, 16, 19)
	cmode := bitmatch.Extract(word, 12, 16)
	defgh := bitmatch.Extract(word, 5, 10)
	rd := bitmatch.Extract(word, 0, 5)

	imm8 := abc<<5 | defgh

	return Inst{
		Op: OpMoviVec, Q: q, MoviOp: uint8(op), Cmode: uint8(cmode),
		Imm: uint64(imm8), Rd: register.V(uint8(rd)),
	}
}

func elemSizeFromImm5(imm5 uint8) uint8 {
	switch {
	case imm5&1 != 0:
		return 8
	case imm5&2 != 0:
		return 16
	case imm5&4 != 0:
		return 32
	default:
		return 64
	}
}

func decodeLoadStoreVec(word uint32) Inst {
	opc := bitmatch.Extract(word, 22, 24)
	imm12 := bitmatch.Extract(word, 10, 22)
	rn := bitmatch.Extract(word, 5, 10)
	rt := bitmatch.Extract(word, 0, 5)

	op := OpStrVec
	if opc&1 != 0 {
		op = OpLdrVec
	}

	return Inst{Op: op, Size: 16, Rt: register.V(uint8(rt)), Rn: register.XSp(uint8(rn)), Imm: uint64(imm12) * 16}
}
