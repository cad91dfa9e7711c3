// Package compiler lowers one decoded insts.Inst into one ir.BasicBlock. A
// Compile call is a pure function of its argument: it never reads CPU or
// memory state, only the instruction's own fields (see the "compiler is a
// pure function of the instruction" design note this package is built
// around).
package compiler

import "github.com/sarchlab/a64dbt/ir"

// signExtend treats the low w bits of v as a two's-complement value and
// sign-extends them into a full int64.
func signExtend(v uint64, w uint) int64 {
	shift := 64 - w
	return int64(v<<shift) >> shift
}

// ones returns the low-n-bit mask. n may be 0 (mask 0) through 64.
func ones(n uint) uint64 {
	if n == 0 {
		return 0
	}
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// ror right-rotates x within a size-bit field by shift positions.
func ror(x uint64, shift, size uint) uint64 {
	if size == 0 {
		return x
	}
	m := shift % size
	x &= ones(size)
	if m == 0 {
		return x
	}
	return (x >> m) | ((x << (size - m)) & ones(size))
}

// replicate concatenates the low size-bit field of x with itself n times,
// producing an n*size-bit value (ARM's Replicate pseudocode primitive).
func replicate(x uint64, n, size uint) uint64 {
	x &= ones(size)
	var result uint64
	for i := uint(0); i < n; i++ {
		result = (result << size) | x
	}
	return result
}

// highestSetBit returns the index of x's most significant set bit. x must
// be nonzero.
func highestSetBit(x uint64) uint {
	n := uint(0)
	for x > 1 {
		x >>= 1
		n++
	}
	return n
}

// decodeBitMasks is ARM's DecodeBitMasks: given the N/imms/immr fields of a
// logical-immediate or bitfield encoding it returns the (wmask, tmask) pair
// used to build the operand and, for bitfield ops, the target mask. m is
// the result register width (32 or 64). It always computes both masks and
// does not reject reserved encodings such as a logical immediate's
// all-ones field.
func decodeBitMasks(n, imms, immr uint8, m uint8) (wmask, tmask uint64) {
	immNImms := (uint64(n) << 6) | uint64(^imms&0x3f)
	length := highestSetBit(immNImms)
	levels := ones(length)

	s := uint64(imms) & levels
	r := uint64(immr) & levels
	diff := (s - r) & ones(length)

	esize := uint(1) << length
	d := diff & ones(length)

	welem := ones(uint(s) + 1)
	telem := ones(uint(d) + 1)

	wmask = replicate(ror(welem, uint(r), esize), uint(m)/esize, esize)
	tmask = replicate(telem, uint(m)/esize, esize)
	return wmask, tmask
}

const (
	bitN = 63
	bitZ = 62
	bitC = 61
	bitV = 60
)

// flagBit reads a single pstate bit as a U64 0/1 value.
func flagBit(bit uint) ir.Operand {
	return ir.IrOp(ir.And(ir.U64,
		ir.IrOp(ir.LShr(ir.U64, ir.FlagOp(), ir.ImmOp(ir.U64, uint64(bit)))),
		ir.ImmOp(ir.U64, 1)))
}

func cmpEqU64(op ir.Operand, imm uint64) ir.Operand {
	return ir.IrOp(ir.CmpEq(op, ir.ImmOp(ir.U64, imm)))
}

// conditionHolds builds the IR boolean operand testing whether the 4-bit
// AArch64 condition cond currently holds, per ARM's ConditionHolds: bit 0
// inverts the base test, except 0b1111 which is always-true (not
// inverted).
func conditionHolds(cond uint8) ir.Operand {
	masked := (cond & 0b1110) >> 1
	invert := cond&1 == 1 && cond != 0b1111

	var result ir.Operand
	switch masked {
	case 0b000: // EQ/NE: Z==1
		result = cmpEqU64(flagBit(bitZ), 1)
	case 0b001: // CS/CC: C==1
		result = cmpEqU64(flagBit(bitC), 1)
	case 0b010: // MI/PL: N==1
		result = cmpEqU64(flagBit(bitN), 1)
	case 0b011: // VS/VC: V==1
		result = cmpEqU64(flagBit(bitV), 1)
	case 0b100: // HI/LS: C==1 && Z==0
		result = ir.IrOp(ir.And(ir.Bool,
			cmpEqU64(flagBit(bitC), 1),
			cmpEqU64(flagBit(bitZ), 0)))
	case 0b101: // GE/LT: N==V
		result = ir.IrOp(ir.CmpEq(flagBit(bitN), flagBit(bitV)))
	case 0b110: // GT/LE: N==V && Z==0
		result = ir.IrOp(ir.And(ir.Bool,
			ir.IrOp(ir.CmpEq(flagBit(bitN), flagBit(bitV))),
			cmpEqU64(flagBit(bitZ), 0)))
	case 0b111: // AL
		result = ir.ImmOp(ir.Bool, 1)
	default:
		panic("compiler: conditionHolds: unreachable condition field")
	}

	if invert {
		return ir.IrOp(ir.Not(ir.Bool, result))
	}
	return result
}

// genIpRelative builds Ip + offset (or Ip - |offset|) without ever
// materializing a negative immediate, since Operand.Imm is unsigned.
func genIpRelative(offset int64) ir.Expr {
	if offset >= 0 {
		return ir.Add(ir.U64, ir.IpOp(), ir.ImmOp(ir.U64, uint64(offset)))
	}
	return ir.Sub(ir.U64, ir.IpOp(), ir.ImmOp(ir.U64, uint64(-offset)))
}

// extendReg builds LSL(shift) then zero- or sign-extend to widthBits,
// applied to a register already read as an Operand at its natural width.
func extendReg(reg ir.Operand, unsigned bool, srcBits uint, shift uint8, widthBits uint) ir.Operand {
	srcType := intTypeOfWidth(srcBits, !unsigned)
	shifted := ir.IrOp(ir.LShl(srcType, reg, ir.ImmOp(srcType, uint64(shift))))
	dstType := intTypeOfWidth(widthBits, false)
	if unsigned {
		return ir.IrOp(ir.ZextCast(dstType, shifted))
	}
	return ir.IrOp(ir.SextCast(dstType, shifted))
}

func intTypeOfWidth(bits uint, signed bool) ir.Type {
	switch {
	case bits <= 8:
		if signed {
			return ir.I8
		}
		return ir.U8
	case bits <= 16:
		if signed {
			return ir.I16
		}
		return ir.U16
	case bits <= 32:
		if signed {
			return ir.I32
		}
		return ir.U32
	default:
		if signed {
			return ir.I64
		}
		return ir.U64
	}
}

// advSimdExpandImm is ARM's AdvSIMDExpandImm: given the op/cmode/imm8
// fields of a modified-immediate vector move it expands imm8 into the
// appropriate replicated 32/64-bit pattern.
func advSimdExpandImm(op uint8, cmode uint8, imm8 uint8) uint64 {
	imm := uint64(imm8)
	cmode0 := cmode & 1

	switch cmode >> 1 {
	case 0b000:
		return replicate(imm, 2, 32)
	case 0b001:
		return replicate(imm<<8, 2, 32)
	case 0b010:
		return replicate(imm<<16, 2, 32)
	case 0b011:
		return replicate(imm<<24, 2, 32)
	case 0b100:
		return replicate(imm, 4, 16)
	case 0b101:
		return replicate(imm<<8, 4, 16)
	case 0b110:
		if cmode0 == 0 {
			return replicate(imm<<8|ones(8), 2, 32)
		}
		return replicate(imm<<16|ones(16), 2, 32)
	case 0b111:
		switch {
		case cmode0 == 0 && op == 0:
			return replicate(imm, 8, 8)
		case cmode0 == 0 && op == 1:
			var r uint64
			for i := 0; i < 8; i++ {
				r |= replicate(bitAt(imm, uint(7-i)), 8, 1) << uint(56-8*i)
			}
			return r
		case cmode0 == 1 && op == 0:
			a := bitAt(imm, 7) << 31
			b := (^bitAt(imm, 6) & 1) << 30
			c := replicate(bitAt(imm, 6), 5, 1) << 25
			d := (imm & 0b111111) << 19
			imm32 := a | b | c | d
			return replicate(imm32, 2, 32)
		case cmode0 == 1 && op == 1:
			a := bitAt(imm, 7) << 63
			b := (^bitAt(imm, 6) & 1) << 62
			c := replicate(bitAt(imm, 6), 8, 1) << 54
			d := (imm & 0b111111) << 48
			return a | b | c | d
		default:
			panic("compiler: advSimdExpandImm: unreachable cmode/op combination")
		}
	default:
		panic("compiler: advSimdExpandImm: unreachable cmode field")
	}
}

func bitAt(v uint64, idx uint) uint64 {
	return (v >> idx) & 1
}

// vfpExpandImm is ARM's VFPExpandImm: expands an 8-bit float-immediate
// encoding into a full-width IEEE-754 bit pattern (32 or 64 bits).
func vfpExpandImm(imm8 uint8, bits uint) uint64 {
	e := uint(8)
	if bits == 64 {
		e = 11
	}
	f := bits - e - 1

	sign := uint64(imm8>>7) & 1
	b6 := uint64(imm8>>6) & 1
	notB6 := b6 ^ 1
	repl := replicate(b6, e-3, 1)
	bits54 := uint64(imm8>>4) & 0b11

	exp := (notB6 << (e - 1)) | (repl << 2) | bits54
	frac := uint64(imm8&0xF) << (f - 4)

	return (sign << (bits - 1)) | (exp << f) | frac
}
