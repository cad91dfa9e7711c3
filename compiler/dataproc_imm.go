package compiler

import (
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/register"
)

func compileAdr(b *ir.BasicBlock, inst insts.Inst, page bool) {
	rel := genIpRelative(inst.SImm)
	if page {
		rel.A = ir.IrOp(ir.And(ir.U64, ir.IpOp(), ir.ImmOp(ir.U64, ^uint64(0xFFF))))
	}
	e := zext64(rel)
	b.Append(e, ir.GprDest(ir.U64, inst.Rd))
}

func compileAddSubImm(b *ir.BasicBlock, inst insts.Inst, isSub, setFlags bool) {
	t := gprType(inst.Sf)
	rn := ir.GprOp(t, inst.Rn)
	imm := ir.ImmOp(t, inst.Imm)

	var e ir.Expr
	if setFlags {
		if isSub {
			e = ir.Subc(t, rn, imm)
		} else {
			e = ir.Addc(t, rn, imm)
		}
	} else {
		if isSub {
			e = ir.Sub(t, rn, imm)
		} else {
			e = ir.Add(t, rn, imm)
		}
	}

	// ADDS/SUBS alias CMN/CMP when Rd is the zero register: the flag side
	// effect still runs, but the arithmetic result is discarded.
	dest := ir.GprDest(ir.U64, inst.Rd)
	if setFlags && inst.Rd == register.Xzr {
		dest = ir.NoneDest()
	}
	b.Append(zext64(e), dest)
}

func compileLogicalImm(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	m := uint8(widthBits(inst.Sf))
	wmask, _ := decodeBitMasks(inst.N, inst.ImmS, inst.ImmR, m)

	rn := ir.GprOp(t, inst.Rn)
	imm := ir.ImmOp(t, wmask)

	var e ir.Expr
	switch inst.Op {
	case insts.OpAndImm, insts.OpAndSImm:
		e = ir.And(t, rn, imm)
	case insts.OpOrrImm:
		e = ir.Or(t, rn, imm)
	case insts.OpEorImm:
		e = ir.Xor(t, rn, imm)
	}

	b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
}

func compileMoveWide(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	shifted := inst.Imm << inst.Hw

	switch inst.Op {
	case insts.OpMovz:
		b.Append(ir.Value(ir.ImmOp(ir.U64, shifted)), ir.GprDest(ir.U64, inst.Rd))
	case insts.OpMovn:
		v := ^shifted
		if !inst.Sf {
			v &= 0xFFFFFFFF
		}
		b.Append(ir.Value(ir.ImmOp(ir.U64, v)), ir.GprDest(ir.U64, inst.Rd))
	case insts.OpMovk:
		mask := ^(uint64(0xFFFF) << inst.Hw)
		e := ir.Or(t,
			ir.IrOp(ir.And(t, ir.GprOp(t, inst.Rd), ir.ImmOp(t, mask))),
			ir.ImmOp(t, shifted))
		b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
	}
}

func compileBitfield(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	m := uint8(widthBits(inst.Sf))
	wmask, tmask := decodeBitMasks(inst.N, inst.ImmS, inst.ImmR, m)

	src := ir.GprOp(t, inst.Rn)
	r := ir.ImmOp(t, uint64(inst.ImmR))

	bot := ir.And(t, ir.IrOp(ir.Rotr(t, src, r)), ir.ImmOp(t, wmask))

	switch inst.Op {
	case insts.OpUbfm:
		e := ir.And(t, ir.IrOp(bot), ir.ImmOp(t, tmask))
		b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
	case insts.OpSbfm:
		top := replicateSignBit(inst.Rn, t, inst.ImmS)
		lhs := ir.And(t, top, ir.ImmOp(t, ^tmask))
		rhs := ir.And(t, ir.IrOp(bot), ir.ImmOp(t, tmask))
		e := ir.Or(t, ir.IrOp(lhs), ir.IrOp(rhs))
		b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
	case insts.OpBfm:
		dst := ir.GprOp(t, inst.Rd)
		lhs := ir.And(t, dst, ir.ImmOp(t, ^tmask))
		rhs := ir.And(t, ir.IrOp(bot), ir.ImmOp(t, tmask))
		e := ir.Or(t, ir.IrOp(lhs), ir.IrOp(rhs))
		b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
	}
}

// compileExtr lowers EXTR: Rd gets an n-bit window of the 2n-bit
// concatenation Rn:Rm starting at bit `lsb` (ARM's ExtractRegister). With
// lsb==0 the window is just Rm; otherwise it is the high (n-lsb) bits of Rm
// shifted right by lsb, with the low lsb bits of Rn shifted up to fill in
// above them.
func compileExtr(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	n := widthBits(inst.Sf)
	lsb := uint64(inst.ImmS)

	low := ir.LShr(t, ir.GprOp(t, inst.Rm), ir.ImmOp(t, lsb))
	if lsb == 0 {
		b.Append(zext64(low), ir.GprDest(ir.U64, inst.Rd))
		return
	}

	high := ir.LShl(t, ir.GprOp(t, inst.Rn), ir.ImmOp(t, uint64(n)-lsb))
	e := ir.Or(t, ir.IrOp(high), ir.IrOp(low))
	b.Append(zext64(e), ir.GprDest(ir.U64, inst.Rd))
}

// replicateSignBit builds the operand SBFM's top half needs: bit `bit` of
// reg, replicated across every bit of a t-wide value (all-0s or all-1s),
// via an If on a Bool test of that single isolated bit.
func replicateSignBit(reg register.Id, t ir.Type, bit uint8) ir.Operand {
	shifted := ir.IrOp(ir.LShr(t, ir.GprOp(t, reg), ir.ImmOp(t, uint64(bit))))
	isolated := ir.IrOp(ir.And(t, shifted, ir.ImmOp(t, 1)))
	cond := ir.IrOp(ir.CmpNe(isolated, ir.ImmOp(t, 0)))
	return ir.IrOp(ir.If(t, cond, ir.ImmOp(t, t.Mask()), ir.ImmOp(t, 0)))
}
