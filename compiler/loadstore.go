package compiler

import (
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/register"
)

// loadAddr builds Rn + Imm (Imm already scaled by the decoder), used only by
// the vector LDR/STR unsigned-offset form in simd.go; the single-register
// forms below carry a signed offset plus write-back instead.
func loadAddr(inst insts.Inst) ir.Operand {
	return ir.IrOp(ir.Add(ir.U64, ir.GprOp(ir.U64, inst.Rn), ir.ImmOp(ir.U64, inst.Imm)))
}

// loadStoreImmAddr resolves the addressing-time address for a single-register
// load/store-immediate form: unsigned-offset and unscaled forms address at
// Rn+SImm directly; post-indexed addresses at Rn and defers the +SImm to the
// write-back below; pre-indexed addresses at Rn+SImm too, same as
// unsigned-offset/unscaled, the difference being the write-back that follows.
func loadStoreImmAddr(inst insts.Inst) ir.Expr {
	off := inst.SImm
	if inst.PostIndex {
		off = 0
	}
	return genIpRelativeBase(inst.Rn, off)
}

// appendWriteBack emits Rn += SImm for a pre/post-indexed load/store.
func appendWriteBack(b *ir.BasicBlock, inst insts.Inst) {
	if !inst.WriteBack {
		return
	}
	wb := ir.Add(ir.U64, ir.GprOp(ir.U64, inst.Rn), ir.ImmOp(ir.U64, uint64(inst.SImm)))
	b.Append(wb, ir.GprDest(ir.U64, inst.Rn))
}

func compileLoadImm(b *ir.BasicBlock, inst insts.Inst) {
	var t ir.Type
	signed := false
	switch inst.Op {
	case insts.OpLdrbImm:
		t = ir.U8
	case insts.OpLdrhImm:
		t = ir.U16
	case insts.OpLdrsbImm:
		t, signed = ir.I8, true
	case insts.OpLdrshImm:
		t, signed = ir.I16, true
	case insts.OpLdrswImm:
		t, signed = ir.I32, true
	default: // OpLdrImm
		t = sizeType(inst.Size)
	}

	load := ir.IrOp(ir.Load(t, ir.IrOp(loadStoreImmAddr(inst))))
	var e ir.Expr
	if signed {
		e = ir.SextCast(ir.U64, load)
	} else {
		e = ir.ZextCast(ir.U64, load)
	}
	b.Append(e, ir.GprDest(ir.U64, inst.Rt))

	appendWriteBack(b, inst)
}

func compileStoreImm(b *ir.BasicBlock, inst insts.Inst) {
	var t ir.Type
	switch inst.Op {
	case insts.OpStrbImm:
		t = ir.U8
	case insts.OpStrhImm:
		t = ir.U16
	default: // OpStrImm
		t = sizeType(inst.Size)
	}

	val := storeOperand(inst.Rt, t)
	b.Append(ir.Value(val), ir.MemoryIrDest(t, loadStoreImmAddr(inst)))

	appendWriteBack(b, inst)
}

// pairElemType resolves the per-element type of an LDP/STP access: LDPSW's
// pair is always a 4-byte signed element regardless of the encoding's
// reused Sf bit; otherwise Sf selects the W/X (4/8-byte) pair width.
func pairElemType(inst insts.Inst) ir.Type {
	if inst.Op == insts.OpLdpswImm {
		return ir.I32
	}
	return gprType(inst.Sf)
}

func compileLoadPair(b *ir.BasicBlock, inst insts.Inst) {
	t := pairElemType(inst)
	elemBytes := int64(t.Bits() / 8)

	base := inst.Rn
	preOffs := inst.SImm
	if inst.PostIndex {
		preOffs = 0
	}

	addr1 := ir.IrOp(genIpRelativeBase(base, preOffs))
	addr2 := ir.IrOp(genIpRelativeBase(base, preOffs+elemBytes))

	e1 := sextOrZext(inst.Op == insts.OpLdpswImm, ir.IrOp(ir.Load(t, addr1)))
	b.Append(e1, ir.GprDest(ir.U64, inst.Rt))

	e2 := sextOrZext(inst.Op == insts.OpLdpswImm, ir.IrOp(ir.Load(t, addr2)))
	b.Append(e2, ir.GprDest(ir.U64, inst.Rt2))

	if inst.WriteBack {
		wb := ir.Add(ir.U64, ir.GprOp(ir.U64, base), ir.ImmOp(ir.U64, uint64(inst.SImm)))
		b.Append(wb, ir.GprDest(ir.U64, base))
	}
}

func compileStorePair(b *ir.BasicBlock, inst insts.Inst) {
	t := pairElemType(inst)
	elemBytes := int64(t.Bits() / 8)

	base := inst.Rn
	preOffs := inst.SImm
	if inst.PostIndex {
		preOffs = 0
	}

	b.Append(ir.Value(storeOperand(inst.Rt, t)), ir.MemoryRelI64Dest(t, base, preOffs))
	b.Append(ir.Value(storeOperand(inst.Rt2, t)), ir.MemoryRelI64Dest(t, base, preOffs+elemBytes))

	if inst.WriteBack {
		wb := ir.Add(ir.U64, ir.GprOp(ir.U64, base), ir.ImmOp(ir.U64, uint64(inst.SImm)))
		b.Append(wb, ir.GprDest(ir.U64, base))
	}
}

func compileLoadLiteral(b *ir.BasicBlock, inst insts.Inst) {
	e := ir.Load(ir.U64, ir.IrOp(genIpRelative(inst.SImm)))
	b.Append(e, ir.GprDest(ir.U64, inst.Rt))
}

func compileLoadRegOffset(b *ir.BasicBlock, inst insts.Inst) {
	t := sizeType(inst.Size)
	addr := ir.IrOp(regOffsetAddr(inst))
	e := ir.ZextCast(ir.U64, ir.IrOp(ir.Load(t, addr)))
	b.Append(e, ir.GprDest(ir.U64, inst.Rt))
}

func compileStoreRegOffset(b *ir.BasicBlock, inst insts.Inst) {
	t := sizeType(inst.Size)
	b.Append(ir.Value(storeOperand(inst.Rt, t)), ir.MemoryIrDest(t, regOffsetAddr(inst)))
}

// regOffsetAddr builds Rn + extend(Rm, option) for the register-offset
// load/store forms. The extend is always applied at index-shift 0 (this
// module's supported subset never carries LSL#n on these).
func regOffsetAddr(inst insts.Inst) ir.Expr {
	unsigned, srcBits := extendKindBits(inst.Extend)
	rm := ir.GprOp(intTypeOfWidth(srcBits, !unsigned), inst.Rm)
	offset := extendReg(rm, unsigned, srcBits, 0, 64)
	return ir.Add(ir.U64, ir.GprOp(ir.U64, inst.Rn), offset)
}

// storeOperand reads reg at type t, substituting an immediate 0 for the
// architectural zero register (a GprOp on register.Xzr reads 0 as well,
// since cpu.State.ReadGpr returns 0 for it).
func storeOperand(reg register.Id, t ir.Type) ir.Operand {
	if reg == register.Xzr {
		return ir.ImmOp(t, 0)
	}
	return ir.GprOp(t, reg)
}

func sizeType(byteSize uint8) ir.Type {
	switch byteSize {
	case 1:
		return ir.U8
	case 2:
		return ir.U16
	case 4:
		return ir.U32
	default:
		return ir.U64
	}
}

func sextOrZext(signed bool, a ir.Operand) ir.Expr {
	if signed {
		return ir.SextCast(ir.U64, a)
	}
	return ir.ZextCast(ir.U64, a)
}

// genIpRelativeBase builds base + offset (or base - |offset|), mirroring
// genIpRelative's IP-relative helper but against an arbitrary GPR base.
func genIpRelativeBase(base register.Id, offset int64) ir.Expr {
	if offset >= 0 {
		return ir.Add(ir.U64, ir.GprOp(ir.U64, base), ir.ImmOp(ir.U64, uint64(offset)))
	}
	return ir.Sub(ir.U64, ir.GprOp(ir.U64, base), ir.ImmOp(ir.U64, uint64(-offset)))
}
