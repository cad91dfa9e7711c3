package compiler

import (
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/register"
)

func compileB(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(genIpRelative(inst.SImm), ir.PcDest())
}

func compileBl(b *ir.BasicBlock, inst insts.Inst) {
	ret := ir.Add(ir.U64, ir.IpOp(), ir.ImmOp(ir.U64, 4))
	b.Append(ret, ir.GprDest(ir.U64, register.X(30)))
	b.Append(genIpRelative(inst.SImm), ir.PcDest())
}

func compileBCond(b *ir.BasicBlock, inst insts.Inst) {
	taken := ir.IrOp(genIpRelative(inst.SImm))
	fallthru := ir.IrOp(genIpRelative(4))
	e := ir.If(ir.U64, conditionHolds(uint8(inst.Cond)), taken, fallthru)
	b.Append(e, ir.PcDest())
}

// compileCbz lowers CBZ/CBNZ: branch to the offset if Rt is (not) zero, the
// sense flipped by swapping the If's then/else operands.
func compileCbz(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	isZero := cmpEqU64(ir.GprOp(t, inst.Rt), 0)

	taken := ir.IrOp(genIpRelative(inst.SImm))
	fallthru := ir.IrOp(genIpRelative(4))

	var e ir.Expr
	if inst.Op == insts.OpCbz {
		e = ir.If(ir.U64, isZero, taken, fallthru)
	} else {
		e = ir.If(ir.U64, isZero, fallthru, taken)
	}
	b.Append(e, ir.PcDest())
}

// compileTbz lowers TBZ/TBNZ: TBZ branches to the offset if bit Bit of Rt
// is clear, TBNZ if it is set.
func compileTbz(b *ir.BasicBlock, inst insts.Inst) {
	bitVal := ir.IrOp(ir.And(ir.U64,
		ir.IrOp(ir.LShr(ir.U64, ir.GprOp(ir.U64, inst.Rt), ir.ImmOp(ir.U64, uint64(inst.Bit)))),
		ir.ImmOp(ir.U64, 1)))
	isZero := cmpEqU64(bitVal, 0)

	taken := ir.IrOp(genIpRelative(inst.SImm))
	fallthru := ir.IrOp(genIpRelative(4))

	var e ir.Expr
	if inst.Op == insts.OpTbz {
		e = ir.If(ir.U64, isZero, taken, fallthru)
	} else {
		e = ir.If(ir.U64, isZero, fallthru, taken)
	}
	b.Append(e, ir.PcDest())
}

func compileBr(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Value(ir.GprOp(ir.U64, inst.Rn)), ir.PcDest())
}

func compileBlr(b *ir.BasicBlock, inst insts.Inst) {
	ret := ir.Add(ir.U64, ir.IpOp(), ir.ImmOp(ir.U64, 4))
	b.Append(ret, ir.GprDest(ir.U64, register.X(30)))
	b.Append(ir.Value(ir.GprOp(ir.U64, inst.Rn)), ir.PcDest())
}

func compileRet(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Value(ir.GprOp(ir.U64, inst.Rn)), ir.PcDest())
}

func compileSvc(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Nop(), ir.SystemCallDest(inst.Imm))
}

func compileBrk(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Nop(), ir.ExitDest())
}

func compileMrs(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Value(ir.SysOp(ir.U64, inst.SysReg)), ir.GprDest(ir.U64, inst.Rt))
}

func compileMsr(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Value(ir.GprOp(ir.U64, inst.Rt)), ir.SysDest(ir.U64, inst.SysReg))
}
