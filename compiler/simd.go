package compiler

import (
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
)

func fpType(is64 bool) ir.Type {
	if is64 {
		return ir.F64
	}
	return ir.F32
}

func compileFmovGprToFpr(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	b.Append(ir.Value(ir.GprOp(t, inst.Rn)), ir.FprDest(t, inst.Rd))
}

func compileFmovFprToGpr(b *ir.BasicBlock, inst insts.Inst) {
	t := gprType(inst.Sf)
	e := zext64(ir.Value(ir.FprOp(t, inst.Rn)))
	b.Append(e, ir.GprDest(ir.U64, inst.Rd))
}

func compileFmovFprImm(b *ir.BasicBlock, inst insts.Inst) {
	bits := uint(32)
	if inst.Sf {
		bits = 64
	}
	t := fpType(inst.Sf)
	val := vfpExpandImm(uint8(inst.Imm), bits)
	b.Append(ir.Value(ir.ImmOp(t, val)), ir.FprDest(t, inst.Rd))
}

func compileFpScalarArith(b *ir.BasicBlock, inst insts.Inst) {
	t := fpType(inst.Sf)
	rn := ir.FprOp(t, inst.Rn)
	rm := ir.FprOp(t, inst.Rm)

	var e ir.Expr
	switch inst.Op {
	case insts.OpFaddScalar:
		e = ir.Add(t, rn, rm)
	case insts.OpFsubScalar:
		e = ir.Sub(t, rn, rm)
	case insts.OpFmulScalar:
		e = ir.Mul(t, rn, rm)
	case insts.OpFdivScalar:
		e = ir.Div(t, rn, rm)
	}
	b.Append(e, ir.FprDest(t, inst.Rd))
}

// vecElemType derives the per-lane element type of a three-same vector op
// from its Q bit and lane count (the decoder records lane count, not raw
// element size, since that's all the lowering needs).
func vecElemType(inst insts.Inst) ir.Type {
	total := uint(64)
	if inst.Q {
		total = 128
	}
	elemBits := total / uint(inst.Arrangement)

	var elem ir.ElemKind
	switch elemBits {
	case 8:
		elem = ir.ElemU8
	case 16:
		elem = ir.ElemU16
	case 32:
		elem = ir.ElemU32
	default:
		elem = ir.ElemU64
	}
	return ir.Vec(elem, inst.Arrangement)
}

func compileVecArith(b *ir.BasicBlock, inst insts.Inst) {
	t := vecElemType(inst)
	rn := ir.FprOp(t, inst.Rn)
	rm := ir.FprOp(t, inst.Rm)

	var e ir.Expr
	switch inst.Op {
	case insts.OpVaddVec:
		e = ir.Add(t, rn, rm)
	case insts.OpVsubVec:
		e = ir.Sub(t, rn, rm)
	case insts.OpVmulVec:
		e = ir.Mul(t, rn, rm)
	}
	b.Append(e, ir.FprDest(t, inst.Rd))
}

// compileDupGeneral lowers DUP (general): broadcasts Rn's low esize bits
// into every lane of Rd, one FprSlot write per lane (mirroring how the
// executor composes a vector register out of its slots).
func compileDupGeneral(b *ir.BasicBlock, inst insts.Inst) {
	t := elemScalarType(inst.Size)
	total := uint(64)
	if inst.Q {
		total = 128
	}
	lanes := total / uint(inst.Size)

	for i := uint(0); i < lanes; i++ {
		b.Append(ir.Value(ir.GprOp(t, inst.Rn)), ir.FprSlotDest(t, inst.Rd, uint8(i)))
	}
}

// compileUmov lowers UMOV: moves lane 0 of Rn into Rd, zero-extended. This
// module's decoder does not track the vector-index field, so only the
// first lane is ever read.
func compileUmov(b *ir.BasicBlock, inst insts.Inst) {
	t := elemScalarType(inst.Size)
	e := zext64(ir.Value(ir.FprOp(t, inst.Rn)))
	b.Append(e, ir.GprDest(ir.U64, inst.Rd))
}

func elemScalarType(bits uint8) ir.Type {
	return sizeType(bits / 8)
}

// rawVecType is the type used for whole-128-bit-register vector loads and
// stores: its element shape is irrelevant since Type.Bits() always reports
// 128 for any Vec.
var rawVecType = ir.Vec(ir.ElemU8, 16)

func compileLoadVec(b *ir.BasicBlock, inst insts.Inst) {
	e := ir.Load(rawVecType, loadAddr(inst))
	b.Append(e, ir.FprDest(rawVecType, inst.Rt))
}

func compileStoreVec(b *ir.BasicBlock, inst insts.Inst) {
	b.Append(ir.Value(ir.FprOp(rawVecType, inst.Rt)), ir.MemoryRelU64Dest(rawVecType, inst.Rn, inst.Imm))
}

// compileMoviVec lowers MOVI (vector, modified immediate): advSimdExpandImm
// expands imm8/cmode/op into the 64-bit doubleword pattern the element
// replication produces, and that doubleword is broadcast into every 64-bit
// half of the register (one half for the 64-bit view, two for the 128-bit
// Q view).
func compileMoviVec(b *ir.BasicBlock, inst insts.Inst) {
	pattern := advSimdExpandImm(inst.MoviOp, inst.Cmode, uint8(inst.Imm))

	halves := uint8(1)
	if inst.Q {
		halves = 2
	}
	for i := uint8(0); i < halves; i++ {
		b.Append(ir.Value(ir.ImmOp(ir.U64, pattern)), ir.FprSlotDest(ir.U64, inst.Rd, i))
	}
}
