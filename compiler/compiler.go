package compiler

import (
	"fmt"

	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
)

// UnsupportedOpError is returned when Compile is given an Inst whose Op has
// no lowering yet (every Op the decoder ever produces should have one; this
// guards against the two enumerations drifting apart).
type UnsupportedOpError struct {
	Op insts.Op
}

func (e UnsupportedOpError) Error() string {
	return fmt.Sprintf("compiler: no lowering for op %d", e.Op)
}

// Compile lowers one decoded instruction into a basic block. Compile never
// reads CPU or memory state: it is a pure function of inst.
func Compile(inst insts.Inst) (*ir.BasicBlock, error) {
	b := ir.NewBasicBlock(4)

	switch inst.Op {
	// Data-processing (immediate).
	case insts.OpAdr:
		compileAdr(b, inst, false)
	case insts.OpAdrp:
		compileAdr(b, inst, true)
	case insts.OpAddImm:
		compileAddSubImm(b, inst, false, false)
	case insts.OpAddSImm:
		compileAddSubImm(b, inst, false, true)
	case insts.OpSubImm:
		compileAddSubImm(b, inst, true, false)
	case insts.OpSubSImm:
		compileAddSubImm(b, inst, true, true)
	case insts.OpAndImm, insts.OpOrrImm, insts.OpEorImm, insts.OpAndSImm:
		compileLogicalImm(b, inst)
	case insts.OpMovn, insts.OpMovz, insts.OpMovk:
		compileMoveWide(b, inst)
	case insts.OpSbfm, insts.OpBfm, insts.OpUbfm:
		compileBitfield(b, inst)
	case insts.OpExtr:
		compileExtr(b, inst)

	// Data-processing (register).
	case insts.OpAndReg, insts.OpOrrReg, insts.OpEorReg, insts.OpAndSReg:
		compileLogicalShiftedReg(b, inst)
	case insts.OpAddReg, insts.OpAddSReg, insts.OpSubReg, insts.OpSubSReg:
		if inst.RegExtend {
			compileAddSubExtendedReg(b, inst)
		} else {
			compileAddSubShiftedReg(b, inst)
		}
	case insts.OpAdcReg, insts.OpAdcSReg, insts.OpSbcReg, insts.OpSbcSReg:
		compileAddSubCarry(b, inst)
	case insts.OpCcmpImm, insts.OpCcmnImm:
		compileCondCmpImm(b, inst)
	case insts.OpCcmpReg, insts.OpCcmnReg:
		compileCondCmpReg(b, inst)
	case insts.OpCsel:
		compileCsel(b, inst)
	case insts.OpMadd, insts.OpMsub:
		compileDataProcessing3Source(b, inst)
	case insts.OpSmulh, insts.OpUmulh:
		compileMulh(b, inst)
	case insts.OpUdiv, insts.OpSdiv:
		compileDiv(b, inst)
	case insts.OpLslv, insts.OpLsrv, insts.OpAsrv, insts.OpRorv:
		compileShiftVariable(b, inst)

	// Branches, exceptions, system.
	case insts.OpB:
		compileB(b, inst)
	case insts.OpBl:
		compileBl(b, inst)
	case insts.OpBCond:
		compileBCond(b, inst)
	case insts.OpCbz, insts.OpCbnz:
		compileCbz(b, inst)
	case insts.OpTbz, insts.OpTbnz:
		compileTbz(b, inst)
	case insts.OpBr:
		compileBr(b, inst)
	case insts.OpBlr:
		compileBlr(b, inst)
	case insts.OpRet:
		compileRet(b, inst)
	case insts.OpSvc:
		compileSvc(b, inst)
	case insts.OpBrk:
		compileBrk(b, inst)
	case insts.OpMrs:
		compileMrs(b, inst)
	case insts.OpMsr:
		compileMsr(b, inst)
	case insts.OpNop, insts.OpHint, insts.OpBarrier:
		b.Append(ir.Nop(), ir.NoneDest())

	// Loads and stores.
	case insts.OpLdrImm, insts.OpLdrbImm, insts.OpLdrhImm,
		insts.OpLdrsbImm, insts.OpLdrshImm, insts.OpLdrswImm:
		compileLoadImm(b, inst)
	case insts.OpStrImm, insts.OpStrbImm, insts.OpStrhImm:
		compileStoreImm(b, inst)
	case insts.OpLdpImm, insts.OpLdpswImm:
		compileLoadPair(b, inst)
	case insts.OpStpImm:
		compileStorePair(b, inst)
	case insts.OpLdrLit:
		compileLoadLiteral(b, inst)
	case insts.OpLdrReg:
		compileLoadRegOffset(b, inst)
	case insts.OpStrReg:
		compileStoreRegOffset(b, inst)

	// SIMD/FP.
	case insts.OpFmovGprToFpr:
		compileFmovGprToFpr(b, inst)
	case insts.OpFmovFprToGpr:
		compileFmovFprToGpr(b, inst)
	case insts.OpFmovFprImm:
		compileFmovFprImm(b, inst)
	case insts.OpFaddScalar, insts.OpFsubScalar, insts.OpFmulScalar, insts.OpFdivScalar:
		compileFpScalarArith(b, inst)
	case insts.OpVaddVec, insts.OpVsubVec, insts.OpVmulVec:
		compileVecArith(b, inst)
	case insts.OpDupGen:
		compileDupGeneral(b, inst)
	case insts.OpUmov:
		compileUmov(b, inst)
	case insts.OpLdrVec:
		compileLoadVec(b, inst)
	case insts.OpStrVec:
		compileStoreVec(b, inst)
	case insts.OpMoviVec:
		compileMoviVec(b, inst)

	default:
		return nil, UnsupportedOpError{Op: inst.Op}
	}

	return b, nil
}

// gprType returns U32 or U64 depending on the instruction's sf bit.
func gprType(sf bool) ir.Type {
	if sf {
		return ir.U64
	}
	return ir.U32
}

// widthBits returns 32 or 64 depending on sf.
func widthBits(sf bool) uint {
	if sf {
		return 64
	}
	return 32
}

// zext64 wraps e in a ZextCast to U64 unless it is already U64-typed.
func zext64(e ir.Expr) ir.Expr {
	if e.GetType() == ir.U64 {
		return e
	}
	return ir.ZextCast(ir.U64, ir.IrOp(e))
}
