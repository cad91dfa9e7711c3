// Package insts implements the AArch64 instruction decoder: a two-level,
// bit-pattern-matched dispatcher (built on package bitmatch) that turns a
// 32-bit encoded word into a typed Inst record with operands already
// resolved to register.Id values.
package insts

import "github.com/sarchlab/a64dbt/register"

// Op discriminates an Inst. Inst is a single tag+payload struct rather than
// one Go type per mnemonic (see package ir's doc comment for the rationale:
// a closed sum type, not open dynamic dispatch).
type Op uint16

const (
	OpUnknown Op = iota

	// Data-processing (immediate).
	OpAdr
	OpAdrp
	OpAddImm
	OpAddSImm
	OpSubImm
	OpSubSImm
	OpAndImm
	OpOrrImm
	OpEorImm
	OpAndSImm
	OpMovn
	OpMovz
	OpMovk
	OpSbfm
	OpBfm
	OpUbfm
	OpExtr

	// Data-processing (register).
	OpAddReg
	OpAddSReg
	OpSubReg
	OpSubSReg
	OpAndReg
	OpOrrReg
	OpEorReg
	OpAndSReg
	OpAdcReg
	OpAdcSReg
	OpSbcReg
	OpSbcSReg
	OpCcmpImm
	OpCcmnImm
	OpCcmpReg
	OpCcmnReg
	OpCsel
	OpMadd
	OpMsub
	OpSmulh
	OpUmulh
	OpUdiv
	OpSdiv
	OpLslv
	OpLsrv
	OpAsrv
	OpRorv

	// Branches, exceptions, system.
	OpB
	OpBl
	OpBCond
	OpCbz
	OpCbnz
	OpTbz
	OpTbnz
	OpBr
	OpBlr
	OpRet
	OpSvc
	OpBrk
	OpMrs
	OpMsr
	OpNop
	OpHint
	OpBarrier

	// Loads and stores.
	OpLdrImm
	OpStrImm
	OpLdrbImm
	OpStrbImm
	OpLdrhImm
	OpStrhImm
	OpLdrsbImm
	OpLdrshImm
	OpLdrswImm
	OpLdpImm
	OpStpImm
	OpLdpswImm
	OpLdrLit
	OpLdrReg
	OpStrReg

	// SIMD/FP (representative subset per spec.md §4.3).
	OpFmovGprToFpr
	OpFmovFprToGpr
	OpFmovFprImm
	OpFaddScalar
	OpFsubScalar
	OpFmulScalar
	OpFdivScalar
	OpVaddVec
	OpVsubVec
	OpVmulVec
	OpDupGen
	OpUmov
	OpLdrVec
	OpStrVec
	OpMoviVec
)

// ShiftType is the shift applied to a shifted-register operand.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// ExtendType is the extension applied to an extended-register operand.
type ExtendType uint8

const (
	ExtendUXTB ExtendType = iota
	ExtendUXTH
	ExtendUXTW
	ExtendUXTX
	ExtendSXTB
	ExtendSXTH
	ExtendSXTW
	ExtendSXTX
)

// Cond is the 4-bit AArch64 condition field.
type Cond uint8

const (
	CondEQ Cond = 0b0000
	CondNE Cond = 0b0001
	CondCS Cond = 0b0010
	CondCC Cond = 0b0011
	CondMI Cond = 0b0100
	CondPL Cond = 0b0101
	CondVS Cond = 0b0110
	CondVC Cond = 0b0111
	CondHI Cond = 0b1000
	CondLS Cond = 0b1001
	CondGE Cond = 0b1010
	CondLT Cond = 0b1011
	CondGT Cond = 0b1100
	CondLE Cond = 0b1101
	CondAL Cond = 0b1110
	CondNV Cond = 0b1111
)

// HintKind discriminates the HINT-space no-ops (NOP excluded: it gets its
// own Op since it is by far the most common).
type HintKind uint8

const (
	HintYield HintKind = iota
	HintWFE
	HintWFI
	HintSEV
	HintSEVL
)

// BarrierKind discriminates the barrier/exclusive-monitor-clear family.
type BarrierKind uint8

const (
	BarrierDMB BarrierKind = iota
	BarrierDSB
	BarrierISB
	BarrierCLREX
)

// CselOp discriminates the conditional-select family (CSEL/CSINC/CSINV/
// CSNEG), which share one encoding shape and differ only in op/op2.
type CselOp uint8

const (
	CselSel CselOp = iota
	CselInc
	CselInv
	CselNeg
)

// Inst is the decoded form of one 32-bit AArch64 instruction word: an Op
// discriminant plus every operand field any supported mnemonic needs, with
// register fields already resolved to register.Id via the mnemonic hints
// in package register.
type Inst struct {
	Op Op

	Sf       bool // true: 64-bit (X/ "sf" bit); false: 32-bit (W)
	SetFlags bool

	Rd, Rn, Rm, Ra register.Id
	Rt, Rt2         register.Id

	Imm  uint64 // unsigned immediate payload (MOVZ/K/N imm16, bitmask fields' source immediate, load/store offsets before sign handling, etc.)
	SImm int64  // signed immediate/PC-relative offset in bytes, already shifted and sign-extended

	Shift     ShiftType
	ShiftAmt  uint8
	Extend    ExtendType
	RegExtend bool // true: Extend/ShiftAmt describe an extended-register operand; false: Shift/ShiftAmt describe a shifted-register one (add/sub register forms share one mnemonic set across both encodings)

	Cond   Cond
	CselOp CselOp

	Hw uint8 // MOVZ/MOVN/MOVK: which 16-bit half, already *16

	N, ImmR, ImmS uint8 // bitmask-immediate / SBFM/BFM/UBFM fields

	Bit uint8 // TBZ/TBNZ: bit position (0..63)

	SysReg register.Id // MRS/MSR

	Size uint8 // load/store transfer size in bytes (1/2/4/8/16), or SIMD element size in bits

	WriteBack bool
	PostIndex bool

	Hint    HintKind
	Barrier BarrierKind

	Arrangement uint8 // SIMD arrangement: number of lanes for vector ops
	Q           bool  // SIMD: full 128-bit (true) vs 64-bit (false) register view

	Cmode  uint8 // MOVI (vector immediate): cmode field, selects the replication pattern
	MoviOp uint8 // MOVI (vector immediate): op field
}
