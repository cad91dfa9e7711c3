package ir

import "github.com/sarchlab/a64dbt/register"

// OperandKind discriminates an Operand.
type OperandKind uint8

const (
	OperandIr OperandKind = iota
	OperandVoidIr
	OperandGpr
	OperandFpr
	OperandSys
	OperandImmediate
	OperandIp
	OperandFlag
	OperandDbg
)

// Operand is an input to an Expr or the implicit source feeding a
// Destination: a nested sub-expression, an architectural register read, an
// immediate constant, the current PC, the flags word, or a debug-labeled
// wrapper around another operand.
type Operand struct {
	Kind  OperandKind
	Type  Type
	Reg   register.Id
	Imm   uint64
	Expr  *Expr
	Label string
	Inner *Operand
}

// IrOp wraps a sub-expression for evaluation, yielding its value.
func IrOp(e Expr) Operand {
	return Operand{Kind: OperandIr, Type: e.GetType(), Expr: &e}
}

// VoidIrOp wraps a sub-expression evaluated only for its side effects; its
// value is discarded.
func VoidIrOp(e Expr) Operand {
	return Operand{Kind: OperandVoidIr, Type: Void, Expr: &e}
}

// GprOp reads a general-purpose register at the given width.
func GprOp(t Type, reg register.Id) Operand {
	return Operand{Kind: OperandGpr, Type: t, Reg: reg}
}

// FprOp reads a vector/FP register at the given width.
func FprOp(t Type, reg register.Id) Operand {
	return Operand{Kind: OperandFpr, Type: t, Reg: reg}
}

// SysOp reads a system register.
func SysOp(t Type, reg register.Id) Operand {
	return Operand{Kind: OperandSys, Type: t, Reg: reg}
}

// ImmOp materializes a constant. v must fit within t's bit width.
func ImmOp(t Type, v uint64) Operand {
	return Operand{Kind: OperandImmediate, Type: t, Imm: v & t.Mask()}
}

// IpOp reads the current program counter.
func IpOp() Operand {
	return Operand{Kind: OperandIp, Type: U64}
}

// FlagOp reads the full pstate word.
func FlagOp() Operand {
	return Operand{Kind: OperandFlag, Type: U64}
}

// DbgOp labels inner for tracing without changing its evaluated type.
func DbgOp(label string, inner Operand) Operand {
	return Operand{Kind: OperandDbg, Type: inner.GetType(), Label: label, Inner: &inner}
}

// GetType returns the operand's IR type.
func (o Operand) GetType() Type {
	switch o.Kind {
	case OperandIr:
		return o.Expr.GetType()
	case OperandVoidIr:
		return Void
	case OperandDbg:
		return o.Inner.GetType()
	default:
		return o.Type
	}
}

// Validate checks the structural invariants from spec.md §3: every
// Immediate fits its declared type's mask, and nested expressions are
// themselves valid.
func (o Operand) Validate() bool {
	switch o.Kind {
	case OperandIr, OperandVoidIr:
		return o.Expr != nil && o.Expr.Validate()
	case OperandImmediate:
		return o.Imm&o.Type.Mask() == o.Imm
	case OperandDbg:
		return o.Inner != nil && o.Inner.Validate()
	case OperandGpr, OperandFpr, OperandSys, OperandIp, OperandFlag:
		return true
	default:
		return false
	}
}
