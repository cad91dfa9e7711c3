package exec

import (
	"fmt"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/register"
	"github.com/sarchlab/a64dbt/value"
)

// evalOperand evaluates one Operand to a runtime Value: a recursive
// sub-expression, an architectural register read, an immediate, the
// current PC, the full flags word, or a traced wrapper around another
// operand (spec.md §4.5, grounded on original_source's Operand enum).
func (e *Executor) evalOperand(o ir.Operand, s *cpu.State, m mem.MMU, flags FlagPolicy) (value.Value, error) {
	switch o.Kind {
	case ir.OperandIr:
		return e.evalExpr(*o.Expr, s, m, flags)
	case ir.OperandVoidIr:
		if _, err := e.evalExpr(*o.Expr, s, m, flags); err != nil {
			return value.Value{}, err
		}
		return value.Value{Type: ir.Void}, nil
	case ir.OperandGpr:
		return value.FromU64(o.Type, s.ReadGpr(o.Reg)), nil
	case ir.OperandFpr:
		return e.readFpr(o.Type, s, o.Reg), nil
	case ir.OperandSys:
		return value.FromU64(o.Type, s.ReadSys(o.Reg)), nil
	case ir.OperandImmediate:
		return value.FromU64(o.Type, o.Imm), nil
	case ir.OperandIp:
		return value.FromU64(ir.U64, s.Pc), nil
	case ir.OperandFlag:
		return value.FromU64(ir.U64, s.Pstate), nil
	case ir.OperandDbg:
		v, err := e.evalOperand(*o.Inner, s, m, flags)
		if err != nil {
			return value.Value{}, err
		}
		if e.Trace != nil {
			e.Trace(o.Label, v)
		}
		return v, nil
	default:
		panic(fmt.Sprintf("exec: unhandled operand kind %v", o.Kind))
	}
}

// readFpr reads a vector/FP register at t's width: the full 128 bits for a
// Vec type, or the low bits of lane 0 for a scalar view.
func (e *Executor) readFpr(t ir.Type, s *cpu.State, reg register.Id) value.Value {
	if t.Kind == ir.KindVec {
		lo, hi := s.ReadFprLanes(reg)
		return value.FromVec(t, lo, hi)
	}
	return value.FromU64(t, s.ReadFpr(reg))
}
