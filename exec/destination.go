package exec

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/value"
)

// applyDestination writes val to the architectural location dest names.
// Grounded on original_source's codegen_block_dest dispatcher: one case per
// DestKind, each keyed further on the destination's declared width. Pc,
// Exit, and SystemCall are control-flow transfers handled by Run itself,
// not here.
func (e *Executor) applyDestination(dest ir.Destination, val value.Value, s *cpu.State, m mem.MMU) error {
	switch dest.Kind {
	case ir.DestFlags:
		s.Pstate = val.Lo
	case ir.DestGpr:
		s.WriteGpr(dest.Reg, val.Lo)
	case ir.DestFpr:
		if dest.Type.Kind == ir.KindVec {
			s.WriteFprLanes(dest.Reg, val.Lo, val.Hi)
		} else {
			s.WriteFpr(dest.Reg, val.Lo)
		}
	case ir.DestSys:
		s.WriteSys(dest.Reg, val.Lo)
	case ir.DestFprSlot:
		s.WriteFprSlot(dest.Reg, uint8(dest.Type.Bits()), dest.Lane, val.Lo)
	case ir.DestMemory:
		return e.writeMemory(m, dest.Addr, dest.Type, val)
	case ir.DestMemoryRelI64:
		base := s.ReadGpr(dest.Reg)
		addr, overflow := addSigned(base, dest.Offset)
		if overflow {
			return &OverflowError{Base: base, Offset: dest.Offset}
		}
		return e.writeMemory(m, addr, dest.Type, val)
	case ir.DestMemoryRelU64:
		base := s.ReadGpr(dest.Reg)
		addr := base + dest.UOffset
		if addr < base {
			return &OverflowError{Base: base, Offset: int64(dest.UOffset)}
		}
		return e.writeMemory(m, addr, dest.Type, val)
	case ir.DestMemoryIr:
		addr, err := e.evalExpr(*dest.Expr, s, m, DummyFlagPolicy{})
		if err != nil {
			return err
		}
		return e.writeMemory(m, addr.Lo, dest.Type, val)
	case ir.DestNone:
		// discard
	default:
		panic(fmt.Sprintf("exec: applyDestination: unhandled kind %v", dest.Kind))
	}
	return nil
}

// addSigned mirrors Rust's u64::overflowing_add_signed: base plus a signed
// offset, reporting whether the 64-bit result wrapped.
func addSigned(base uint64, offset int64) (uint64, bool) {
	result := base + uint64(offset)
	if offset < 0 {
		return result, result > base
	}
	return result, result < base
}

func (e *Executor) writeMemory(m mem.MMU, addr uint64, t ir.Type, val value.Value) error {
	c := m.Frame(addr)

	var err error
	switch t.Bits() {
	case 8:
		err = c.WriteU8(uint8(val.Lo))
	case 16:
		err = c.WriteU16(uint16(val.Lo))
	case 32:
		err = c.WriteU32(uint32(val.Lo))
	case 64:
		err = c.WriteU64(val.Lo)
	case 128:
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint64(buf[:8], val.Lo)
		binary.LittleEndian.PutUint64(buf[8:], val.Hi)
		err = c.Write(buf)
	default:
		panic(fmt.Sprintf("exec: writeMemory: unhandled width %d", t.Bits()))
	}

	if err != nil {
		return wrapFault(addr, "store", err)
	}
	return nil
}
