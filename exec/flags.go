package exec

import (
	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/ir"
)

// FlagPolicy computes the result of a flag-setting arithmetic Expr (Addc/
// Subc) and records its NZCV side effect on s. Most evaluation contexts use
// Aarch64FlagPolicy; address-only computations that must not disturb the
// condition flags (e.g. a MemoryIr destination's address expression) use
// DummyFlagPolicy instead.
type FlagPolicy interface {
	Add(t ir.Type, a, b uint64, s *cpu.State) uint64
	Sub(t ir.Type, a, b uint64, s *cpu.State) uint64
}

// Aarch64FlagPolicy sets NZCV the way AArch64's ADDS/SUBS set them, at
// either the 32- or 64-bit width depending on t.
type Aarch64FlagPolicy struct{}

func (Aarch64FlagPolicy) Add(t ir.Type, a, b uint64, s *cpu.State) uint64 {
	if t.Bits() <= 32 {
		op1, op2 := uint32(a), uint32(b)
		result := op1 + op2
		op1Sign, op2Sign, resultSign := op1>>31, op2>>31, result>>31
		s.SetNZCV(
			resultSign == 1,
			result == 0,
			result < op1,
			op1Sign == op2Sign && op1Sign != resultSign,
		)
		return uint64(result)
	}

	result := a + b
	op1Sign, op2Sign, resultSign := a>>63, b>>63, result>>63
	s.SetNZCV(
		resultSign == 1,
		result == 0,
		result < a,
		op1Sign == op2Sign && op1Sign != resultSign,
	)
	return result
}

func (Aarch64FlagPolicy) Sub(t ir.Type, a, b uint64, s *cpu.State) uint64 {
	if t.Bits() <= 32 {
		op1, op2 := uint32(a), uint32(b)
		result := op1 - op2
		op1Sign, op2Sign, resultSign := op1>>31, op2>>31, result>>31
		s.SetNZCV(
			resultSign == 1,
			result == 0,
			op1 >= op2,
			op1Sign != op2Sign && op2Sign == resultSign,
		)
		return uint64(result)
	}

	result := a - b
	op1Sign, op2Sign, resultSign := a>>63, b>>63, result>>63
	s.SetNZCV(
		resultSign == 1,
		result == 0,
		a >= b,
		op1Sign != op2Sign && op2Sign == resultSign,
	)
	return result
}

// DummyFlagPolicy computes the same masked wraparound result as
// Aarch64FlagPolicy but never touches s, for use where an Addc/Subc shape
// appears in a context the architecture says must not update pstate.
type DummyFlagPolicy struct{}

func (DummyFlagPolicy) Add(t ir.Type, a, b uint64, s *cpu.State) uint64 {
	return (a + b) & t.Mask()
}

func (DummyFlagPolicy) Sub(t ir.Type, a, b uint64, s *cpu.State) uint64 {
	return (a - b) & t.Mask()
}
