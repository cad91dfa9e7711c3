// Package value is the executor's runtime value representation: a typed,
// fixed-size bit pattern wide enough to hold any IR type, including a full
// 128-bit vector register.
package value

import (
	"math"

	"github.com/sarchlab/a64dbt/ir"
)

// Value holds the bits produced by evaluating an Expr or Operand. Lo holds
// every scalar value (truncated/extended per Type.Bits()); Hi holds the
// upper 64 bits of a 128-bit vector value.
type Value struct {
	Type ir.Type
	Lo   uint64
	Hi   uint64
}

// FromU64 builds a Value from a raw 64-bit pattern, masked to t's width.
func FromU64(t ir.Type, bits uint64) Value {
	return Value{Type: t, Lo: bits & t.Mask()}
}

// FromVec builds a 128-bit vector Value from its two 64-bit lanes.
func FromVec(t ir.Type, lo, hi uint64) Value {
	return Value{Type: t, Lo: lo, Hi: hi}
}

// FromBool builds a Bool Value.
func FromBool(b bool) Value {
	if b {
		return Value{Type: ir.Bool, Lo: 1}
	}
	return Value{Type: ir.Bool, Lo: 0}
}

// FromF32 builds an F32 Value from its bit pattern.
func FromF32(f float32) Value {
	return Value{Type: ir.F32, Lo: uint64(math.Float32bits(f))}
}

// FromF64 builds an F64 Value from its bit pattern.
func FromF64(f float64) Value {
	return Value{Type: ir.F64, Lo: math.Float64bits(f)}
}

// U64 returns the low 64 bits, unmasked beyond what FromU64/arithmetic left
// in place.
func (v Value) U64() uint64 { return v.Lo }

// I64 reinterprets Lo as a two's-complement signed 64-bit integer, useful
// for narrower signed types already sign-extended by the caller.
func (v Value) I64() int64 { return int64(v.Lo) }

// Bool reports the Value's truth, for Bool-typed values.
func (v Value) Bool() bool { return v.Lo != 0 }

// F32 reinterprets Lo's low 32 bits as an IEEE-754 single.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Lo)) }

// F64 reinterprets Lo as an IEEE-754 double.
func (v Value) F64() float64 { return math.Float64frombits(v.Lo) }

// Masked returns v with Lo truncated to v.Type's width, discarding any dirty
// high bits accumulated by host arithmetic.
func (v Value) Masked() Value {
	return Value{Type: v.Type, Lo: v.Lo & v.Type.Mask(), Hi: v.Hi}
}
