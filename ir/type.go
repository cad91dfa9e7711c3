// Package ir implements the typed expression-plus-destination intermediate
// representation the compiler lowers instructions into and the executor
// walks. Expr, Operand, and Destination are closed tag+payload unions (one
// Go struct with a discriminant field), not open interfaces: the decoder and
// compiler enumerate a closed universe, and the executor must cover it
// exhaustively, per the no-open-dynamic-dispatch design note.
package ir

import "fmt"

// Kind discriminates a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindVec
)

// ElemKind names the lane type of a Vec.
type ElemKind uint8

const (
	ElemNone ElemKind = iota
	ElemU8
	ElemU16
	ElemU32
	ElemU64
	ElemI8
	ElemI16
	ElemI32
	ElemI64
	ElemF32
	ElemF64
)

// Type is a value type in the IR: a scalar width/signedness, or a fixed-lane
// vector of one.
type Type struct {
	Kind  Kind
	Elem  ElemKind
	Lanes uint8
}

func scalar(k Kind) Type { return Type{Kind: k} }

var (
	Void = scalar(KindVoid)
	Bool = scalar(KindBool)
	U8   = scalar(KindU8)
	U16  = scalar(KindU16)
	U32  = scalar(KindU32)
	U64  = scalar(KindU64)
	I8   = scalar(KindI8)
	I16  = scalar(KindI16)
	I32  = scalar(KindI32)
	I64  = scalar(KindI64)
	F32  = scalar(KindF32)
	F64  = scalar(KindF64)
)

// Vec builds a fixed-lane vector type, e.g. Vec(ElemU32, 4) for a 4S
// arrangement.
func Vec(elem ElemKind, lanes uint8) Type {
	return Type{Kind: KindVec, Elem: elem, Lanes: lanes}
}

// Bits returns the scalar bit width of t (128 for any Vec, whatever its
// lane count: 64-bit arrangements are also held as a full 128-bit value).
func (t Type) Bits() uint {
	switch t.Kind {
	case KindVoid:
		return 0
	case KindBool:
		return 1
	case KindU8, KindI8:
		return 8
	case KindU16, KindI16:
		return 16
	case KindU32, KindI32, KindF32:
		return 32
	case KindU64, KindI64, KindF64:
		return 64
	case KindVec:
		return 128
	default:
		panic(fmt.Sprintf("ir: Type.Bits: unhandled kind %v", t.Kind))
	}
}

// Mask returns the bitmask covering exactly t.Bits() low bits, used to
// validate that an Immediate operand's value fits its declared type.
func (t Type) Mask() uint64 {
	bits := t.Bits()
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// IsInt reports whether t is an integer scalar (signed or unsigned).
func (t Type) IsInt() bool {
	switch t.Kind {
	case KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is a floating-point scalar.
func (t Type) IsFloat() bool {
	return t.Kind == KindF32 || t.Kind == KindF64
}

func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindVec:
		return fmt.Sprintf("vec(%d,%d)", t.Elem, t.Lanes)
	default:
		return "?"
	}
}
