// Package register defines the architectural register identifiers shared by
// the decoder, the compiler, the CPU state, and the debug surface.
//
// RegId is deliberately a small opaque integer rather than a string: the
// decoder resolves register fields to an Id once, at decode time, via the
// mnemonic hints in ARM's encoding tables (X, X_SP, X_PC, V), and every
// downstream consumer (compiler, executor, debug surface) works off that Id.
package register

import "fmt"

// Id is an opaque register identifier. Three disjoint banks share this
// namespace: general-purpose (X0..X30, Sp, Pc, Xzr), vector/FP (V0..V31),
// and a small open-ended set of named system registers.
type Id uint16

// General-purpose bank. X0..X30 are contiguous so arithmetic on raw
// register-field values (0..30) maps directly onto them.
const (
	Invalid Id = iota
	X0
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	X30
	Xzr
	Sp
	Pc
	Pstate
)

// Vector/FP bank, V0..V31.
const (
	V0 Id = iota + 64
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31
)

// System register bank. Open-ended in the architecture; this module names
// the handful relevant to user-mode emulation.
const (
	TpidrEl0 Id = iota + 128
	VbarEl1
	CpacrEl1
	MpidrEl1
	MidrEl1
	CurrentEl
)

var names = map[Id]string{
	X0: "x0", X1: "x1", X2: "x2", X3: "x3", X4: "x4", X5: "x5", X6: "x6", X7: "x7",
	X8: "x8", X9: "x9", X10: "x10", X11: "x11", X12: "x12", X13: "x13", X14: "x14", X15: "x15",
	X16: "x16", X17: "x17", X18: "x18", X19: "x19", X20: "x20", X21: "x21", X22: "x22", X23: "x23",
	X24: "x24", X25: "x25", X26: "x26", X27: "x27", X28: "x28", X29: "x29", X30: "x30",
	Xzr: "xzr", Sp: "sp", Pc: "pc", Pstate: "pstate",

	V0: "v0", V1: "v1", V2: "v2", V3: "v3", V4: "v4", V5: "v5", V6: "v6", V7: "v7",
	V8: "v8", V9: "v9", V10: "v10", V11: "v11", V12: "v12", V13: "v13", V14: "v14", V15: "v15",
	V16: "v16", V17: "v17", V18: "v18", V19: "v19", V20: "v20", V21: "v21", V22: "v22", V23: "v23",
	V24: "v24", V25: "v25", V26: "v26", V27: "v27", V28: "v28", V29: "v29", V30: "v30", V31: "v31",

	TpidrEl0: "tpidr_el0", VbarEl1: "vbar_el1", CpacrEl1: "cpacr_el1",
	MpidrEl1: "mpidr_el1", MidrEl1: "midr_el1", CurrentEl: "currentel",
}

var byName map[string]Id

func init() {
	byName = make(map[string]Id, len(names))
	for id, name := range names {
		byName[name] = id
	}
}

// String returns the canonical register name, or a synthetic
// "reg<n>" for an Id with no registered name.
func (id Id) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("reg<%d>", uint16(id))
}

// Lookup resolves a canonical register name ("x0".."x30", "sp", "pc",
// "v0".."v31", "tpidr_el0", ...) to its Id.
func Lookup(name string) (Id, bool) {
	id, ok := byName[name]
	return id, ok
}

// IsGpr reports whether id names a general-purpose (X/W, Sp, Pc, Xzr)
// register.
func (id Id) IsGpr() bool {
	return (id >= X0 && id <= X30) || id == Xzr || id == Sp || id == Pc
}

// IsFpr reports whether id names a vector/FP register.
func (id Id) IsFpr() bool {
	return id >= V0 && id <= V31
}

// IsSys reports whether id names a system register.
func (id Id) IsSys() bool {
	return id >= TpidrEl0 && id <= CurrentEl
}

// X resolves a 5-bit GPR encoding field under the "X" mnemonic hint:
// 31 reads/writes as the zero register.
func X(n uint8) Id {
	if n == 31 {
		return Xzr
	}
	return X0 + Id(n)
}

// XSp resolves a 5-bit GPR encoding field under the "X_SP" mnemonic hint:
// 31 names the stack pointer, not the zero register.
func XSp(n uint8) Id {
	if n == 31 {
		return Sp
	}
	return X0 + Id(n)
}

// XPc resolves a 5-bit GPR encoding field under the "X_PC" mnemonic hint:
// 31 names the program counter. ARM uses this only for a handful of
// PC-relative addressing forms.
func XPc(n uint8) Id {
	if n == 31 {
		return Pc
	}
	return X0 + Id(n)
}

// V resolves a 5-bit vector-register encoding field; there is no zero- or
// sp-register alias in the vector bank.
func V(n uint8) Id {
	return V0 + Id(n&31)
}
