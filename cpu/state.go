// Package cpu holds the emulated AArch64 CPU state: the three register
// banks, the program counter, and the pstate flag word. State is the only
// mutable architectural state the translation pipeline touches; it is
// owned by one goroutine/board at a time (see spec.md §5).
package cpu

import (
	"fmt"

	"github.com/sarchlab/a64dbt/bitmatch"
	"github.com/sarchlab/a64dbt/register"
)

// pstate bit offsets, MSB-indexed into the 64-bit word (spec.md §3).
const (
	BitN       = 63
	BitZ       = 62
	BitC       = 61
	BitV       = 60
	BitD       = 59
	BitA       = 58
	BitI       = 57
	BitF       = 56
	BitSS      = 55
	BitIL      = 54
	BitELLo    = 52
	BitELHi    = 54
	BitNRW     = 51
	BitSP      = 50
	BitALLINT  = 49
	BitPAN     = 48
	BitUAO     = 47
	BitDIT     = 46
	BitTCO     = 45
	BitZA      = 44
	BitSM      = 43
	BitSSBS    = 42
	BitBTypeLo = 40
	BitBTypeHi = 42

	BitNZCVLo = 60
	BitNZCVHi = 64
)

// State is the emulated CPU's architectural state.
type State struct {
	// X holds x0..x30. Xzr and Sp are modeled separately: xzr never stores
	// anything (reads 0, discards writes, handled at the operand/
	// destination level), and Sp has its own field since SP and X31 are
	// the same encoding slot but different architectural registers
	// depending on mnemonic hint.
	X  [31]uint64
	Sp uint64
	Pc uint64

	// Pstate is the full 64-bit process state word; NZCV occupies its top
	// four bits per spec.md §3.
	Pstate uint64

	// Vec holds the 32 vector/FP registers as two 64-bit lanes each (a full
	// 128-bit Q-register view); narrower views (B/H/S/D) read/write the
	// low bits of lane 0.
	Vec [32][2]uint64

	// Sys holds the small, open-ended set of named system registers.
	Sys map[register.Id]uint64
}

// NewState returns a zeroed CPU state with MIDR_EL1/CurrentEL preset to the
// constants user-mode code is allowed to observe.
func NewState() *State {
	s := &State{
		Sys: make(map[register.Id]uint64),
	}
	s.Sys[register.MidrEl1] = 0 // implementation-defined; 0 is a legal value
	s.Sys[register.CurrentEl] = 0 << 2 // EL0
	return s
}

// ReadGpr reads a general-purpose register at full width. register.Xzr
// reads as 0.
func (s *State) ReadGpr(id register.Id) uint64 {
	switch {
	case id == register.Xzr:
		return 0
	case id == register.Sp:
		return s.Sp
	case id == register.Pc:
		return s.Pc
	case id >= register.X0 && id <= register.X30:
		return s.X[id-register.X0]
	default:
		panic(fmt.Sprintf("cpu: ReadGpr: not a GPR: %v", id))
	}
}

// WriteGpr writes a general-purpose register. Per spec.md §3, writes
// always occur at width U64; narrower writes are zero-extended by the
// compiler (ZextCast) before reaching here, so the register file never
// holds dirty high bits.
func (s *State) WriteGpr(id register.Id, v uint64) {
	switch {
	case id == register.Xzr:
		// discards
	case id == register.Sp:
		s.Sp = v
	case id == register.Pc:
		s.Pc = v
	case id >= register.X0 && id <= register.X30:
		s.X[id-register.X0] = v
	default:
		panic(fmt.Sprintf("cpu: WriteGpr: not a GPR: %v", id))
	}
}

// ReadFpr reads lane 0 of a vector/FP register's low 64 bits; callers
// needing the full 128 bits use ReadFprLanes.
func (s *State) ReadFpr(id register.Id) uint64 {
	return s.Vec[id-register.V0][0]
}

// ReadFprLanes returns both 64-bit lanes of a vector/FP register.
func (s *State) ReadFprLanes(id register.Id) (lo, hi uint64) {
	v := s.Vec[id-register.V0]
	return v[0], v[1]
}

// WriteFpr writes lane 0 of a vector/FP register's low 64 bits, clearing
// lane 1 (matching AArch64's "writing any FP/SIMD register clears the
// upper bits" rule for sub-128-bit scalar writes).
func (s *State) WriteFpr(id register.Id, v uint64) {
	s.Vec[id-register.V0][0] = v
	s.Vec[id-register.V0][1] = 0
}

// WriteFprLanes writes both 64-bit lanes of a vector/FP register.
func (s *State) WriteFprLanes(id register.Id, lo, hi uint64) {
	s.Vec[id-register.V0][0] = lo
	s.Vec[id-register.V0][1] = hi
}

// ReadFprSlot reads one size-bit lane out of register id's 128 bits.
func (s *State) ReadFprSlot(id register.Id, size, lane uint8) uint64 {
	lo, hi := s.ReadFprLanes(id)
	bitOff := uint(lane) * uint(size)
	if bitOff+uint(size) <= 64 {
		return bitmatch.Extract64(lo, bitOff, bitOff+uint(size))
	}
	return bitmatch.Extract64(hi, bitOff-64, bitOff-64+uint(size))
}

// WriteFprSlot writes one size-bit lane inside register id's 128 bits,
// leaving every other bit untouched.
func (s *State) WriteFprSlot(id register.Id, size, lane uint8, val uint64) {
	lo, hi := s.ReadFprLanes(id)
	bitOff := uint(lane) * uint(size)
	if bitOff+uint(size) <= 64 {
		lo = bitmatch.ReplaceBits64(lo, bitOff, bitOff+uint(size), val)
	} else {
		hi = bitmatch.ReplaceBits64(hi, bitOff-64, bitOff-64+uint(size), val)
	}
	s.WriteFprLanes(id, lo, hi)
}

// ReadSys reads a system register, defaulting to 0 for one never
// explicitly written.
func (s *State) ReadSys(id register.Id) uint64 {
	return s.Sys[id]
}

// WriteSys writes a system register.
func (s *State) WriteSys(id register.Id, v uint64) {
	s.Sys[id] = v
}

// Flag reads a [lo, hi) bitfield out of pstate.
func (s *State) Flag(lo, hi uint) uint64 {
	return bitmatch.Extract64(s.Pstate, lo, hi)
}

// SetFlag replaces a [lo, hi) bitfield of pstate, leaving every other bit
// untouched.
func (s *State) SetFlag(lo, hi uint, v uint64) {
	s.Pstate = bitmatch.ReplaceBits64(s.Pstate, lo, hi, v)
}

// N, Z, C, V read the four condition flags.
func (s *State) N() bool { return s.Flag(BitN, BitN+1) != 0 }
func (s *State) Z() bool { return s.Flag(BitZ, BitZ+1) != 0 }
func (s *State) C() bool { return s.Flag(BitC, BitC+1) != 0 }
func (s *State) V() bool { return s.Flag(BitV, BitV+1) != 0 }

// Nzcv returns the aggregate 4-bit NZCV field.
func (s *State) Nzcv() uint64 { return s.Flag(BitNZCVLo, BitNZCVHi) }

// SetNzcv replaces the aggregate 4-bit NZCV field.
func (s *State) SetNzcv(v uint64) { s.SetFlag(BitNZCVLo, BitNZCVHi, v) }

// SetNZCV sets the four condition flags individually.
func (s *State) SetNZCV(n, z, c, v bool) {
	nzcv := uint64(0)
	if n {
		nzcv |= 0b1000
	}
	if z {
		nzcv |= 0b0100
	}
	if c {
		nzcv |= 0b0010
	}
	if v {
		nzcv |= 0b0001
	}
	s.SetNzcv(nzcv)
}
