package board

import (
	"fmt"

	"github.com/sarchlab/a64dbt/mem"
)

// StopReasonKind discriminates why Run or Step returned control to the
// caller instead of a Go error (spec.md §6's debug-surface stop reasons).
type StopReasonKind uint8

const (
	// StopDoneStep means one instruction (or, for Run, one compiled group)
	// executed normally; the caller decides whether to continue.
	StopDoneStep StopReasonKind = iota
	// StopSwBreak means execution halted at a software breakpoint address
	// before fetching the instruction there.
	StopSwBreak
	// StopHwBreak is reserved for a hardware breakpoint source distinct
	// from the address-set software breakpoints this board implements;
	// unused until the debug surface grows one.
	StopHwBreak
	// StopWatch means a watchpoint registered with the MMU was hit.
	StopWatch
	// StopHalted means the board was asked to stop independent of any
	// guest instruction (host-initiated pause).
	StopHalted
	// StopExit means the guest terminated via BRK, an Exit destination, or
	// the exit/exit_group syscall.
	StopExit
)

// StopReason is returned by Run and Step whenever execution pauses for a
// reason other than a Go error.
type StopReason struct {
	Kind      StopReasonKind
	Addr      uint64 // StopSwBreak, StopHwBreak, StopWatch
	WatchKind mem.WatchKind
	ExitCode  int64 // StopExit
}

func (k StopReasonKind) String() string {
	switch k {
	case StopDoneStep:
		return "done-step"
	case StopSwBreak:
		return "sw-break"
	case StopHwBreak:
		return "hw-break"
	case StopWatch:
		return "watch"
	case StopHalted:
		return "halted"
	case StopExit:
		return "exit"
	default:
		return fmt.Sprintf("StopReasonKind(%d)", uint8(k))
	}
}
