package board

import (
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/register"
)

// ReadRegister reads an architectural register by its canonical name
// (spec.md §6's "read/write of all architectural registers by canonical
// name"). Vector/FP registers report lane 0's 64 bits; the full 128 bits
// are reachable through ReadMemory after a store, same as a real debugger
// would for a wide register a narrow protocol field can't carry.
func (b *Board) ReadRegister(name string) (uint64, error) {
	id, ok := register.Lookup(name)
	if !ok {
		return 0, &InvalidRegNameError{Name: name}
	}
	switch {
	case id == register.Pstate:
		return b.Cpu.Pstate, nil
	case id.IsGpr():
		return b.Cpu.ReadGpr(id), nil
	case id.IsFpr():
		lo, _ := b.Cpu.ReadFprLanes(id)
		return lo, nil
	case id.IsSys():
		return b.Cpu.ReadSys(id), nil
	default:
		return 0, &InvalidRegNameError{Name: name}
	}
}

// WriteRegister writes an architectural register by canonical name. A
// vector/FP write replaces lane 0 and leaves lane 1 untouched, since the
// debug surface's value is only 64 bits wide.
func (b *Board) WriteRegister(name string, v uint64) error {
	id, ok := register.Lookup(name)
	if !ok {
		return &InvalidRegNameError{Name: name}
	}
	switch {
	case id == register.Pstate:
		b.Cpu.Pstate = v
	case id.IsGpr():
		b.Cpu.WriteGpr(id, v)
	case id.IsFpr():
		_, hi := b.Cpu.ReadFprLanes(id)
		b.Cpu.WriteFprLanes(id, v, hi)
	case id.IsSys():
		b.Cpu.WriteSys(id, v)
	default:
		return &InvalidRegNameError{Name: name}
	}
	return nil
}

// ReadMemory reads length bytes of guest memory starting at addr.
func (b *Board) ReadMemory(addr uint64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := b.Mmu.Frame(addr).Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMemory writes data into guest memory starting at addr.
func (b *Board) WriteMemory(addr uint64, data []byte) error {
	return b.Mmu.Frame(addr).Write(data)
}

// AddBreakpoint installs a software breakpoint: Run and Step report
// StopSwBreak instead of fetching the instruction at addr.
func (b *Board) AddBreakpoint(addr uint64) {
	b.Breakpoints[addr] = struct{}{}
}

// RemoveBreakpoint removes a previously installed software breakpoint.
func (b *Board) RemoveBreakpoint(addr uint64) {
	delete(b.Breakpoints, addr)
}

// HasBreakpoint reports whether addr currently has a software breakpoint.
func (b *Board) HasBreakpoint(addr uint64) bool {
	_, ok := b.Breakpoints[addr]
	return ok
}

// AddWatchpoint registers a memory watchpoint with the board's MMU.
// Watchpoint hits are observable via Watchpoints/the MMU's own hit-test
// (spec.md §6); the core executor does not itself interrupt execution on a
// hit; a host debugger polls or the MMU implementation enforces it.
func (b *Board) AddWatchpoint(addr, length uint64, kind mem.WatchKind) {
	b.Mmu.AddWatchpoint(addr, length, kind)
}

// RemoveWatchpoint removes a previously registered watchpoint.
func (b *Board) RemoveWatchpoint(addr, length uint64, kind mem.WatchKind) {
	b.Mmu.RemoveWatchpoint(addr, length, kind)
}

// Watchpoints returns the board's currently registered watchpoints.
func (b *Board) Watchpoints() []mem.Watchpoint {
	return b.Mmu.Watchpoints()
}
