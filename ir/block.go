package ir

import "github.com/sarchlab/a64dbt/register"

// DestKind discriminates a Destination.
type DestKind uint8

const (
	DestFlags DestKind = iota
	DestPc
	DestGpr
	DestFpr
	DestSys
	DestFprSlot
	DestMemory
	DestMemoryRelI64
	DestMemoryRelU64
	DestMemoryIr
	DestNone
	DestExit
	DestSystemCall
)

// Destination names the architectural location an Expr's result is written
// to.
type Destination struct {
	Kind DestKind
	Type Type
	Reg  register.Id
	Lane uint8

	Addr    uint64 // DestMemory
	Offset  int64  // DestMemoryRelI64: base register + signed offset
	UOffset uint64 // DestMemoryRelU64: base register + unsigned offset
	Expr    *Expr  // DestMemoryIr: address is itself computed

	Value uint64 // DestSystemCall: the immediate the instruction carried (e.g. SVC #imm16)
}

func FlagsDest() Destination { return Destination{Kind: DestFlags, Type: U64} }
func PcDest() Destination    { return Destination{Kind: DestPc, Type: U64} }
func NoneDest() Destination  { return Destination{Kind: DestNone, Type: Void} }
func ExitDest() Destination  { return Destination{Kind: DestExit, Type: Void} }

func SystemCallDest(imm uint64) Destination {
	return Destination{Kind: DestSystemCall, Type: U64, Value: imm}
}

func GprDest(t Type, reg register.Id) Destination {
	return Destination{Kind: DestGpr, Type: t, Reg: reg}
}

func FprDest(t Type, reg register.Id) Destination {
	return Destination{Kind: DestFpr, Type: t, Reg: reg}
}

func SysDest(t Type, reg register.Id) Destination {
	return Destination{Kind: DestSys, Type: t, Reg: reg}
}

func FprSlotDest(t Type, reg register.Id, lane uint8) Destination {
	return Destination{Kind: DestFprSlot, Type: t, Reg: reg, Lane: lane}
}

func MemoryDest(t Type, addr uint64) Destination {
	return Destination{Kind: DestMemory, Type: t, Addr: addr}
}

func MemoryRelI64Dest(t Type, reg register.Id, offset int64) Destination {
	return Destination{Kind: DestMemoryRelI64, Type: t, Reg: reg, Offset: offset}
}

func MemoryRelU64Dest(t Type, reg register.Id, offset uint64) Destination {
	return Destination{Kind: DestMemoryRelU64, Type: t, Reg: reg, UOffset: offset}
}

func MemoryIrDest(t Type, addr Expr) Destination {
	return Destination{Kind: DestMemoryIr, Type: t, Expr: &addr}
}

// IsTerminator reports whether writing to this destination ends a basic
// block: a Pc write redirects control flow, and Exit stops the run loop.
// A SystemCall item is not a terminator: the executor hands it to the
// board, which handles the call and, unless it exits, goes on with the
// next block. Per spec.md §3 a block's trailing item destination must be Pc
// or Exit, exclusively, and it is the only terminator-shaped item allowed.
func (d Destination) IsTerminator() bool {
	return d.Kind == DestPc || d.Kind == DestExit
}

// Item is one (expression, destination) pair in a BasicBlock.
type Item struct {
	Expr Expr
	Dest Destination
}

// BasicBlock is an ordered sequence of IR items lowered from one or more
// consecutive machine instructions, ending at a control-flow transfer.
type BasicBlock struct {
	items        []Item
	originalSize int
	terminator   bool
}

// NewBasicBlock creates an empty block recording the byte size of the
// machine instruction(s) it will represent.
func NewBasicBlock(originalSize int) *BasicBlock {
	return &BasicBlock{originalSize: originalSize}
}

// Append adds one IR item. Per spec.md §3, only the last item appended may
// target Pc or Exit; Append panics if called again after a terminator item,
// since that would violate the single-trailing-transfer invariant.
func (b *BasicBlock) Append(e Expr, dest Destination) {
	if b.terminator {
		panic("ir: Append called after a terminating destination was already appended")
	}
	b.items = append(b.items, Item{Expr: e, Dest: dest})
	if dest.IsTerminator() {
		b.terminator = true
	}
}

// Items returns the block's items in execution order.
func (b *BasicBlock) Items() []Item { return b.items }

// OriginalSize returns the byte size of the source machine instruction(s).
func (b *BasicBlock) OriginalSize() int { return b.originalSize }

// HasTerminator reports whether the block's last item targets Pc or Exit.
func (b *BasicBlock) HasTerminator() bool { return b.terminator }

// Validate checks every item's expression and destination-type agreement,
// and that only the final item (if any) is a terminator.
func (b *BasicBlock) Validate() bool {
	for i, item := range b.items {
		if !item.Expr.Validate() {
			return false
		}
		if item.Dest.Kind != DestNone && item.Dest.Kind != DestExit &&
			item.Dest.Kind != DestSystemCall && item.Expr.GetType() != item.Dest.Type {
			return false
		}
		if item.Dest.IsTerminator() && i != len(b.items)-1 {
			return false
		}
	}
	return true
}
