package board

import (
	"errors"
	"io"
	"os"

	"github.com/sarchlab/a64dbt/compiler"
	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/exec"
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/loader"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/value"
)

// ErrMaxInstructionsReached is returned by Run or Step once the configured
// instruction budget (WithMaxInstructions) is exhausted.
var ErrMaxInstructionsReached = errors.New("board: max instructions reached")

// Board drives one guest thread's fetch/decode/compile/execute loop
// (spec.md §4.6): it owns a cpu.State, a mem.MMU, and the decoder/compiler/
// executor pipeline, and exposes the debug surface a host tool steps it
// through. The driver is parameterized over nothing more than that
// pipeline's public entry points, so an alternate compiler or executor
// backend can be substituted by constructing Board with different
// collaborators (spec.md §4.6's "parameterized over compiler, parser-rule,
// and code generator" note; a tree-walking executor has no separate
// code-gen stage to swap).
type Board struct {
	Cpu            *cpu.State
	Mmu            mem.MMU
	Decoder        *insts.Decoder
	Exec           *exec.Executor
	SyscallHandler SyscallHandler

	Breakpoints map[uint64]struct{}

	MaxInstructions  uint64
	instructionCount uint64

	Stdout, Stderr io.Writer

	execRanges []execRange
}

// execRange is a half-open [Start, Start+Len) address range carrying
// PF_X from one loaded ELF segment.
type execRange struct {
	Start, Len uint64
}

func (r execRange) contains(addr uint64) bool {
	return addr >= r.Start && addr < r.Start+r.Len
}

// executable reports whether addr falls within a loaded segment that
// carried loader.SegmentFlagExecute. A board with no loaded program (or
// one built before LoadProgram is called) treats every address as
// executable, matching the zero-value Board's use in unit tests that
// never call LoadProgram.
func (b *Board) executable(addr uint64) bool {
	if len(b.execRanges) == 0 {
		return true
	}
	for _, r := range b.execRanges {
		if r.contains(addr) {
			return true
		}
	}
	return false
}

// Option configures a Board at construction, mirroring the teacher's
// EmulatorOption functional-options pattern.
type Option func(*Board)

// WithMMU overrides the default mem.Flat address space.
func WithMMU(m mem.MMU) Option {
	return func(b *Board) { b.Mmu = m }
}

// WithSyscallHandler overrides the default read/write/exit handler.
func WithSyscallHandler(h SyscallHandler) Option {
	return func(b *Board) { b.SyscallHandler = h }
}

// WithStackPointer sets the initial stack pointer.
func WithStackPointer(sp uint64) Option {
	return func(b *Board) { b.Cpu.Sp = sp }
}

// WithMaxInstructions caps the number of instructions Run/Step will
// execute before returning ErrMaxInstructionsReached. 0 (the default)
// means no limit.
func WithMaxInstructions(max uint64) Option {
	return func(b *Board) { b.MaxInstructions = max }
}

// WithStdout overrides the writer the default syscall handler's write(1,
// ...) targets.
func WithStdout(w io.Writer) Option {
	return func(b *Board) { b.Stdout = w }
}

// WithStderr overrides the writer the default syscall handler's write(2,
// ...) targets.
func WithStderr(w io.Writer) Option {
	return func(b *Board) { b.Stderr = w }
}

// WithTrace installs a callback invoked for every Dbg-labeled operand the
// executor evaluates, collapsing the operand's value to its low 64 bits for
// host-side instrumentation (spec.md §12's Dbg/trace hook).
func WithTrace(f func(label string, v uint64)) Option {
	return func(b *Board) {
		b.Exec.Trace = func(label string, val value.Value) { f(label, val.U64()) }
	}
}

// NewBoard builds a Board over a fresh cpu.State and mem.Flat, ready to
// load a program into.
func NewBoard(opts ...Option) *Board {
	b := &Board{
		Cpu:         cpu.NewState(),
		Mmu:         mem.NewFlat(),
		Decoder:     insts.NewDecoder(),
		Exec:        exec.NewExecutor(),
		Breakpoints: make(map[uint64]struct{}),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.SyscallHandler == nil {
		b.SyscallHandler = NewDefaultSyscallHandler(b.Stdout, b.Stderr)
	}
	return b
}

// LoadProgram writes every loadable segment of prog into the board's
// address space and sets pc/sp to its entry point and initial stack.
func (b *Board) LoadProgram(prog *loader.Program) error {
	for _, seg := range prog.Segments {
		if seg.Flags&loader.SegmentFlagExecute != 0 {
			b.execRanges = append(b.execRanges, execRange{Start: seg.VirtAddr, Len: seg.MemSize})
		}
		if len(seg.Data) == 0 {
			continue
		}
		if err := b.Mmu.Frame(seg.VirtAddr).Write(seg.Data); err != nil {
			return err
		}
	}
	b.Cpu.Pc = prog.EntryPoint
	b.Cpu.Sp = prog.InitialSP
	return nil
}

// fetchWord reads one little-endian instruction word at addr without
// touching b.Cpu.Pc, rejecting a fetch outside every loaded segment's
// executable range.
func (b *Board) fetchWord(addr uint64) ([4]byte, error) {
	var buf [4]byte
	if !b.executable(addr) {
		return buf, &NonExecutableFetchError{Addr: addr}
	}
	if err := b.Mmu.Frame(addr).Read(buf[:]); err != nil {
		return buf, err
	}
	return buf, nil
}

// compileGroup fetches, decodes, and compiles instructions starting at
// b.Cpu.Pc (without advancing it) until a block's last destination is Pc or
// Exit, per spec.md §4.6 steps 1-4. The returned blocks are executed in
// order by executeGroup; this split only batches work ahead of execution,
// it does not change per-instruction semantics.
func (b *Board) compileGroup() ([]*ir.BasicBlock, error) {
	pc := b.Cpu.Pc
	var blocks []*ir.BasicBlock

	for {
		if b.MaxInstructions > 0 && b.instructionCount >= b.MaxInstructions {
			return nil, ErrMaxInstructionsReached
		}

		raw, err := b.fetchWord(pc)
		if err != nil {
			return nil, err
		}
		inst, err := b.Decoder.Decode(raw)
		if err != nil {
			return nil, err
		}
		block, err := compiler.Compile(inst)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
		b.instructionCount++
		pc += uint64(block.OriginalSize())

		if block.HasTerminator() {
			return blocks, nil
		}
	}
}

// executeGroup runs blocks in order against the board's CPU and MMU,
// unwrapping exec's sentinel errors into StopReasons and recovering any
// panic into a PanicError carrying a register dump (spec.md §4.6's
// panic-safe outer loop; core/board.rs's catch_unwind is the model).
func (b *Board) executeGroup(blocks []*ir.BasicBlock) (reason StopReason, err error) {
	// compileGroup and Step count every block before it runs; blocks left
	// unrun by a stop, an error or a panic are taken back out of the count.
	ran := 0
	defer func() {
		b.instructionCount -= uint64(len(blocks) - ran)
		if r := recover(); r != nil {
			reason = StopReason{}
			err = &PanicError{Recovered: r, Dump: dumpString(b.Cpu)}
		}
	}()

	for _, blk := range blocks {
		runErr := b.Exec.Run(blk, b.Cpu, b.Mmu)
		ran++
		if runErr == nil {
			continue
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return StopReason{Kind: StopExit, ExitCode: exitErr.Code}, nil
		}

		var sysErr *exec.SystemCallError
		if errors.As(runErr, &sysErr) {
			res := b.SyscallHandler.Handle(sysErr.Imm, b.Cpu, b.Mmu)
			if res.Exited {
				return StopReason{Kind: StopExit, ExitCode: res.ExitCode}, nil
			}
			continue
		}

		return StopReason{}, runErr
	}

	return StopReason{Kind: StopDoneStep}, nil
}

// Step executes exactly one instruction at the current pc and returns
// immediately, regardless of whether that instruction ends a basic block.
func (b *Board) Step() (StopReason, error) {
	if _, halt := b.Breakpoints[b.Cpu.Pc]; halt {
		return StopReason{Kind: StopSwBreak, Addr: b.Cpu.Pc}, nil
	}
	if b.MaxInstructions > 0 && b.instructionCount >= b.MaxInstructions {
		return StopReason{}, ErrMaxInstructionsReached
	}

	raw, err := b.fetchWord(b.Cpu.Pc)
	if err != nil {
		return StopReason{}, err
	}
	inst, err := b.Decoder.Decode(raw)
	if err != nil {
		return StopReason{}, err
	}
	block, err := compiler.Compile(inst)
	if err != nil {
		return StopReason{}, err
	}
	b.instructionCount++

	return b.executeGroup([]*ir.BasicBlock{block})
}

// Run executes compiled groups of instructions until it hits a breakpoint,
// a syscall-driven or instruction-driven exit, or an error (spec.md §4.6
// steps 1-7, looped). Decode/compile/execution errors propagate as Go
// errors; Exit is non-error termination surfaced as StopReason.
func (b *Board) Run() (StopReason, error) {
	for {
		if _, halt := b.Breakpoints[b.Cpu.Pc]; halt {
			return StopReason{Kind: StopSwBreak, Addr: b.Cpu.Pc}, nil
		}

		blocks, err := b.compileGroup()
		if err != nil {
			return StopReason{}, err
		}
		reason, err := b.executeGroup(blocks)
		if err != nil {
			return StopReason{}, err
		}
		if reason.Kind != StopDoneStep {
			return reason, nil
		}
	}
}

// InstructionCount returns the number of instructions executed so far.
func (b *Board) InstructionCount() uint64 { return b.instructionCount }
