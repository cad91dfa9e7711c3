package exec

import (
	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/value"
)

// Executor walks a compiled BasicBlock's items against a CPU/MMU pair, one
// (expression, destination) at a time. It holds no per-run state of its
// own; Run is safe to call repeatedly with different blocks and states.
type Executor struct {
	// Flags computes Addc/Subc's result and NZCV side effect.
	Flags FlagPolicy

	// Trace, if set, is invoked for every Dbg-wrapped operand the block
	// evaluates, carrying the operand's label and its value.
	Trace func(label string, v value.Value)
}

// Option configures an Executor at construction, mirroring the teacher's
// functional-options pattern used for the board's driver.
type Option func(*Executor)

// WithFlagPolicy overrides the default Aarch64FlagPolicy.
func WithFlagPolicy(p FlagPolicy) Option {
	return func(e *Executor) { e.Flags = p }
}

// WithTrace installs a callback invoked for every Dbg-labeled operand.
func WithTrace(f func(label string, v value.Value)) Option {
	return func(e *Executor) { e.Trace = f }
}

// NewExecutor builds an Executor with Aarch64FlagPolicy unless overridden.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{Flags: Aarch64FlagPolicy{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every item in b against s and m, in order. A DestPc item
// redirects control flow and suppresses the block's trailing PC
// auto-increment; a DestExit item returns *ExitError; a DestSystemCall item
// is applied last (after any auto-increment), and its *SystemCallError lets
// the caller service the call and resume at the already-advanced PC.
func (e *Executor) Run(b *ir.BasicBlock, s *cpu.State, m mem.MMU) error {
	pcWritten := false
	var syscallImm *uint64

	for _, item := range b.Items() {
		v, err := e.evalExpr(item.Expr, s, m, e.Flags)
		if err != nil {
			return err
		}

		switch item.Dest.Kind {
		case ir.DestPc:
			s.Pc = v.U64()
			pcWritten = true
		case ir.DestExit:
			return &ExitError{Code: v.I64()}
		case ir.DestSystemCall:
			imm := item.Dest.Value
			syscallImm = &imm
		default:
			if err := e.applyDestination(item.Dest, v, s, m); err != nil {
				return err
			}
		}
	}

	if !pcWritten {
		s.Pc += uint64(b.OriginalSize())
	}
	if syscallImm != nil {
		return &SystemCallError{Imm: *syscallImm}
	}
	return nil
}
