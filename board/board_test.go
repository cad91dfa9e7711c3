package board_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/board"
	"github.com/sarchlab/a64dbt/loader"
	"github.com/sarchlab/a64dbt/register"
)

// writeWords stores consecutive 4-byte little-endian instruction words
// starting at addr, returning the address just past the last one.
func writeWords(b *board.Board, addr uint64, words ...[4]byte) uint64 {
	for _, w := range words {
		Expect(b.WriteMemory(addr, w[:])).To(Succeed())
		addr += 4
	}
	return addr
}

var _ = Describe("Board", func() {
	var b *board.Board

	BeforeEach(func() {
		b = board.NewBoard()
	})

	It("steps a single MOVZ and advances pc by 4", func() {
		b.Cpu.Pc = 0x1000
		writeWords(b, 0x1000, movzWord(0, 0x12))

		reason, err := b.Step()
		Expect(err).ToNot(HaveOccurred())
		Expect(reason.Kind).To(Equal(board.StopDoneStep))
		Expect(b.Cpu.ReadGpr(register.X0)).To(Equal(uint64(0x12)))
		Expect(b.Cpu.Pc).To(Equal(uint64(0x1004)))
	})

	It("runs a compiled group through an exit syscall", func() {
		b.Cpu.Pc = 0x1000
		writeWords(b, 0x1000,
			movzWord(0, 42),  // x0 = 42 (exit code)
			movzWord(8, 93),  // x8 = 93 (exit syscall number)
			svcWord(0),       // svc #0
			brkWord(0),       // never reached
		)

		reason, err := b.Run()
		Expect(err).ToNot(HaveOccurred())
		Expect(reason.Kind).To(Equal(board.StopExit))
		Expect(reason.ExitCode).To(Equal(int64(42)))
	})

	It("halts at a software breakpoint without executing", func() {
		b.Cpu.Pc = 0x1000
		writeWords(b, 0x1000, movzWord(0, 0x99))
		b.AddBreakpoint(0x1000)

		reason, err := b.Step()
		Expect(err).ToNot(HaveOccurred())
		Expect(reason.Kind).To(Equal(board.StopSwBreak))
		Expect(reason.Addr).To(Equal(uint64(0x1000)))
		Expect(b.Cpu.ReadGpr(register.X0)).To(Equal(uint64(0)))
		Expect(b.Cpu.Pc).To(Equal(uint64(0x1000)))
	})

	It("stops with ErrMaxInstructionsReached once the budget is spent", func() {
		b = board.NewBoard(board.WithMaxInstructions(1))
		b.Cpu.Pc = 0x1000
		writeWords(b, 0x1000, movzWord(0, 1), movzWord(1, 2))

		_, err := b.Step()
		Expect(err).ToNot(HaveOccurred())

		_, err = b.Step()
		Expect(err).To(MatchError(board.ErrMaxInstructionsReached))
	})

	It("executes from a PF_X segment loaded via LoadProgram", func() {
		word := movzWord(0, 7)
		prog := &loader.Program{
			EntryPoint: 0x2000,
			InitialSP:  0x8000,
			Segments: []loader.Segment{
				{VirtAddr: 0x2000, Data: word[:], MemSize: 4, Flags: loader.SegmentFlagExecute | loader.SegmentFlagRead},
			},
		}
		Expect(b.LoadProgram(prog)).To(Succeed())

		reason, err := b.Step()
		Expect(err).ToNot(HaveOccurred())
		Expect(reason.Kind).To(Equal(board.StopDoneStep))
		Expect(b.Cpu.ReadGpr(register.X0)).To(Equal(uint64(7)))
	})

	It("rejects a fetch from a segment loaded without PF_X", func() {
		word := movzWord(0, 7)
		prog := &loader.Program{
			EntryPoint: 0x3000,
			InitialSP:  0x8000,
			Segments: []loader.Segment{
				{VirtAddr: 0x3000, Data: word[:], MemSize: 4, Flags: loader.SegmentFlagRead | loader.SegmentFlagWrite},
			},
		}
		Expect(b.LoadProgram(prog)).To(Succeed())

		_, err := b.Step()
		Expect(err).To(HaveOccurred())
		var nxErr *board.NonExecutableFetchError
		Expect(errors.As(err, &nxErr)).To(BeTrue())
		Expect(nxErr.Addr).To(Equal(uint64(0x3000)))
	})
})
