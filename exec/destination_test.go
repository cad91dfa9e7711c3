package exec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/exec"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/register"
)

var _ = Describe("applyDestination via Run", func() {
	var (
		e *exec.Executor
		s *cpu.State
		m *mem.Flat
	)

	BeforeEach(func() {
		e = exec.NewExecutor()
		s = cpu.NewState()
		m = mem.NewFlat()
	})

	It("discards the computed value for a None destination", func() {
		b := ir.NewBasicBlock(4)
		b.Append(ir.Value(ir.ImmOp(ir.U64, 123)), ir.NoneDest())

		Expect(e.Run(b, s, m)).To(Succeed())
		Expect(s.ReadGpr(register.X0)).To(Equal(uint64(0)))
	})

	It("writes one FprSlot lane without disturbing its neighbors", func() {
		b := ir.NewBasicBlock(4)
		b.Append(ir.Value(ir.ImmOp(ir.U32, 0xAAAAAAAA)), ir.FprSlotDest(ir.U32, register.V0, 0))
		b.Append(ir.Value(ir.ImmOp(ir.U32, 0xBBBBBBBB)), ir.FprSlotDest(ir.U32, register.V0, 1))

		Expect(e.Run(b, s, m)).To(Succeed())
		Expect(s.ReadFprSlot(register.V0, 32, 0)).To(Equal(uint64(0xAAAAAAAA)))
		Expect(s.ReadFprSlot(register.V0, 32, 1)).To(Equal(uint64(0xBBBBBBBB)))
	})

	It("clears the upper lane when a scalar Fpr write lands in lane 0", func() {
		s.WriteFprLanes(register.V1, 0xFF, 0xFF)
		b := ir.NewBasicBlock(4)
		b.Append(ir.Value(ir.ImmOp(ir.U64, 0x42)), ir.FprDest(ir.U64, register.V1))

		Expect(e.Run(b, s, m)).To(Succeed())
		lo, hi := s.ReadFprLanes(register.V1)
		Expect(lo).To(Equal(uint64(0x42)))
		Expect(hi).To(Equal(uint64(0)))
	})

	It("round-trips a full 128-bit vector register through memory", func() {
		s.WriteFprLanes(register.V2, 0x1111111111111111, 0x2222222222222222)
		s.WriteGpr(register.X3, 0x4000)

		vecType := ir.Vec(ir.ElemU8, 16)
		store := ir.NewBasicBlock(4)
		store.Append(ir.Value(ir.FprOp(vecType, register.V2)), ir.MemoryRelU64Dest(vecType, register.X3, 0))
		Expect(e.Run(store, s, m)).To(Succeed())

		load := ir.NewBasicBlock(4)
		load.Append(ir.Load(vecType, ir.GprOp(ir.U64, register.X3)), ir.FprDest(vecType, register.V4))
		Expect(e.Run(load, s, m)).To(Succeed())

		lo, hi := s.ReadFprLanes(register.V4)
		Expect(lo).To(Equal(uint64(0x1111111111111111)))
		Expect(hi).To(Equal(uint64(0x2222222222222222)))
	})

	It("adds three-same vector lanes independently with no cross-lane carry", func() {
		// Lane 0 (0xFFFFFFFF + 1) overflows 32 bits; a flat 64-bit add would
		// carry that into lane 1 (giving 0x100000000), but SIMD lanes must
		// not interact, so the correct result truncates lane 0 to 0.
		s.WriteFprLanes(register.V5, 0x00000000FFFFFFFF, 0)
		s.WriteFprLanes(register.V6, 0x0000000000000001, 0)

		elemType := ir.Vec(ir.ElemU32, 4)
		b := ir.NewBasicBlock(4)
		b.Append(
			ir.Add(elemType, ir.FprOp(elemType, register.V5), ir.FprOp(elemType, register.V6)),
			ir.FprDest(elemType, register.V7),
		)

		Expect(e.Run(b, s, m)).To(Succeed())
		lo, _ := s.ReadFprLanes(register.V7)
		Expect(lo).To(Equal(uint64(0)))
	})
})
