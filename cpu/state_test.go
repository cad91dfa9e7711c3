package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/register"
)

var _ = Describe("State", func() {
	It("reads xzr as zero and discards writes to it", func() {
		s := cpu.NewState()
		s.WriteGpr(register.Xzr, 0xDEAD)
		Expect(s.ReadGpr(register.Xzr)).To(Equal(uint64(0)))
	})

	It("round-trips general purpose registers", func() {
		s := cpu.NewState()
		s.WriteGpr(register.X5, 0x1234)
		Expect(s.ReadGpr(register.X5)).To(Equal(uint64(0x1234)))
	})

	It("treats sp and pc as distinct from the x bank", func() {
		s := cpu.NewState()
		s.WriteGpr(register.Sp, 0x1000)
		s.WriteGpr(register.Pc, 0x2000)
		Expect(s.ReadGpr(register.Sp)).To(Equal(uint64(0x1000)))
		Expect(s.ReadGpr(register.Pc)).To(Equal(uint64(0x2000)))
	})

	It("sets and reads the aggregate NZCV field", func() {
		s := cpu.NewState()
		s.SetNZCV(true, false, true, false)
		Expect(s.N()).To(BeTrue())
		Expect(s.Z()).To(BeFalse())
		Expect(s.C()).To(BeTrue())
		Expect(s.V()).To(BeFalse())
		Expect(s.Nzcv()).To(Equal(uint64(0b1010)))
	})

	It("setting NZCV leaves lower pstate bits untouched", func() {
		s := cpu.NewState()
		s.SetFlag(0, 8, 0xAB)
		s.SetNZCV(true, true, true, true)
		Expect(s.Flag(0, 8)).To(Equal(uint64(0xAB)))
	})

	It("writing a vector register clears the upper lane", func() {
		s := cpu.NewState()
		s.WriteFprLanes(register.V0, 0x1, 0x2)
		s.WriteFpr(register.V0, 0x99)
		lo, hi := s.ReadFprLanes(register.V0)
		Expect(lo).To(Equal(uint64(0x99)))
		Expect(hi).To(Equal(uint64(0)))
	})

	It("reads and writes a lane slot within a vector register", func() {
		s := cpu.NewState()
		s.WriteFprSlot(register.V1, 32, 1, 0xCAFE)
		Expect(s.ReadFprSlot(register.V1, 32, 1)).To(Equal(uint64(0xCAFE)))
		Expect(s.ReadFprSlot(register.V1, 32, 0)).To(Equal(uint64(0)))
	})

	It("round-trips system registers", func() {
		s := cpu.NewState()
		s.WriteSys(register.TpidrEl0, 0xABCD)
		Expect(s.ReadSys(register.TpidrEl0)).To(Equal(uint64(0xABCD)))
	})
})
