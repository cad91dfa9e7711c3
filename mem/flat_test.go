package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/mem"
)

var _ = Describe("Flat", func() {
	It("round-trips a u64 through a frame cursor", func() {
		m := mem.NewFlat()
		cur := m.Frame(0x1000)
		Expect(cur.WriteU64(0xDEADBEEFCAFEBABE)).To(Succeed())

		cur2 := m.Frame(0x1000)
		v, err := cur2.ReadU64()
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(uint64(0xDEADBEEFCAFEBABE)))
	})

	It("spans a page boundary transparently", func() {
		m := mem.NewFlat()
		addr := uint64(4096 - 2)
		Expect(m.Frame(addr).WriteU32(0x11223344)).To(Succeed())
		v, err := m.Frame(addr).ReadU32()
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(uint32(0x11223344)))
	})

	It("advances the cursor as it reads and writes", func() {
		m := mem.NewFlat()
		cur := m.Frame(0)
		Expect(cur.WriteU8(1)).To(Succeed())
		Expect(cur.WriteU8(2)).To(Succeed())

		cur2 := m.Frame(0)
		a, _ := cur2.ReadU8()
		b, _ := cur2.ReadU8()
		Expect(a).To(Equal(uint8(1)))
		Expect(b).To(Equal(uint8(2)))
	})

	It("reports a watchpoint hit within its range, inclusive of the end byte", func() {
		m := mem.NewFlat()
		m.AddWatchpoint(0x2000, 4, mem.WatchWrite)

		_, hit := m.HitWatchpoint(0x2003, 1, true)
		Expect(hit).To(BeTrue())

		_, hit = m.HitWatchpoint(0x2004, 1, true)
		Expect(hit).To(BeFalse())

		_, hit = m.HitWatchpoint(0x2000, 1, false)
		Expect(hit).To(BeFalse(), "a write-only watchpoint must not fire on reads")
	})

	It("removes a watchpoint matching range and kind", func() {
		m := mem.NewFlat()
		m.AddWatchpoint(0x3000, 8, mem.WatchRead)
		m.RemoveWatchpoint(0x3000, 8, mem.WatchRead)
		Expect(m.Watchpoints()).To(BeEmpty())
	})
})
