package compiler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/compiler"
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/register"
)

var _ = Describe("SIMD/FP lowering", func() {
	It("lowers FMOV (general to scalar) to a same-width register copy", func() {
		inst := insts.Inst{Op: insts.OpFmovGprToFpr, Sf: true, Rn: register.X1, Rd: register.V(2)}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprValue))
		Expect(items[0].Expr.Type).To(Equal(ir.U64))
		Expect(items[0].Dest.Kind).To(Equal(ir.DestFpr))
	})

	It("lowers scalar FADD to an Add over same-width Fpr operands", func() {
		inst := insts.Inst{Op: insts.OpFaddScalar, Sf: false, Rd: register.V(0), Rn: register.V(1), Rm: register.V(2)}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprAdd))
		Expect(items[0].Expr.Type).To(Equal(ir.F32))
		Expect(items[0].Expr.A.Kind).To(Equal(ir.OperandFpr))
		Expect(items[0].Expr.B.Kind).To(Equal(ir.OperandFpr))
	})

	It("lowers three-same vector ADD at the arrangement's element type", func() {
		inst := insts.Inst{
			Op: insts.OpVaddVec, Q: true, Arrangement: 4, Rd: register.V(0), Rn: register.V(1), Rm: register.V(2),
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprAdd))
		Expect(items[0].Expr.Type.Kind).To(Equal(ir.KindVec))
		Expect(items[0].Expr.Type.Lanes).To(Equal(uint8(4)))
	})

	It("lowers DUP (general) to one FprSlot write per lane", func() {
		inst := insts.Inst{Op: insts.OpDupGen, Q: true, Size: 32, Rd: register.V(0), Rn: register.X1}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(4))
		for i, it := range items {
			Expect(it.Dest.Kind).To(Equal(ir.DestFprSlot))
			Expect(it.Dest.Lane).To(Equal(uint8(i)))
			Expect(it.Expr.Type).To(Equal(ir.U32))
		}
	})

	It("lowers UMOV to a zero-extending read of lane 0", func() {
		inst := insts.Inst{Op: insts.OpUmov, Size: 16, Rd: register.X0, Rn: register.V(1)}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprZextCast))
		Expect(items[0].Expr.Type).To(Equal(ir.U64))
		Expect(items[0].Expr.A.GetType()).To(Equal(ir.U16))
	})

	It("lowers MOVI (vector immediate) by broadcasting the expanded pattern across every 64-bit half", func() {
		// cmode=0b1110, op=0: per-byte replication, imm8=0xff -> all-ones
		// 64-bit pattern (8 copies of the byte).
		inst := insts.Inst{Op: insts.OpMoviVec, Q: true, Cmode: 0b1110, MoviOp: 0, Imm: 0xff, Rd: register.V(3)}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(2))
		for i, it := range items {
			Expect(it.Dest.Kind).To(Equal(ir.DestFprSlot))
			Expect(it.Dest.Lane).To(Equal(uint8(i)))
			Expect(it.Expr.Kind).To(Equal(ir.ExprValue))
			Expect(it.Expr.A.Kind).To(Equal(ir.OperandImmediate))
			Expect(it.Expr.A.Imm).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
		}
	})

	It("lowers MOVI (vector immediate) for the 64-bit (non-Q) view to a single half", func() {
		inst := insts.Inst{Op: insts.OpMoviVec, Q: false, Cmode: 0b1110, MoviOp: 0, Imm: 0x0f, Rd: register.V(4)}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Dest.Lane).To(Equal(uint8(0)))
	})
})
