package compiler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a64dbt/compiler"
	"github.com/sarchlab/a64dbt/insts"
	"github.com/sarchlab/a64dbt/ir"
	"github.com/sarchlab/a64dbt/register"
)

var _ = Describe("Load/store lowering", func() {
	It("lowers LDRB to a zero-extending byte load", func() {
		inst := insts.Inst{
			Op: insts.OpLdrbImm, Rt: register.X0, Rn: register.X1, SImm: 4,
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprZextCast))
		Expect(items[0].Expr.Type).To(Equal(ir.U64))

		load := items[0].Expr.A.Expr
		Expect(load.Kind).To(Equal(ir.ExprLoad))
		Expect(load.Type).To(Equal(ir.U8))
		Expect(items[0].Dest.Reg).To(Equal(register.X0))
	})

	It("lowers LDRSW to a sign-extending word load", func() {
		inst := insts.Inst{Op: insts.OpLdrswImm, Rt: register.X2, Rn: register.X3}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprSextCast))
		Expect(items[0].Expr.A.Expr.Type).To(Equal(ir.I32))
	})

	It("lowers STR (immediate) to a memory destination at the register's width", func() {
		inst := insts.Inst{Op: insts.OpStrImm, Rt: register.X4, Rn: register.X5, SImm: 8, Size: 8}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Dest.Kind).To(Equal(ir.DestMemoryIr))
		Expect(items[0].Dest.Type).To(Equal(ir.U64))

		addr := items[0].Dest.Expr
		Expect(addr.Kind).To(Equal(ir.ExprAdd))
		Expect(addr.B.Imm).To(Equal(uint64(8)))
	})

	It("lowers STR with post-index write-back to an unoffset store plus a trailing Rn update", func() {
		inst := insts.Inst{
			Op: insts.OpStrImm, Rt: register.X4, Rn: register.X5, SImm: 8, Size: 8,
			WriteBack: true, PostIndex: true,
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(2))
		Expect(items[0].Dest.Kind).To(Equal(ir.DestMemoryIr))
		Expect(items[0].Dest.Expr.B.Imm).To(Equal(uint64(0)))
		Expect(items[1].Dest.Kind).To(Equal(ir.DestGpr))
		Expect(items[1].Dest.Reg).To(Equal(register.X5))
	})

	It("lowers LDR with pre-index write-back to an offset load plus a trailing Rn update", func() {
		inst := insts.Inst{
			Op: insts.OpLdrImm, Rt: register.X4, Rn: register.X5, SImm: 16, Size: 8,
			WriteBack: true, PostIndex: false,
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(2))
		load := items[0].Expr.A.Expr
		addr := load.A.Expr
		Expect(addr.B.Imm).To(Equal(uint64(16)))
		Expect(items[1].Dest.Kind).To(Equal(ir.DestGpr))
		Expect(items[1].Dest.Reg).To(Equal(register.X5))
	})

	It("substitutes an immediate zero for STR from the zero register", func() {
		inst := insts.Inst{Op: insts.OpStrbImm, Rt: register.Xzr, Rn: register.X5}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.A.Kind).To(Equal(ir.OperandImmediate))
		Expect(items[0].Expr.A.Imm).To(Equal(uint64(0)))
	})

	It("lowers LDP to two loads at the pair's element width plus write-back", func() {
		inst := insts.Inst{
			Op: insts.OpLdpImm, Sf: true, Rt: register.X0, Rt2: register.X1,
			Rn: register.X2, SImm: 16, WriteBack: true, PostIndex: true,
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items).To(HaveLen(3))
		Expect(items[0].Dest.Reg).To(Equal(register.X0))
		Expect(items[1].Dest.Reg).To(Equal(register.X1))
		Expect(items[2].Dest.Reg).To(Equal(register.X2))
	})

	It("treats LDPSW's pair as 4-byte signed regardless of Sf", func() {
		inst := insts.Inst{
			Op: insts.OpLdpswImm, Sf: true, Rt: register.X0, Rt2: register.X1, Rn: register.X2,
		}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprSextCast))
		Expect(items[0].Expr.A.Expr.Type).To(Equal(ir.I32))
	})

	It("lowers LDR (literal) to an Ip-relative load", func() {
		inst := insts.Inst{Op: insts.OpLdrLit, Rt: register.X6, SImm: 256}

		b, err := compiler.Compile(inst)
		Expect(err).ToNot(HaveOccurred())

		items := b.Items()
		Expect(items[0].Expr.Kind).To(Equal(ir.ExprLoad))
		addr := items[0].Expr.A.Expr
		Expect(addr.Kind).To(Equal(ir.ExprAdd))
		Expect(addr.A.Kind).To(Equal(ir.OperandIp))
	})
})
