package hdl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/hdl"
)

var _ = Describe("Emitter", func() {
	DescribeTable("should render expressions",
		func(e hdl.Expr, verilog, vhdl string) {
			Expect(hdl.Verilog{}.Expr(e)).To(Equal(verilog))
			Expect(hdl.VHDL{}.Expr(e)).To(Equal(vhdl))
		},
		Entry("ref", hdl.Ref{Name: "A"}, "A", "A"),
		Entry("index", hdl.Index{Name: "A", Index: 2}, "A[2]", "A(2)"),
		Entry("slice", hdl.Slice{Name: "A", Hi: 3, Lo: 1}, "A[3:1]", "A(3 downto 1)"),
		Entry("concat",
			hdl.Concat{Parts: []hdl.Expr{hdl.Ref{Name: "a"}, hdl.Index{Name: "b", Index: 0}}},
			"{a, b[0]}", "(a & b(0))"),
		Entry("bit", hdl.Const{Width: 1, Value: 1}, "1'b1", "'1'"),
		Entry("vector", hdl.Const{Width: 3, Value: 5}, "3'b101", `"101"`),
	)

	It("should render a module in Verilog", func() {
		out := render(hdl.Verilog{}, []hdl.Request{
			hdl.Module{
				Name:   "top",
				Params: []hdl.Param{{Name: "W", Value: 4}},
				Ports: []hdl.Port{
					hdl.Bus("A", hdl.In, 4),
					hdl.Scalar("Y", hdl.Out),
				},
			},
			hdl.Comment{Text: "glue"},
			hdl.Assign{Target: hdl.Ref{Name: "Y"}, Value: hdl.Index{Name: "t", Index: 0}},
			hdl.Signal{Name: "t", Width: 2, Vector: true},
			hdl.Instance{
				Module: "cell",
				Name:   "u0",
				Params: []hdl.Param{{Name: "N", Value: 2}},
				Ports: []hdl.PortMap{
					{Formal: "I", Actual: hdl.Slice{Name: "A", Hi: 1, Lo: 0}},
					{Formal: "O", Actual: hdl.Ref{Name: "t"}},
				},
			},
		})

		Expect(out).To(Equal(`module top #(
    parameter W = 4
) (
    input [3:0] A,
    output Y
);
    wire [1:0] t;

    // glue
    assign Y = t[0];
    cell #(.N(2)) u0 (
        .I(A[1:0]),
        .O(t)
    );
endmodule
`))
	})

	It("should render a module in VHDL", func() {
		out := render(hdl.VHDL{}, []hdl.Request{
			hdl.Module{
				Name:  "top",
				Ports: []hdl.Port{hdl.Bus("A", hdl.In, 1), hdl.Scalar("Y", hdl.Out)},
			},
			hdl.Assign{Target: hdl.Ref{Name: "Y"}, Value: hdl.Index{Name: "A", Index: 0}},
		})

		Expect(out).To(Equal(`library ieee;
use ieee.std_logic_1164.all;

entity top is
    port (
        A : in std_logic_vector(0 downto 0);
        Y : out std_logic
    );
end entity top;

architecture structural of top is
begin
    Y <= A(0);
end architecture structural;
`))
	})

	It("should reject requests outside of a module", func() {
		_, err := hdl.Render(hdl.Verilog{}, []hdl.Request{hdl.Comment{Text: "x"}})
		Expect(err).To(HaveOccurred())
	})

	It("should look emitters up by name", func() {
		e, err := hdl.ByName("VHDL")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Extension()).To(Equal(".vhdl"))

		e, err = hdl.ByName("verilog")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Extension()).To(Equal(".v"))

		_, err = hdl.ByName("chisel")
		Expect(err).To(HaveOccurred())
	})
})
