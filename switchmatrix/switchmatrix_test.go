package switchmatrix_test

import (
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/switchmatrix"
)

func testTile(matrix string) *fabric.Tile {
	bel, err := fabric.ParseBel([]byte(`
name: LUT1
inputs: [I0, I1, CLK]
outputs: [O]
config_bits: 2
ports:
  CLK: {shared: true}
`), "inline", "L_")
	Expect(err).NotTo(HaveOccurred())

	t, err := fabric.NewTile("T",
		fabric.NewPortPair(fabric.North, "N1BEG", 0, -1, "N1END", 2),
		[]fabric.Bel{bel}, matrix)
	Expect(err).NotTo(HaveOccurred())

	return t
}

var _ = Describe("Connectivity", func() {
	It("should expand lists and keep declaration order", func() {
		c, err := switchmatrix.ParseList("testdata/tile.list")
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Routes()).To(Equal([]switchmatrix.Route{
			{Dest: "N1BEG0", Sources: []string{"N1END1"}},
			{Dest: "N1BEG1", Sources: []string{"N1END0"}},
			{Dest: "L_I0", Sources: []string{"N1END0", "N1END1"}},
			{Dest: "L_I1", Sources: []string{"L_O", "GND"}},
		}))
	})

	It("should parse an adjacency matrix", func() {
		c, err := switchmatrix.ParseMatrixCSV("testdata/T.csv", "T")
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Sources("L_I0")).To(Equal([]string{"N1END0", "N1END1"}))
		Expect(c.Sources("L_I1")).To(Equal([]string{"L_O", "VCC"}))
		Expect(c.Routes()).To(HaveLen(4))
	})

	It("should reject a matrix of another tile", func() {
		_, err := switchmatrix.ParseMatrixCSV("testdata/T.csv", "OTHER")
		var me *fabric.ModelError
		Expect(errors.As(err, &me)).To(BeTrue())
	})

	It("should reject unequal alternatives", func() {
		_, err := switchmatrix.ParseList("testdata/bad_zip.list")
		var me *fabric.ModelError
		Expect(errors.As(err, &me)).To(BeTrue())
		Expect(me.Reason).To(ContainSubstring("2 destinations but 3 sources"))
	})

	It("should dispatch on the file extension", func() {
		c, err := switchmatrix.Parse("testdata/T.csv", "T")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Routes()).To(HaveLen(4))

		_, err = switchmatrix.Parse("testdata/T.vhdl", "T")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Synthesize", func() {
	It("should build one-hot muxes", func() {
		t := testTile("testdata/tile.list")
		c, err := switchmatrix.ParseList(t.MatrixPath())
		Expect(err).NotTo(HaveOccurred())

		m, err := switchmatrix.Synthesize(t, c, fabric.OneHot)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Inputs).To(Equal([]string{"N1END0", "N1END1", "L_O"}))
		Expect(m.Outputs).To(Equal([]string{"N1BEG0", "N1BEG1", "L_I0", "L_I1"}))
		Expect(m.Muxes).To(HaveLen(4))
		Expect(m.Muxes[0].ConfigBits).To(Equal(0))
		Expect(m.Muxes[0].Fixed()).To(BeTrue())
		Expect(m.Muxes[2].ConfigBits).To(Equal(2))
		Expect(m.TotalBits()).To(Equal(4))
	})

	It("should give single-source destinations no bits", func() {
		c := switchmatrix.NewConnectivity()
		c.Add("N1BEG0", "N1END0")
		c.Add("N1BEG1", "N1END1")
		c.Add("L_I0", "N1END0")
		c.Add("L_I1", "L_O")

		m, err := switchmatrix.Synthesize(testTile("m.list"), c, fabric.OneHot)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.TotalBits()).To(Equal(0))

		for _, mux := range m.Muxes {
			Expect(mux.ConfigBits).To(Equal(0))
		}
	})

	It("should select source i with bit i", func() {
		c := switchmatrix.NewConnectivity()
		c.Add("N1BEG0", "N1END0")
		c.Add("N1BEG1", "N1END1")
		c.Add("L_I0", "N1END0")
		c.Add("L_I0", "N1END1")
		c.Add("L_I1", "L_O")

		m, err := switchmatrix.Synthesize(testTile("m.list"), c, fabric.OneHot)
		Expect(err).NotTo(HaveOccurred())

		mux, ok := m.Mux("L_I0")
		Expect(ok).To(BeTrue())
		Expect(mux.ConfigBits).To(Equal(2))
		Expect(mux.SelectPattern(0)).To(Equal([]bool{true, false}))
		Expect(mux.SelectPattern(1)).To(Equal([]bool{false, true}))
	})

	It("should use fewer bits with binary encoding", func() {
		Expect(switchmatrix.BitCount(1, fabric.Binary)).To(Equal(0))
		Expect(switchmatrix.BitCount(2, fabric.Binary)).To(Equal(1))
		Expect(switchmatrix.BitCount(4, fabric.Binary)).To(Equal(2))
		Expect(switchmatrix.BitCount(5, fabric.Binary)).To(Equal(3))
		Expect(switchmatrix.BitCount(5, fabric.OneHot)).To(Equal(5))

		mux := switchmatrix.Mux{
			Sources:    []string{"A", "B", "C"},
			ConfigBits: 2,
			Encoding:   fabric.Binary,
		}
		Expect(mux.SelectPattern(2)).To(Equal([]bool{false, true}))
	})

	It("should collect every unrouted destination", func() {
		c := switchmatrix.NewConnectivity()
		c.Add("N1BEG0", "N1END0")

		_, err := switchmatrix.Synthesize(testTile("m.list"), c, fabric.OneHot)

		var nre *switchmatrix.NoRouteError
		Expect(errors.As(err, &nre)).To(BeTrue())
		Expect(nre.Tile).To(Equal("T"))
		Expect(nre.Pins).To(Equal([]string{"N1BEG1", "L_I0", "L_I1"}))
	})

	It("should reject unknown endpoints", func() {
		c := switchmatrix.NewConnectivity()
		c.Add("L_I0", "NOPE")

		_, err := switchmatrix.Synthesize(testTile("m.list"), c, fabric.OneHot)
		var me *fabric.ModelError
		Expect(errors.As(err, &me)).To(BeTrue())
		Expect(me.Reason).To(ContainSubstring("unknown source NOPE"))

		c = switchmatrix.NewConnectivity()
		c.Add("CLK", "L_O")

		_, err = switchmatrix.Synthesize(testTile("m.list"), c, fabric.OneHot)
		Expect(errors.As(err, &me)).To(BeTrue())
		Expect(me.Reason).To(ContainSubstring("unknown destination CLK"))
	})

	It("should treat constants as sources", func() {
		Expect(switchmatrix.IsConstant("VCC0")).To(BeTrue())
		Expect(switchmatrix.IsConstant("N1END0")).To(BeFalse())
		Expect(switchmatrix.ConstantValue("GND")).To(BeFalse())
		Expect(switchmatrix.ConstantValue("VDD")).To(BeTrue())
		Expect(switchmatrix.ConstantValue("1")).To(BeTrue())
	})
})
