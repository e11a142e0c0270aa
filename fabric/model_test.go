package fabric_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/fabric"
)

func simpleBel(name, prefix string) fabric.Bel {
	b, err := fabric.ParseBel([]byte(`
name: `+name+`
inputs: [I0, I1]
outputs: [O]
features:
  - {name: INIT, width: 2}
  - {name: EN, default: 1}
`), "inline", prefix)
	Expect(err).NotTo(HaveOccurred())

	return b
}

var _ = Describe("Port", func() {
	It("should derive the physical width from the span", func() {
		ports := fabric.NewPortPair(fabric.East, "E2BEG", 2, 0, "E2END", 4)
		Expect(ports).To(HaveLen(2))

		out, in := ports[0], ports[1]
		Expect(out.Side).To(Equal(fabric.EastSide))
		Expect(in.Side).To(Equal(fabric.WestSide))
		Expect(out.Width()).To(Equal(8))
		Expect(out.BusIndex(1)).To(Equal(1))
		Expect(in.BusIndex(1)).To(Equal(5))
		Expect(in.SwitchPins()).To(Equal(
			[]string{"E2END0", "E2END1", "E2END2", "E2END3"}))
	})

	It("should skip NULL ends", func() {
		ports := fabric.NewPortPair(fabric.West, "W_BEG", -1, 0, "NULL", 1)
		Expect(ports).To(HaveLen(1))
		Expect(ports[0].IO).To(Equal(fabric.Output))
	})

	It("should keep jump ports on any side", func() {
		ports := fabric.NewPortPair(fabric.Jump, "J_BEG", 0, 0, "J_END", 1)
		Expect(ports[0].Side).To(Equal(fabric.AnySide))
		Expect(ports[1].Side).To(Equal(fabric.AnySide))
		Expect(ports[0].Width()).To(Equal(1))
	})

	It("should step one tile towards the destination", func() {
		ports := fabric.NewPortPair(fabric.North, "N4BEG", 0, -4, "N4END", 2)
		out, in := ports[0], ports[1]

		x, y := out.Adjacent(3, 5)
		Expect([]int{x, y}).To(Equal([]int{3, 4}))

		x, y = in.Upstream(3, 4)
		Expect([]int{x, y}).To(Equal([]int{3, 5}))

		Expect(out.Pairs(in)).To(BeTrue())
		Expect(out.Pairs(fabric.NewPortPair(fabric.North, "N4BEG", 0, -4, "N4END", 1)[0])).
			To(BeFalse())
	})
})

var _ = Describe("Bel", func() {
	It("should name bits after features", func() {
		b := simpleBel("LUT", "L_")
		Expect(b.ConfigBits).To(Equal(3))
		Expect(b.BitNames()).To(Equal([]string{"INIT[0]", "INIT[1]", "EN"}))
		Expect(b.BitDefaults()).To(Equal([]bool{false, false, true}))
	})

	It("should name uncovered bits by position", func() {
		b, err := fabric.ParseBel([]byte(`
name: RAW
inputs: [A]
outputs: [B]
config_bits: 3
features:
  - {name: X}
`), "inline", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Instance()).To(Equal("RAW"))
		Expect(b.BitNames()).To(Equal([]string{"X", "1", "2"}))
	})

	It("should classify flagged pins", func() {
		b, err := fabric.ParseBel([]byte(`
name: IOB
inputs: [T, PAD, CLK, ConfigBits]
outputs: [Q, PADO]
config_bits: 1
ports:
  PAD: {external: true}
  PADO: {external: true}
  CLK: {shared: true}
  ConfigBits: {global: true}
`), "inline", "A_")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.RoutedInputs()).To(Equal([]string{"T"}))
		Expect(b.RoutedOutputs()).To(Equal([]string{"Q"}))

		global, ok := b.GlobalPort()
		Expect(ok).To(BeTrue())
		Expect(global).To(Equal("ConfigBits"))
	})

	It("should reject duplicate port names", func() {
		_, err := fabric.ParseBel([]byte(`
name: D
inputs: [A, A]
outputs: [B]
`), "d.yaml", "")
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("duplicate port name A"))
	})

	It("should reject more than one global port", func() {
		_, err := fabric.ParseBel([]byte(`
name: G
inputs: [A, B]
outputs: [C]
ports:
  A: {global: true}
  B: {global: true}
`), "g.yaml", "")
		expectModelError(err)
	})

	It("should reject features wider than the config bits", func() {
		_, err := fabric.ParseBel([]byte(`
name: W
inputs: [A]
outputs: [B]
config_bits: 1
features:
  - {name: F, width: 2}
`), "w.yaml", "")
		expectModelError(err)
	})
})

var _ = Describe("Tile", func() {
	It("should reject duplicate bel instances", func() {
		_, err := fabric.NewTile("T", nil,
			[]fabric.Bel{simpleBel("A", "X_"), simpleBel("B", "X_")}, "m.list")
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("duplicate bel instance X"))
	})

	It("should find the ports on both ends of a wire", func() {
		ports := append(
			fabric.NewPortPair(fabric.East, "E1BEG", 1, 0, "E1END", 4),
			fabric.NewPortPair(fabric.West, "W1BEG", -1, 0, "W1END", 4)...)

		t, err := fabric.NewTile("T", ports, nil, "m.list")
		Expect(err).NotTo(HaveOccurred())

		in, ok := t.InputFor(ports[0])
		Expect(ok).To(BeTrue())
		Expect(in.Name).To(Equal("E1END"))

		out, ok := t.OutputFor(ports[3])
		Expect(ok).To(BeTrue())
		Expect(out.Name).To(Equal("W1BEG"))

		Expect(t.PortsOnSide(fabric.EastSide)).To(HaveLen(2))

		_, ok = t.InputFor(fabric.NewPortPair(fabric.North, "N1BEG", 0, -1, "N1END", 4)[0])
		Expect(ok).To(BeFalse())
	})

	It("should reject a port name used on two sides", func() {
		ports := append(
			fabric.NewPortPair(fabric.North, "X", 0, -1, fabric.NullName, 1),
			fabric.NewPortPair(fabric.East, "X", 1, 0, fabric.NullName, 1)...)

		_, err := fabric.NewTile("T", ports, nil, "m.list")
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("switch pin X0 of port X (East OUTPUT) clashes with port X (North OUTPUT)"))
	})

	It("should reject a port pin that matches a bel pin", func() {
		_, err := fabric.NewTile("T",
			fabric.NewPortPair(fabric.North, "I", 0, -1, "A", 1),
			[]fabric.Bel{simpleBel("LUT", "")}, "m.list")
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("bel pin I0 of LUT clashes with port I"))
	})

	It("should reject a port without wires", func() {
		_, err := fabric.NewTile("T",
			fabric.NewPortPair(fabric.South, "S1BEG", 0, 1, "S1END", 0), nil, "m.list")
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("wire count 0"))
	})
})

var _ = Describe("SuperTile", func() {
	var top, bot *fabric.Tile

	BeforeEach(func() {
		var err error
		top, err = fabric.NewTile("TOP",
			fabric.NewPortPair(fabric.South, "S_BEG", 0, 1, "S_END", 2),
			nil, "top.list")
		Expect(err).NotTo(HaveOccurred())

		bot, err = fabric.NewTile("BOT",
			fabric.NewPortPair(fabric.South, "S_BEG", 0, 1, "S_END", 2),
			nil, "bot.list")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should split internal and external ports", func() {
		st, err := fabric.NewSuperTile("ST", [][]*fabric.Tile{{top}, {bot}})
		Expect(err).NotTo(HaveOccurred())

		Expect(st.Rows()).To(Equal(2))
		Expect(st.Columns()).To(Equal(1))
		Expect(st.InternalLinks()).To(HaveLen(1))

		Expect(st.InternalPorts(0, 0)).To(HaveLen(1))
		Expect(st.InternalPorts(0, 0)[0].Name).To(Equal("S_BEG"))
		Expect(st.ExternalPorts(0, 0)[0].Name).To(Equal("S_END"))
		Expect(st.InternalPorts(0, 1)[0].Name).To(Equal("S_END"))
		Expect(st.ExternalPorts(0, 1)[0].Name).To(Equal("S_BEG"))
	})

	It("should reject mismatched bus widths", func() {
		narrow, err := fabric.NewTile("NARROW",
			fabric.NewPortPair(fabric.South, "S_BEG", 0, 1, "S_END", 1),
			nil, "n.list")
		Expect(err).NotTo(HaveOccurred())

		_, err = fabric.NewSuperTile("ST", [][]*fabric.Tile{{top}, {narrow}})
		me := expectModelError(err)
		Expect(me.Reason).To(ContainSubstring("bus width mismatch"))
	})

	It("should load the super tile of the test fabric", func() {
		f, err := fabric.Load("testdata/fabric.csv")
		Expect(err).NotTo(HaveOccurred())

		st, ok := f.SuperTile("DSP")
		Expect(ok).To(BeTrue())
		Expect(st.TileAt(0, 0).Name()).To(Equal("DSP_top"))
		Expect(st.TileAt(0, 1).Name()).To(Equal("DSP_bot"))
		Expect(st.Tiles()).To(HaveLen(2))
	})
})

var _ = Describe("Fabric", func() {
	It("should reject a ragged grid", func() {
		t, err := fabric.NewTile("T", nil, nil, "t.list")
		Expect(err).NotTo(HaveOccurred())

		_, err = fabric.NewFabric(fabric.Params{Layout: fabric.DefaultLayout},
			[][]string{{"T", "T"}, {"T"}}, []*fabric.Tile{t}, nil)
		expectModelError(err)
	})
})
