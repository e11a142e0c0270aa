package hdl_test

import (
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/hdl"
	"github.com/sarchlab/fabgen/switchmatrix"
)

var testLayout = fabric.Layout{FrameBitsPerRow: 8, MaxFramesPerCol: 2}

// lutTile has a double-span north bus, a jump wire, and one Bel with a
// shared clock, an external pad and a 2 bit INIT feature. L_I0 chooses
// between three sources.
func lutTile() (*fabric.Tile, *switchmatrix.Matrix, *configmem.Table) {
	bel, err := fabric.ParseBel([]byte(`
name: LUT
inputs: [I0, CLK, PAD]
outputs: [O]
features:
  - {name: INIT, width: 2}
ports:
  CLK: {shared: true}
  PAD: {external: true}
`), "inline", "L_")
	Expect(err).NotTo(HaveOccurred())

	ports := fabric.NewPortPair(fabric.North, "N2BEG", 0, -2, "N2END", 1)
	ports = append(ports,
		fabric.NewPortPair(fabric.Jump, "J_BEG", 0, 0, "J_END", 1)...)

	t, err := fabric.NewTile("T", ports, []fabric.Bel{bel}, "T.list")
	Expect(err).NotTo(HaveOccurred())

	c := switchmatrix.NewConnectivity()
	c.Add("N2BEG0", "L_O")
	c.Add("J_BEG0", "N2END0")
	c.Add("L_I0", "N2END0")
	c.Add("L_I0", "J_END0")
	c.Add("L_I0", "GND")

	m, err := switchmatrix.Synthesize(t, c, fabric.OneHot)
	Expect(err).NotTo(HaveOccurred())

	table, err := configmem.Allocate(t.Name(), testLayout,
		configmem.Groups(t, m), configmem.Options{})
	Expect(err).NotTo(HaveOccurred())

	return t, m, table
}

func render(e hdl.Emitter, reqs []hdl.Request) string {
	out, err := hdl.Render(e, reqs)
	Expect(err).NotTo(HaveOccurred())

	return out
}

// routeOnlyTile has no Bels and a single fixed connection.
func routeOnlyTile() (*fabric.Tile, *switchmatrix.Matrix, *configmem.Table) {
	t, err := fabric.NewTile("R",
		fabric.NewPortPair(fabric.East, "E1BEG", 1, 0, "E1END", 1),
		nil, "R.list")
	Expect(err).NotTo(HaveOccurred())

	c := switchmatrix.NewConnectivity()
	c.Add("E1BEG0", "E1END0")

	m, err := switchmatrix.Synthesize(t, c, fabric.OneHot)
	Expect(err).NotTo(HaveOccurred())

	table, err := configmem.Allocate(t.Name(), testLayout,
		configmem.Groups(t, m), configmem.Options{})
	Expect(err).NotTo(HaveOccurred())

	return t, m, table
}
