package bitstream_test

import (
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/switchmatrix"
)

var testLayout = fabric.Layout{FrameBitsPerRow: 8, MaxFramesPerCol: 2}

// muxTile has one destination OUT0 with the candidate sources A and B, and
// a Bel with a 2 bit feature and a bit that defaults to one.
func muxTile(enc fabric.MuxEncoding) (*fabric.Tile, *switchmatrix.Matrix, *configmem.Table) {
	return muxTileIn(enc, testLayout, configmem.Options{})
}

func muxTileIn(
	enc fabric.MuxEncoding,
	layout fabric.Layout,
	opts configmem.Options,
) (*fabric.Tile, *switchmatrix.Matrix, *configmem.Table) {
	src, err := fabric.ParseBel([]byte(`
name: SRC
inputs: []
outputs: [A, B]
features:
  - {name: MODE, width: 2}
  - {name: EN, default: 1}
`), "inline", "")
	Expect(err).NotTo(HaveOccurred())

	t, err := fabric.NewTile("MUX",
		fabric.NewPortPair(fabric.North, "OUT", 0, -1, fabric.NullName, 1),
		[]fabric.Bel{src}, "mux.list")
	Expect(err).NotTo(HaveOccurred())

	c := switchmatrix.NewConnectivity()
	c.Add("OUT0", "A")
	c.Add("OUT0", "B")

	m, err := switchmatrix.Synthesize(t, c, enc)
	Expect(err).NotTo(HaveOccurred())

	table, err := configmem.Allocate(t.Name(), layout,
		configmem.Groups(t, m), opts)
	Expect(err).NotTo(HaveOccurred())

	return t, m, table
}

// testFabric is a 2x2 grid with one empty cell.
func testFabric() (*fabric.Fabric, *bitstream.FabricSpec) {
	t, m, table := muxTile(fabric.OneHot)

	ts, err := bitstream.GenerateTileSpec(t, m, table)
	Expect(err).NotTo(HaveOccurred())

	f, err := fabric.NewFabric(
		fabric.Params{Name: "test", Layout: testLayout},
		[][]string{{"MUX", ""}, {"MUX", "MUX"}},
		[]*fabric.Tile{t}, nil)
	Expect(err).NotTo(HaveOccurred())

	spec, err := bitstream.ComposeFabricSpec(f,
		map[string]*bitstream.TileSpec{"MUX": ts})
	Expect(err).NotTo(HaveOccurred())

	return f, spec
}

// overflowFabric is a 1x2 grid of a tile with 5 bits in frames of 4 bits
// and a single frame per column, allocated past the capacity check.
func overflowFabric() *bitstream.FabricSpec {
	layout := fabric.Layout{FrameBitsPerRow: 4, MaxFramesPerCol: 1}
	t, m, table := muxTileIn(fabric.OneHot, layout, configmem.Options{IgnoreCapacity: true})
	Expect(table.Frames).To(Equal(2))

	ts, err := bitstream.GenerateTileSpec(t, m, table)
	Expect(err).NotTo(HaveOccurred())

	f, err := fabric.NewFabric(
		fabric.Params{Name: "overflow", Layout: layout},
		[][]string{{"MUX", "MUX"}},
		[]*fabric.Tile{t}, nil)
	Expect(err).NotTo(HaveOccurred())

	spec, err := bitstream.ComposeFabricSpec(f,
		map[string]*bitstream.TileSpec{"MUX": ts})
	Expect(err).NotTo(HaveOccurred())

	return spec
}
