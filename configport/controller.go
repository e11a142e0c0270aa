// Package configport simulates programming a fabric through its frame
// interface. A controller drives one frame strobe per cycle while every row
// receives its frame data, the same way the generated ConfigMem latches are
// loaded in hardware.
package configport

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/util"
)

// HookPosFrameWrite marks the cycle a frame is strobed into a column.
var HookPosFrameWrite = &sim.HookPos{Name: "Frame Write"}

// FrameWrite is the hook item of HookPosFrameWrite.
type FrameWrite struct {
	Column int
	Frame  int
}

// Controller streams an image into the frame latches of a fabric.
type Controller struct {
	*sim.TickingComponent

	spec    *bitstream.FabricSpec
	latches [][]*tileLatch

	image  *bitstream.Image
	step   int
	cycles int
}

// Program starts loading img. The engine must be run afterwards.
func (c *Controller) Program(img *bitstream.Image) error {
	if img.Size() != c.spec.Size() {
		return errors.Errorf("image has %d bits, the fabric needs %d",
			img.Size(), c.spec.Size())
	}

	c.image = img
	c.step = 0
	c.TickNow()

	return nil
}

// Cycles returns the number of frame writes performed so far.
func (c *Controller) Cycles() int {
	return c.cycles
}

// Done reports whether every frame of the current image was written.
func (c *Controller) Done() bool {
	return c.image != nil && c.step >= c.steps()
}

func (c *Controller) steps() int {
	return c.spec.Cols * c.spec.Layout.MaxFramesPerCol
}

// Tick strobes one frame of one column.
func (c *Controller) Tick() (madeProgress bool) {
	if c.image == nil || c.step >= c.steps() {
		return false
	}

	frames := c.spec.Layout.MaxFramesPerCol
	x, f := c.step/frames, c.step%frames

	for y := 0; y < c.spec.Rows; y++ {
		l := c.latches[y][x]
		if l == nil {
			continue
		}

		l.strobe(f, c.image.FrameData(c.spec, x, y, f))
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFrameWrite,
		Item:   FrameWrite{Column: x, Frame: f},
	})

	util.Trace("Frame written", "column", x, "frame", f)

	c.step++
	c.cycles++

	return true
}

// ConfigBits reads back the configuration of the tile at (x, y), in
// logical bit order. It returns nil for an empty cell.
func (c *Controller) ConfigBits(x, y int) []bool {
	if y < 0 || y >= len(c.latches) || x < 0 || x >= len(c.latches[y]) {
		return nil
	}

	l := c.latches[y][x]
	if l == nil {
		return nil
	}

	return l.configBits()
}

// Verify compares the configuration held by every tile with img.
func (c *Controller) Verify(img *bitstream.Image) *Report {
	r := &Report{
		Cycles: c.cycles,
		Time:   c.Engine.CurrentTime(),
	}

	for y, row := range c.latches {
		for x, l := range row {
			if l == nil {
				continue
			}

			r.Tiles = append(r.Tiles, verifyTile(c.spec, img, l, x, y))
		}
	}

	return r
}

func verifyTile(
	spec *bitstream.FabricSpec,
	img *bitstream.Image,
	l *tileLatch,
	x, y int,
) TileReport {
	tr := TileReport{X: x, Y: y, Tile: l.table.Tile, Bits: l.table.TotalBits}
	got := l.configBits()

	for _, e := range l.table.Entries {
		if e.Frame >= spec.Layout.MaxFramesPerCol {
			tr.Unreachable += e.Width
			continue
		}

		for k := 0; k < e.Width; k++ {
			logical := e.Logical + k
			want := img.Bit(spec.Address(x, y, e.Frame, e.Bit+k))

			if want {
				tr.Set++
			}

			if got[logical] != want {
				tr.Mismatches = append(tr.Mismatches, logical)
			}
		}
	}

	return tr
}

// ControllerBuilder creates controllers.
type ControllerBuilder struct {
	engine sim.Engine
	freq   sim.Freq
	spec   *bitstream.FabricSpec
	tables map[string]*configmem.Table
}

// WithEngine sets the engine.
func (b ControllerBuilder) WithEngine(engine sim.Engine) ControllerBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frame clock.
func (b ControllerBuilder) WithFreq(freq sim.Freq) ControllerBuilder {
	b.freq = freq
	return b
}

// WithSpec sets the fabric to program.
func (b ControllerBuilder) WithSpec(spec *bitstream.FabricSpec) ControllerBuilder {
	b.spec = spec
	return b
}

// WithTables sets the ConfigMem table of every tile type.
func (b ControllerBuilder) WithTables(tables map[string]*configmem.Table) ControllerBuilder {
	b.tables = tables
	return b
}

// Build creates a controller with empty latches.
func (b ControllerBuilder) Build(name string) (*Controller, error) {
	if b.spec == nil {
		return nil, errors.New("controller needs a bitstream spec")
	}

	c := &Controller{spec: b.spec}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.latches = make([][]*tileLatch, b.spec.Rows)
	for y := range c.latches {
		c.latches[y] = make([]*tileLatch, b.spec.Cols)

		for x := range c.latches[y] {
			ts := b.spec.TileAt(x, y)
			if ts == nil {
				continue
			}

			table, ok := b.tables[ts.Tile]
			if !ok {
				return nil, errors.Errorf("no ConfigMem for tile %s at X%dY%d",
					ts.Tile, x, y)
			}

			if table.Layout != b.spec.Layout {
				return nil, errors.Errorf("ConfigMem of %s uses another frame layout",
					ts.Tile)
			}

			c.latches[y][x] = newTileLatch(x, y, table)
		}
	}

	return c, nil
}

// Simulate programs img into a fresh fabric on a serial engine and checks
// the read back configuration.
func Simulate(
	spec *bitstream.FabricSpec,
	tables map[string]*configmem.Table,
	img *bitstream.Image,
	freq sim.Freq,
) (*Report, error) {
	engine := sim.NewSerialEngine()

	c, err := ControllerBuilder{}.
		WithEngine(engine).
		WithFreq(freq).
		WithSpec(spec).
		WithTables(tables).
		Build("ConfigController")
	if err != nil {
		return nil, err
	}

	if err := c.Program(img); err != nil {
		return nil, err
	}

	if err := engine.Run(); err != nil {
		return nil, errors.Wrap(err, "simulation")
	}

	return c.Verify(img), nil
}
