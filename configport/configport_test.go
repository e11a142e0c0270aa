package configport_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/compiler"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/configport"
	"github.com/sarchlab/fabgen/fabric"
)

type frameCounter struct {
	writes []configport.FrameWrite
}

func (h *frameCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos == configport.HookPosFrameWrite {
		h.writes = append(h.writes, ctx.Item.(configport.FrameWrite))
	}
}

func demo() (*bitstream.FabricSpec, map[string]*configmem.Table) {
	f, err := fabric.Load("../fabric/testdata/fabric.csv")
	Expect(err).NotTo(HaveOccurred())

	r, err := compiler.Compile(context.Background(), f, compiler.Options{})
	Expect(err).NotTo(HaveOccurred())

	tables := make(map[string]*configmem.Table)
	for _, t := range r.Tiles {
		tables[t.Tile.Name()] = t.Table
	}

	return r.Spec, tables
}

func image(spec *bitstream.FabricSpec, features ...string) *bitstream.Image {
	var as []bitstream.Assignment
	for _, f := range features {
		as = append(as, bitstream.Assignment{Feature: f, Value: true})
	}

	img, err := bitstream.Generate(spec, as)
	Expect(err).NotTo(HaveOccurred())

	return img
}

var _ = Describe("Controller", func() {
	var (
		spec   *bitstream.FabricSpec
		tables map[string]*configmem.Table
	)

	BeforeEach(func() {
		spec, tables = demo()
	})

	It("should reproduce the image in every tile", func() {
		img := image(spec, "X0Y1.LA.INIT[0]", "X0Y1.VCC.LB_I0", "X2Y0.IOB.PULLUP")

		report, err := configport.Simulate(spec, tables, img, 1*sim.MHz)
		Expect(err).NotTo(HaveOccurred())

		Expect(report.OK()).To(BeTrue())
		Expect(report.Cycles).To(Equal(spec.Cols * spec.Layout.MaxFramesPerCol))
		Expect(report.Tiles).To(HaveLen(5))
		Expect(report.Render()).To(ContainSubstring("Programming: 12 cycles"))
	})

	It("should strobe every frame of every column in order", func() {
		engine := sim.NewSerialEngine()
		hook := &frameCounter{}

		c, err := configport.ControllerBuilder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithSpec(spec).
			WithTables(tables).
			Build("Controller")
		Expect(err).NotTo(HaveOccurred())

		c.AcceptHook(hook)

		img := image(spec, "X0Y1.LA.INIT[0]", "X2Y0.IOB.PULLUP")
		Expect(c.Program(img)).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(c.Done()).To(BeTrue())
		Expect(hook.writes).To(HaveLen(12))
		Expect(hook.writes[0]).To(Equal(configport.FrameWrite{Column: 0, Frame: 0}))
		Expect(hook.writes[4]).To(Equal(configport.FrameWrite{Column: 1, Frame: 0}))

		clb := c.ConfigBits(0, 1)
		Expect(clb).To(HaveLen(16))
		Expect(clb[0]).To(BeTrue())
		Expect(clb[1]).To(BeFalse())

		io := c.ConfigBits(2, 0)
		Expect(io[0]).To(BeTrue())

		Expect(c.ConfigBits(0, 0)).To(BeNil())
	})

	It("should report bits that differ from the expected image", func() {
		engine := sim.NewSerialEngine()

		c, err := configport.ControllerBuilder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithSpec(spec).
			WithTables(tables).
			Build("Controller")
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Program(image(spec))).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		report := c.Verify(image(spec, "X2Y1.IOB.PULLUP"))
		Expect(report.OK()).To(BeFalse())
		Expect(report.Mismatches()).To(Equal(1))
	})

	It("should reject an image of the wrong size", func() {
		c, err := configport.ControllerBuilder{}.
			WithEngine(sim.NewSerialEngine()).
			WithFreq(1 * sim.GHz).
			WithSpec(spec).
			WithTables(tables).
			Build("Controller")
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Program(bitstream.NewImage(8))).NotTo(Succeed())
	})

	It("should need a ConfigMem for every placed tile", func() {
		delete(tables, "IO")

		_, err := configport.ControllerBuilder{}.
			WithEngine(sim.NewSerialEngine()).
			WithFreq(1 * sim.GHz).
			WithSpec(spec).
			WithTables(tables).
			Build("Controller")
		Expect(err).To(MatchError(ContainSubstring("no ConfigMem for tile IO")))
	})
})
