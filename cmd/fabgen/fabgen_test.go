package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/compiler"
)

const demoFabric = "../../fabric/testdata/fabric.csv"

func run(args ...string) (string, error) {
	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))

	err := root.Execute()

	return out.String(), err
}

var _ = Describe("fabgen", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should compile, rasterize and decode a design", func() {
		out := filepath.Join(dir, "out")
		_, err := run("compile", demoFabric, "--out", out, "--hdl", "vhdl", "--workers", "2")
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(out, "CLB", "CLB.vhdl")).To(BeAnExistingFile())

		specPath := filepath.Join(out, compiler.SpecBinFile)
		Expect(specPath).To(BeAnExistingFile())

		fasm := filepath.Join(dir, "design.fasm")
		Expect(os.WriteFile(fasm, []byte("X0Y1.LA.INIT[3]\nX1Y0.DS_END1.T_A\n"), 0o644)).
			To(Succeed())

		img := filepath.Join(dir, "design.bin")
		trace := filepath.Join(dir, "design.trace")
		_, err = run("bitstream", specPath, fasm, img, "--trace", trace)
		Expect(err).NotTo(HaveOccurred())

		lines, err := os.ReadFile(trace)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(lines)).To(ContainSubstring("X0Y1.LA.INIT[3] @"))
		Expect(string(lines)).To(ContainSubstring("X1Y0.DS_END1.T_A @"))

		text, err := run("decode", specPath, img, "--set-only")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("X0Y1.LA.INIT[3]\n"))
		Expect(text).To(ContainSubstring("X1Y0.DS_END1.T_A\n"))
		Expect(text).NotTo(ContainSubstring("= 0"))

		text, err = run("program", demoFabric, img)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("Programming: 12 cycles"))

		text, err = run("lint", demoFabric, img)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("RESULT: PASSED"))
	})

	It("should leave no bitstream behind when rasterizing fails", func() {
		out := filepath.Join(dir, "out")
		_, err := run("compile", demoFabric, "--out", out, "--no-hdl")
		Expect(err).NotTo(HaveOccurred())

		fasm := filepath.Join(dir, "bad.fasm")
		Expect(os.WriteFile(fasm, []byte("X0Y1.NO_SUCH_FEATURE\n"), 0o644)).To(Succeed())

		img := filepath.Join(dir, "bad.bin")
		_, err = run("bitstream", filepath.Join(out, compiler.SpecBinFile), fasm, img,
			"--trace", filepath.Join(dir, "bad.trace"))
		Expect(err).To(HaveOccurred())
		Expect(img).NotTo(BeAnExistingFile())
		Expect(filepath.Join(dir, "bad.trace")).NotTo(BeAnExistingFile())
	})

	It("should create an output only after rendering it", func() {
		path := filepath.Join(dir, "partial.bin")
		err := writeOutput(path, func(w io.Writer) error {
			if _, err := w.Write([]byte{0xff}); err != nil {
				return err
			}

			return errors.New("device lost")
		})
		Expect(err).To(MatchError(ContainSubstring("device lost")))
		Expect(path).NotTo(BeAnExistingFile())
	})

	It("should skip HDL on request", func() {
		out := filepath.Join(dir, "out")
		_, err := run("compile", demoFabric, "--out", out, "--no-hdl")
		Expect(err).NotTo(HaveOccurred())

		Expect(filepath.Join(out, "CLB", "CLB_ConfigMem.csv")).To(BeAnExistingFile())
		Expect(filepath.Join(out, "CLB", "CLB.v")).NotTo(BeAnExistingFile())
	})

	It("should read the run configuration from a file", func() {
		cfg := filepath.Join(dir, "fabgen.yaml")
		out := filepath.Join(dir, "from-config")
		Expect(os.WriteFile(cfg, []byte("output_dir: "+out+"\nhdl: vhdl\n"), 0o644)).
			To(Succeed())

		_, err := run("compile", demoFabric, "--config", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(out, "CLB", "CLB.vhdl")).To(BeAnExistingFile())
	})

	It("should reject an invalid flag value", func() {
		_, err := run("compile", demoFabric, "--hdl", "chisel")
		Expect(err).To(MatchError(ContainSubstring("unknown HDL")))
	})

	It("should require a tool to implement a design", func() {
		_, err := run("implement", "spec.bin", "design.v")
		Expect(err).To(MatchError("--tool is required"))
	})
})
