package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/fabgen/bitstream"
)

func readSpec(path string) (*bitstream.FabricSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open spec")
	}
	defer f.Close()

	return bitstream.DecodeFabricSpec(f)
}

func readFASM(path string) ([]bitstream.Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open FASM")
	}
	defer f.Close()

	return bitstream.ParseFASM(f)
}

func readImage(path string, spec *bitstream.FabricSpec) (*bitstream.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open bitstream")
	}
	defer f.Close()

	return bitstream.ReadImage(f, spec)
}

func writeImage(path string, img *bitstream.Image) error {
	return writeOutput(path, func(w io.Writer) error {
		_, err := img.WriteTo(w)
		return err
	})
}

// writeOutput creates path only once render has succeeded. A failed write
// removes the file.
func writeOutput(path string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return errors.Wrapf(err, "render %s", path)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "write %s", path)
	}

	return nil
}

func (a *app) freq() sim.Freq {
	return sim.Freq(a.cfg.Program.FreqMHz) * sim.MHz
}
