package compiler

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/bitstream"
)

// Artifact file names inside the output directory.
const (
	SpecBinFile  = "bitstream_spec.bin"
	SpecTextFile = "bitstream_spec.txt"
)

// TileDir is the directory of a tile's artifacts.
func TileDir(dir, tile string) string {
	return filepath.Join(dir, tile)
}

// ConfigMemFile is the ConfigMem table of a tile.
func ConfigMemFile(dir, tile string) string {
	return filepath.Join(TileDir(dir, tile), tile+"_ConfigMem.csv")
}

// TileSpecCSVFile is the tabular feature table of a tile.
func TileSpecCSVFile(dir, tile string) string {
	return filepath.Join(TileDir(dir, tile), tile+"_spec.csv")
}

// TileSpecBinFile is the binary feature table of a tile.
func TileSpecBinFile(dir, tile string) string {
	return filepath.Join(TileDir(dir, tile), tile+".spec.bin")
}

// Write persists every artifact of r below dir.
func (r *Result) Write(dir string) error {
	for _, t := range r.Tiles {
		if err := r.writeTile(dir, t); err != nil {
			return err
		}
	}

	for name, src := range r.SuperTiles {
		path := filepath.Join(TileDir(dir, name), name+r.Extension)
		if err := writeString(path, src); err != nil {
			return err
		}
	}

	if r.TopHDL != "" {
		path := filepath.Join(dir, r.Fabric.Name()+r.Extension)
		if err := writeString(path, r.TopHDL); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(dir, SpecBinFile), func(w io.Writer) error {
		return bitstream.EncodeFabricSpec(w, r.Spec)
	}); err != nil {
		return err
	}

	if err := writeString(filepath.Join(dir, SpecTextFile),
		bitstream.RenderFabricSpec(r.Spec)+"\n"); err != nil {
		return err
	}

	slog.Info("Artifacts written", "dir", dir, "tiles", len(r.Tiles))

	return nil
}

func (r *Result) writeTile(dir string, t *TileResult) error {
	name := t.Tile.Name()

	if err := writeFile(ConfigMemFile(dir, name), t.Table.WriteCSV); err != nil {
		return err
	}

	if err := writeFile(TileSpecCSVFile(dir, name), func(w io.Writer) error {
		return bitstream.WriteTileSpecCSV(w, t.Spec)
	}); err != nil {
		return err
	}

	if err := writeFile(TileSpecBinFile(dir, name), func(w io.Writer) error {
		return bitstream.EncodeTileSpec(w, t.Spec)
	}); err != nil {
		return err
	}

	if t.HDL != "" {
		path := filepath.Join(TileDir(dir, name), name+r.Extension)
		if err := writeString(path, t.HDL); err != nil {
			return err
		}
	}

	return nil
}

func writeString(path, s string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

// writeFile creates path only once render has succeeded.
func writeFile(path string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return errors.Wrapf(err, "render %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	return nil
}
