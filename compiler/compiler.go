// Package compiler drives the per-tile pipeline over a fabric and persists
// the resulting artifacts.
package compiler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/hdl"
	"github.com/sarchlab/fabgen/switchmatrix"
	"github.com/sarchlab/fabgen/util"
	"golang.org/x/sync/errgroup"
)

// Options control a compilation.
type Options struct {
	// Workers bounds the number of tiles compiled at once. Zero uses one
	// worker per CPU.
	Workers int
	// IgnoreCapacity allocates frames beyond MaxFramesPerCol instead of
	// failing.
	IgnoreCapacity bool
	// Emitter renders HDL. A nil emitter skips HDL generation.
	Emitter hdl.Emitter
}

// TileResult holds the derived artifacts of one tile type.
type TileResult struct {
	Tile   *fabric.Tile
	Matrix *switchmatrix.Matrix
	Table  *configmem.Table
	Spec   *bitstream.TileSpec
	// Reused is set when the ConfigMem was read from an existing file.
	Reused bool
	HDL    string
}

// Result is the outcome of compiling a fabric.
type Result struct {
	Fabric *fabric.Fabric
	// Tiles are sorted by tile name.
	Tiles      []*TileResult
	Spec       *bitstream.FabricSpec
	SuperTiles map[string]string
	TopHDL     string
	Extension  string
}

// Tile returns the result of a tile type.
func (r *Result) Tile(name string) (*TileResult, bool) {
	i := sort.Search(len(r.Tiles), func(i int) bool {
		return r.Tiles[i].Tile.Name() >= name
	})

	if i < len(r.Tiles) && r.Tiles[i].Tile.Name() == name {
		return r.Tiles[i], true
	}

	return nil, false
}

// ExistingConfigMemPath is where a hand-written ConfigMem of a tile is
// picked up from: next to its connectivity declaration.
func ExistingConfigMemPath(t *fabric.Tile) string {
	return filepath.Join(filepath.Dir(t.MatrixPath()), t.Name()+"_ConfigMem.csv")
}

// Compile runs the tile pipeline for every declared tile type on a worker
// pool, then composes the fabric-wide spec and HDL. A failing tile does not
// stop the others; all failures are reported together in a BatchError.
func Compile(ctx context.Context, f *fabric.Fabric, opts Options) (*Result, error) {
	if mode := f.Params().ConfigBitMode; mode != fabric.FrameBased {
		return nil, fabric.NewModelError(f.Source(), "parameters",
			"config bit mode %s is not supported", mode)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	names := f.TileNames()
	results := make([]*TileResult, len(names))

	var (
		mu       sync.Mutex
		failures []TileFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		t, _ := f.Tile(name)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := compileTile(t, f.Params(), opts)
			if err != nil {
				slog.Warn("Tile failed", "tile", name, "error", err)

				mu.Lock()
				failures = append(failures, TileFailure{Tile: name, Err: err})
				mu.Unlock()

				return nil
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool {
			return failures[i].Tile < failures[j].Tile
		})

		return nil, &BatchError{Failures: failures}
	}

	return compose(f, results, opts)
}

func compose(f *fabric.Fabric, tiles []*TileResult, opts Options) (*Result, error) {
	r := &Result{Fabric: f, Tiles: tiles, SuperTiles: make(map[string]string)}

	specs := make(map[string]*bitstream.TileSpec, len(tiles))
	for _, t := range tiles {
		specs[t.Tile.Name()] = t.Spec
	}

	spec, err := bitstream.ComposeFabricSpec(f, specs)
	if err != nil {
		return nil, err
	}

	r.Spec = spec

	slog.Info("Bitstream spec composed",
		"fabric", f.Name(), "tiles", len(spec.Tiles), "bits", spec.Size())

	if opts.Emitter == nil {
		return r, nil
	}

	r.Extension = opts.Emitter.Extension()

	for _, name := range f.SuperTileNames() {
		st, _ := f.SuperTile(name)

		src, err := hdl.Render(opts.Emitter, hdl.SuperTileModule(st, f.Layout()))
		if err != nil {
			return nil, errors.Wrapf(err, "super tile %s", name)
		}

		r.SuperTiles[name] = src
	}

	top, err := hdl.Render(opts.Emitter, hdl.FabricModule(f))
	if err != nil {
		return nil, errors.Wrap(err, "fabric top")
	}

	r.TopHDL = top

	return r, nil
}

func compileTile(t *fabric.Tile, params fabric.Params, opts Options) (*TileResult, error) {
	name := t.Name()

	conn, err := switchmatrix.Parse(t.MatrixPath(), name)
	if err != nil {
		return nil, err
	}

	m, err := switchmatrix.Synthesize(t, conn, params.MuxEncoding)
	if err != nil {
		return nil, err
	}

	res := &TileResult{Tile: t, Matrix: m}

	res.Table, res.Reused, err = tileTable(t, m, params.Layout, opts)
	if err != nil {
		return nil, err
	}

	res.Spec, err = bitstream.GenerateTileSpec(t, m, res.Table)
	if err != nil {
		return nil, err
	}

	if opts.Emitter != nil {
		res.HDL, err = hdl.Render(opts.Emitter, hdl.TileFile(t, m, res.Table))
		if err != nil {
			return nil, errors.Wrapf(err, "tile %s", name)
		}
	}

	slog.Info("Tile compiled",
		"tile", name,
		"muxes", len(m.Muxes),
		"bits", res.Table.TotalBits,
		"frames", res.Table.Frames,
		"reused", res.Reused)

	return res, nil
}

func tileTable(
	t *fabric.Tile,
	m *switchmatrix.Matrix,
	layout fabric.Layout,
	opts Options,
) (*configmem.Table, bool, error) {
	path := ExistingConfigMemPath(t)

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()

		util.Trace("Reading existing ConfigMem", "tile", t.Name(), "path", path)

		table, err := configmem.ReadCSV(file, layout)
		if err != nil {
			return nil, false, errors.Wrapf(err, "read %s", path)
		}

		if table.Tile != t.Name() {
			return nil, false, fabric.NewModelError(path, "tile "+t.Name(),
				"ConfigMem belongs to tile %s", table.Tile)
		}

		return table, true, nil
	}

	if !os.IsNotExist(err) {
		return nil, false, errors.Wrapf(err, "open %s", path)
	}

	table, err := configmem.Allocate(t.Name(), layout, configmem.Groups(t, m),
		configmem.Options{IgnoreCapacity: opts.IgnoreCapacity})
	if err != nil {
		return nil, false, err
	}

	return table, false, nil
}
