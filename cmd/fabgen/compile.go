package main

import (
	"github.com/sarchlab/fabgen/compiler"
	"github.com/sarchlab/fabgen/fabric"
	"github.com/sarchlab/fabgen/hdl"
	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <fabric.csv>",
		Short: "Generate HDL, ConfigMem tables and the bitstream spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.compile(cmd, args[0], a.cfg.Emitter())
			if err != nil {
				return err
			}

			return r.Write(a.cfg.OutputDir)
		},
	}

	cmd.Flags().String("hdl", "verilog", "HDL to write: verilog or vhdl")
	cmd.Flags().Bool("no-hdl", false, "skip HDL generation")

	return cmd
}

// compile loads and compiles the fabric at path. A nil emitter skips HDL.
func (a *app) compile(
	cmd *cobra.Command,
	path string,
	emitter hdl.Emitter,
) (*compiler.Result, error) {
	f, err := fabric.Load(path)
	if err != nil {
		return nil, err
	}

	return compiler.Compile(cmd.Context(), f, compiler.Options{
		Workers:        a.cfg.Workers,
		IgnoreCapacity: a.cfg.IgnoreCapacity,
		Emitter:        emitter,
	})
}
