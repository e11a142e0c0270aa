package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/configport"
	"github.com/spf13/cobra"
)

func newProgramCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program <fabric.csv> <image.bin>",
		Short: "Simulate frame based programming of a bitstream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.compile(cmd, args[0], nil)
			if err != nil {
				return err
			}

			img, err := readImage(args[1], r.Spec)
			if err != nil {
				return err
			}

			tables := make(map[string]*configmem.Table, len(r.Tiles))
			for _, t := range r.Tiles {
				tables[t.Tile.Name()] = t.Table
			}

			report, err := configport.Simulate(r.Spec, tables, img, a.freq())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Render())

			if !report.OK() {
				return errors.Errorf("%d configuration bits differ", report.Mismatches())
			}

			return nil
		},
	}

	cmd.Flags().Float64("freq", 100, "configuration clock in MHz")

	return cmd
}
