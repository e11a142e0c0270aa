package main

import (
	"io"
	"log/slog"

	"github.com/sarchlab/fabgen/bitstream"
	"github.com/spf13/cobra"
)

func newBitstreamCmd(_ *app) *cobra.Command {
	var tracePath string

	cmd := &cobra.Command{
		Use:   "bitstream <bitstream_spec.bin> <design.fasm> <image.bin>",
		Short: "Rasterize a FASM feature list into a bitstream",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			spec, err := readSpec(args[0])
			if err != nil {
				return err
			}

			assignments, err := readFASM(args[1])
			if err != nil {
				return err
			}

			img, err := bitstream.Generate(spec, assignments)
			if err != nil {
				return err
			}

			if err := writeImage(args[2], img); err != nil {
				return err
			}

			if tracePath != "" {
				err := writeOutput(tracePath, func(w io.Writer) error {
					return img.Trace(w, spec)
				})
				if err != nil {
					return err
				}
			}

			slog.Info("Bitstream written",
				"path", args[2], "features", len(assignments), "bits", img.Size())

			return nil
		},
	}

	cmd.Flags().StringVar(&tracePath, "trace", "",
		"also write the selected features with their addresses to this file")

	return cmd
}
