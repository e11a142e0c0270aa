package main

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/flow"
	"github.com/spf13/cobra"
)

func newImplementCmd(_ *app) *cobra.Command {
	var (
		tool      string
		toolArgs  []string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "implement <bitstream_spec.bin> <design>",
		Short: "Run a place and route tool and rasterize its FASM output",
		Long: "The tool receives the design path, either in place of " +
			flow.DesignPlaceholder + " in its arguments or as the last argument, " +
			"and must print FASM on its standard output.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tool == "" {
				return errors.New("--tool is required")
			}

			spec, err := readSpec(args[0])
			if err != nil {
				return err
			}

			out, err := flow.Run(cmd.Context(), flow.Command{Name: tool, Args: toolArgs}, spec, args[1])
			if err != nil {
				return err
			}

			return writeImage(imagePath, out.Image)
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "place and route executable")
	cmd.Flags().StringArrayVar(&toolArgs, "arg", nil, "tool argument, repeatable")
	cmd.Flags().StringVar(&imagePath, "image", "bitstream.bin", "output bitstream")

	return cmd
}
