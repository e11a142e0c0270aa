package main

import (
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/spf13/cobra"
)

func newDecodeCmd(_ *app) *cobra.Command {
	var opts bitstream.DecodeOptions

	cmd := &cobra.Command{
		Use:   "decode <bitstream_spec.bin> <image.bin>",
		Short: "Print the features a bitstream selects as FASM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readSpec(args[0])
			if err != nil {
				return err
			}

			img, err := readImage(args[1], spec)
			if err != nil {
				return err
			}

			return bitstream.WriteFASM(cmd.OutOrStdout(), bitstream.Decode(spec, img, opts))
		},
	}

	cmd.Flags().BoolVar(&opts.SetOnly, "set-only", false, "omit features that are not selected")
	cmd.Flags().BoolVar(&opts.NonDefault, "non-default", false,
		"omit features that match the unconfigured fabric")

	return cmd
}
