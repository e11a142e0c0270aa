package main

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/verify"
	"github.com/spf13/cobra"
)

func newLintCmd(a *app) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "lint <fabric.csv> [image.bin]",
		Short: "Check a fabric and optionally program a bitstream into it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.compile(cmd, args[0], nil)
			if err != nil {
				return err
			}

			var img *bitstream.Image
			if len(args) == 2 {
				img, err = readImage(args[1], r.Spec)
				if err != nil {
					return err
				}
			}

			report := verify.GenerateReport(r, img, a.freq())
			report.WriteReport(cmd.OutOrStdout())

			if reportPath != "" {
				if err := report.SaveReportToFile(reportPath); err != nil {
					return err
				}
			}

			if !report.OK() {
				return errors.New("lint failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "also write the report to this file")
	cmd.Flags().Float64("freq", 100, "configuration clock in MHz")

	return cmd
}
