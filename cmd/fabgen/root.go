package main

import (
	"os"

	"github.com/sarchlab/fabgen/config"
	"github.com/sarchlab/fabgen/util"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:           "fabgen",
		Short:         "Generate FPGA fabrics and their bitstreams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML run configuration")
	pf.String("log-level", a.cfg.LogLevel, "trace, debug, info, warn or error")
	pf.Bool("log-json", a.cfg.LogJSON, "log in JSON")
	pf.StringP("out", "o", a.cfg.OutputDir, "output directory")
	pf.Int("workers", a.cfg.Workers, "tiles compiled in parallel")
	pf.Bool("ignore-capacity", a.cfg.IgnoreCapacity,
		"allocate frames beyond MaxFramesPerCol")

	root.AddCommand(
		newCompileCmd(a),
		newBitstreamCmd(a),
		newDecodeCmd(a),
		newProgramCmd(a),
		newLintCmd(a),
		newImplementCmd(a),
	)

	return root
}

// setup loads the configuration file, applies the flags that were set and
// installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}

		a.cfg = cfg
	}

	flags := cmd.Flags()

	if flags.Changed("log-level") {
		a.cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flags.Changed("log-json") {
		a.cfg.LogJSON, _ = flags.GetBool("log-json")
	}

	if flags.Changed("out") {
		a.cfg.OutputDir, _ = flags.GetString("out")
	}

	if flags.Changed("workers") {
		a.cfg.Workers, _ = flags.GetInt("workers")
	}

	if flags.Changed("ignore-capacity") {
		a.cfg.IgnoreCapacity, _ = flags.GetBool("ignore-capacity")
	}

	if flags.Changed("hdl") {
		a.cfg.HDL, _ = flags.GetString("hdl")
	}

	if flags.Changed("no-hdl") {
		noHDL, _ := flags.GetBool("no-hdl")
		a.cfg.WriteHDL = !noHDL
	}

	if flags.Changed("freq") {
		a.cfg.Program.FreqMHz, _ = flags.GetFloat64("freq")
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	level, _ := util.ParseLevel(a.cfg.LogLevel)
	util.SetupLogger(os.Stderr, level, a.cfg.LogJSON)

	return nil
}
