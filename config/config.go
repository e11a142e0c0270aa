// Package config holds the run configuration of fabgen. Values come from
// built-in defaults, optionally overlaid by a YAML file; command line flags
// override both.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/hdl"
	"github.com/sarchlab/fabgen/util"
	"gopkg.in/yaml.v3"
)

// Program configures the programming simulation.
type Program struct {
	FreqMHz float64 `yaml:"freq_mhz"`
}

// Config is the run configuration.
type Config struct {
	OutputDir      string  `yaml:"output_dir"`
	HDL            string  `yaml:"hdl"`
	Workers        int     `yaml:"workers"`
	IgnoreCapacity bool    `yaml:"ignore_capacity"`
	WriteHDL       bool    `yaml:"write_hdl"`
	LogLevel       string  `yaml:"log_level"`
	LogJSON        bool    `yaml:"log_json"`
	Program        Program `yaml:"program"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: "out",
		HDL:       "verilog",
		Workers:   runtime.NumCPU(),
		WriteHDL:  true,
		LogLevel:  "info",
		Program:   Program{FreqMHz: 100},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parse config %s", path)
	}

	if err := c.Validate(); err != nil {
		return c, errors.Wrapf(err, "config %s", path)
	}

	return c, nil
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}

	if _, err := hdl.ByName(c.HDL); err != nil {
		return err
	}

	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}

	if _, err := util.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Program.FreqMHz <= 0 {
		return errors.Errorf("program.freq_mhz must be positive, got %g", c.Program.FreqMHz)
	}

	return nil
}

// Emitter returns the configured HDL emitter, or nil when HDL output is
// disabled.
func (c Config) Emitter() hdl.Emitter {
	if !c.WriteHDL {
		return nil
	}

	e, err := hdl.ByName(c.HDL)
	if err != nil {
		panic("invalid hdl " + c.HDL)
	}

	return e
}
