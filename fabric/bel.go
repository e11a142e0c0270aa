package fabric

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A Feature is a named group of configuration bits of a Bel.
type Feature struct {
	Name    string
	Width   int
	Default uint64
}

// PortFlags mark how a Bel pin is wired.
type PortFlags struct {
	// External pins are routed to the fabric boundary, bypassing the switch
	// matrix.
	External bool `yaml:"external"`
	// Shared pins reference one physical signal across all Bels of a tile,
	// such as a clock.
	Shared bool `yaml:"shared"`
	// Global pins consume the Bel's configuration bits directly.
	Global bool `yaml:"global"`
}

// A Bel is a configurable primitive inside a tile.
type Bel struct {
	Name       string
	Prefix     string
	Inputs     []string
	Outputs    []string
	ConfigBits int
	Features   []Feature
	Flags      map[string]PortFlags
	Source     string
}

// Instance is the name that disambiguates this Bel inside its tile.
func (b Bel) Instance() string {
	if inst := strings.TrimRight(b.Prefix, "_"); inst != "" {
		return inst
	}

	return b.Name
}

// PinName is the tile-level name of a Bel pin. Shared pins keep their bare
// name so every Bel refers to the same signal.
func (b Bel) PinName(pin string) string {
	if b.Flags[pin].Shared {
		return pin
	}

	return b.Prefix + pin
}

// Flag returns the flags of a pin.
func (b Bel) Flag(pin string) PortFlags {
	return b.Flags[pin]
}

// RoutedInputs are the input pins driven by the switch matrix.
func (b Bel) RoutedInputs() []string {
	pins := make([]string, 0, len(b.Inputs))
	for _, p := range b.Inputs {
		f := b.Flags[p]
		if f.External || f.Shared || f.Global {
			continue
		}

		pins = append(pins, p)
	}

	return pins
}

// RoutedOutputs are the output pins visible to the switch matrix.
func (b Bel) RoutedOutputs() []string {
	pins := make([]string, 0, len(b.Outputs))
	for _, p := range b.Outputs {
		if b.Flags[p].External {
			continue
		}

		pins = append(pins, p)
	}

	return pins
}

// GlobalPort returns the pin that receives the Bel configuration bits.
func (b Bel) GlobalPort() (string, bool) {
	for _, p := range b.Inputs {
		if b.Flags[p].Global {
			return p, true
		}
	}

	return "", false
}

// BitNames lists the Bel's configuration bits in order. Single-bit features
// are named after the feature, wider ones are indexed, and bits covered by
// no feature are named by their position.
func (b Bel) BitNames() []string {
	names := make([]string, 0, b.ConfigBits)
	for _, f := range b.Features {
		if f.Width == 1 {
			names = append(names, f.Name)
			continue
		}

		for k := 0; k < f.Width; k++ {
			names = append(names, fmt.Sprintf("%s[%d]", f.Name, k))
		}
	}

	for k := len(names); k < b.ConfigBits; k++ {
		names = append(names, fmt.Sprintf("%d", k))
	}

	return names
}

// BitDefaults returns the default value of every configuration bit.
func (b Bel) BitDefaults() []bool {
	defaults := make([]bool, 0, b.ConfigBits)
	for _, f := range b.Features {
		for k := 0; k < f.Width; k++ {
			defaults = append(defaults, f.Default&(1<<uint(k)) != 0)
		}
	}

	for len(defaults) < b.ConfigBits {
		defaults = append(defaults, false)
	}

	return defaults
}

func (b Bel) clone() Bel {
	c := b
	c.Inputs = append([]string(nil), b.Inputs...)
	c.Outputs = append([]string(nil), b.Outputs...)
	c.Features = append([]Feature(nil), b.Features...)
	c.Flags = make(map[string]PortFlags, len(b.Flags))

	for k, v := range b.Flags {
		c.Flags[k] = v
	}

	return c
}

func (b Bel) validate() error {
	entity := "bel " + b.Name

	if b.Name == "" {
		return NewModelError(b.Source, "bel", "missing bel name")
	}

	seen := make(map[string]bool)
	for _, p := range append(append([]string(nil), b.Inputs...), b.Outputs...) {
		if seen[p] {
			return NewModelError(b.Source, entity, "duplicate port name %s", p)
		}

		seen[p] = true
	}

	globals := 0
	for p, f := range b.Flags {
		if !seen[p] {
			return NewModelError(b.Source, entity,
				"flags given for undeclared port %s", p)
		}

		if f.Global {
			globals++
		}
	}

	if globals > 1 {
		return NewModelError(b.Source, entity, "more than one global port")
	}

	width := 0
	featureSeen := make(map[string]bool)
	for _, f := range b.Features {
		if f.Name == "" || f.Width <= 0 {
			return NewModelError(b.Source, entity, "invalid feature %+v", f)
		}

		if featureSeen[f.Name] {
			return NewModelError(b.Source, entity, "duplicate feature %s", f.Name)
		}

		featureSeen[f.Name] = true
		width += f.Width
	}

	if width > b.ConfigBits {
		return NewModelError(b.Source, entity,
			"features use %d bits but only %d config bits are declared",
			width, b.ConfigBits)
	}

	return nil
}

type belFeatureYAML struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Default uint64 `yaml:"default"`
}

type belYAML struct {
	Name       string               `yaml:"name"`
	Inputs     []string             `yaml:"inputs"`
	Outputs    []string             `yaml:"outputs"`
	ConfigBits *int                 `yaml:"config_bits"`
	Features   []belFeatureYAML     `yaml:"features"`
	Ports      map[string]PortFlags `yaml:"ports"`
}

// LoadBel reads a Bel description file.
func LoadBel(path, prefix string) (Bel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bel{}, errors.Wrapf(err, "read bel %s", path)
	}

	return ParseBel(data, path, prefix)
}

// ParseBel decodes a YAML Bel description. When config_bits is omitted it
// defaults to the total width of the features.
func ParseBel(data []byte, source, prefix string) (Bel, error) {
	var raw belYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Bel{}, NewModelError(source, "bel", "invalid yaml: %v", err)
	}

	b := Bel{
		Name:    raw.Name,
		Prefix:  prefix,
		Inputs:  raw.Inputs,
		Outputs: raw.Outputs,
		Flags:   raw.Ports,
		Source:  source,
	}
	if b.Flags == nil {
		b.Flags = make(map[string]PortFlags)
	}

	width := 0
	for _, f := range raw.Features {
		w := f.Width
		if w == 0 {
			w = 1
		}

		b.Features = append(b.Features,
			Feature{Name: f.Name, Width: w, Default: f.Default})
		width += w
	}

	if raw.ConfigBits != nil {
		b.ConfigBits = *raw.ConfigBits
	} else {
		b.ConfigBits = width
	}

	if err := b.validate(); err != nil {
		return Bel{}, err
	}

	return b, nil
}
