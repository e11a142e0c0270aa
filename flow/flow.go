// Package flow connects the fabric to an external place and route tool.
// The tool is opaque: it receives a design and the bitstream spec and
// answers with a FASM feature list, which is then rasterized.
package flow

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/bitstream"
)

// An Implementer maps a design onto a fabric and returns the features to
// set, in FASM.
type Implementer interface {
	Implement(ctx context.Context, design string, spec *bitstream.FabricSpec) ([]byte, error)
}

// DesignPlaceholder in Command arguments is replaced by the design path.
const DesignPlaceholder = "{design}"

// Command runs an external tool that prints FASM on its standard output.
// If no argument holds DesignPlaceholder the design is passed last.
type Command struct {
	Name string
	Args []string
}

// Implement runs the tool.
func (c Command) Implement(
	ctx context.Context,
	design string,
	spec *bitstream.FabricSpec,
) ([]byte, error) {
	args := make([]string, 0, len(c.Args)+1)
	placed := false

	for _, a := range c.Args {
		if strings.Contains(a, DesignPlaceholder) {
			a = strings.ReplaceAll(a, DesignPlaceholder, design)
			placed = true
		}

		args = append(args, a)
	}

	if !placed {
		args = append(args, design)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", c.Name, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// Outcome is the result of an implementation run.
type Outcome struct {
	Assignments []bitstream.Assignment
	Image       *bitstream.Image
}

// Run implements design with impl and rasterizes the returned features.
func Run(
	ctx context.Context,
	impl Implementer,
	spec *bitstream.FabricSpec,
	design string,
) (*Outcome, error) {
	fasm, err := impl.Implement(ctx, design, spec)
	if err != nil {
		return nil, errors.Wrapf(err, "implement %s", design)
	}

	assignments, err := bitstream.ParseFASM(bytes.NewReader(fasm))
	if err != nil {
		return nil, err
	}

	img, err := bitstream.Generate(spec, assignments)
	if err != nil {
		return nil, err
	}

	slog.Info("Design implemented",
		"design", design, "features", len(assignments), "bits", img.Size())

	return &Outcome{Assignments: assignments, Image: img}, nil
}
