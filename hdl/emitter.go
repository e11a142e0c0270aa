package hdl

import (
	"strings"

	"github.com/pkg/errors"
)

// An Emitter renders requests in one target syntax. Emitters only decide
// surface syntax; names and ordering come from the requests.
type Emitter interface {
	Name() string
	Extension() string
	BeginModule(m Module) string
	BeginBody(m Module) string
	Signal(s Signal) string
	Assign(a Assign) string
	Instance(i Instance) string
	Comment(text string) string
	EndModule(m Module) string
	Expr(e Expr) string
}

// ByName returns the emitter for verilog or vhdl.
func ByName(name string) (Emitter, error) {
	switch strings.ToLower(name) {
	case "verilog", "v":
		return Verilog{}, nil
	case "vhdl", "vhd":
		return VHDL{}, nil
	}

	return nil, errors.Errorf("unknown HDL %q", name)
}

type moduleBlock struct {
	module       Module
	declarations []Signal
	statements   []Request
}

func split(reqs []Request) ([]moduleBlock, error) {
	var blocks []moduleBlock

	for _, r := range reqs {
		if m, ok := r.(Module); ok {
			blocks = append(blocks, moduleBlock{module: m})
			continue
		}

		if len(blocks) == 0 {
			return nil, errors.Errorf("%T request outside of a module", r)
		}

		b := &blocks[len(blocks)-1]
		if s, ok := r.(Signal); ok {
			b.declarations = append(b.declarations, s)
		} else {
			b.statements = append(b.statements, r)
		}
	}

	return blocks, nil
}

// Render emits every module of reqs. Within a module all signal
// declarations come first, then the remaining requests in the order given.
func Render(e Emitter, reqs []Request) (string, error) {
	blocks, err := split(reqs)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(e.BeginModule(b.module))

		for _, s := range b.declarations {
			sb.WriteString(e.Signal(s))
		}

		sb.WriteString(e.BeginBody(b.module))

		for _, r := range b.statements {
			switch r := r.(type) {
			case Assign:
				sb.WriteString(e.Assign(r))
			case Instance:
				sb.WriteString(e.Instance(r))
			case Comment:
				sb.WriteString(e.Comment(r.Text))
			default:
				panic("unknown request")
			}
		}

		sb.WriteString(e.EndModule(b.module))
	}

	return sb.String(), nil
}
