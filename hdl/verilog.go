package hdl

import (
	"fmt"
	"strings"
)

const indent = "    "

// Verilog emits Verilog-2001.
type Verilog struct{}

// Name returns the emitter name.
func (Verilog) Name() string { return "verilog" }

// Extension returns the file extension of Verilog sources.
func (Verilog) Extension() string { return ".v" }

func verilogRange(width int, vector bool) string {
	if !vector && width == 1 {
		return ""
	}

	return fmt.Sprintf("[%d:0] ", width-1)
}

// BeginModule emits the module header with parameters and ports.
func (Verilog) BeginModule(m Module) string {
	var sb strings.Builder

	sb.WriteString("module " + m.Name)

	if len(m.Params) > 0 {
		sb.WriteString(" #(\n")
		for i, p := range m.Params {
			sb.WriteString(fmt.Sprintf("%sparameter %s = %d", indent, p.Name, p.Value))
			sb.WriteString(listSep(i, len(m.Params)))
		}
		sb.WriteString(")")
	}

	if len(m.Ports) == 0 {
		sb.WriteString(" ();\n")
		return sb.String()
	}

	sb.WriteString(" (\n")
	for i, p := range m.Ports {
		dir := "input"
		if p.Dir == Out {
			dir = "output"
		}

		sb.WriteString(fmt.Sprintf("%s%s %s%s", indent, dir,
			verilogRange(p.Width, p.Vector), p.Name))
		sb.WriteString(listSep(i, len(m.Ports)))
	}
	sb.WriteString(");\n")

	return sb.String()
}

func listSep(i, n int) string {
	if i < n-1 {
		return ",\n"
	}

	return "\n"
}

// BeginBody separates declarations from statements.
func (Verilog) BeginBody(m Module) string { return "\n" }

// Signal declares a wire.
func (Verilog) Signal(s Signal) string {
	return fmt.Sprintf("%swire %s%s;\n", indent, verilogRange(s.Width, s.Vector), s.Name)
}

// Assign emits a continuous assignment.
func (v Verilog) Assign(a Assign) string {
	return fmt.Sprintf("%sassign %s = %s;\n", indent, v.Expr(a.Target), v.Expr(a.Value))
}

// Instance emits a module instantiation with named port connections.
func (v Verilog) Instance(inst Instance) string {
	var sb strings.Builder

	sb.WriteString(indent + inst.Module)

	if len(inst.Params) > 0 {
		params := make([]string, len(inst.Params))
		for i, p := range inst.Params {
			params[i] = fmt.Sprintf(".%s(%d)", p.Name, p.Value)
		}

		sb.WriteString(" #(" + strings.Join(params, ", ") + ")")
	}

	sb.WriteString(" " + inst.Name + " (\n")
	for i, p := range inst.Ports {
		sb.WriteString(fmt.Sprintf("%s%s.%s(%s)", indent, indent, p.Formal, v.Expr(p.Actual)))
		sb.WriteString(listSep(i, len(inst.Ports)))
	}
	sb.WriteString(indent + ");\n")

	return sb.String()
}

// Comment emits a line comment.
func (Verilog) Comment(text string) string {
	return indent + "// " + text + "\n"
}

// EndModule closes the module.
func (Verilog) EndModule(m Module) string {
	return "endmodule\n"
}

// Expr renders an expression.
func (v Verilog) Expr(e Expr) string {
	switch e := e.(type) {
	case Ref:
		return e.Name
	case Index:
		return fmt.Sprintf("%s[%d]", e.Name, e.Index)
	case Slice:
		return fmt.Sprintf("%s[%d:%d]", e.Name, e.Hi, e.Lo)
	case Concat:
		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = v.Expr(p)
		}

		return "{" + strings.Join(parts, ", ") + "}"
	case Const:
		return fmt.Sprintf("%d'b%s", e.Width, constBits(e))
	default:
		panic("unknown expression")
	}
}

// constBits renders the bits of a constant, most significant first.
func constBits(c Const) string {
	bits := make([]byte, c.Width)
	for i := range bits {
		k := c.Width - 1 - i
		if k < 64 && c.Value>>uint(k)&1 == 1 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}

	return string(bits)
}
