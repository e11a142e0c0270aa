package hdl

import (
	"fmt"
	"strings"
)

// VHDL emits VHDL-2008. Instances use direct entity instantiation, and
// port maps may carry concatenations and literals.
type VHDL struct{}

// Name returns the emitter name.
func (VHDL) Name() string { return "vhdl" }

// Extension returns the file extension of VHDL sources.
func (VHDL) Extension() string { return ".vhdl" }

func vhdlType(width int, vector bool) string {
	if !vector && width == 1 {
		return "std_logic"
	}

	return fmt.Sprintf("std_logic_vector(%d downto 0)", width-1)
}

// BeginModule emits the library clauses and the entity declaration.
func (VHDL) BeginModule(m Module) string {
	var sb strings.Builder

	sb.WriteString("library ieee;\nuse ieee.std_logic_1164.all;\n\n")
	sb.WriteString("entity " + m.Name + " is\n")

	if len(m.Params) > 0 {
		sb.WriteString(indent + "generic (\n")
		for i, p := range m.Params {
			sb.WriteString(fmt.Sprintf("%s%s%s : integer := %d", indent, indent, p.Name, p.Value))
			sb.WriteString(vhdlSep(i, len(m.Params)))
		}
		sb.WriteString(indent + ");\n")
	}

	if len(m.Ports) > 0 {
		sb.WriteString(indent + "port (\n")
		for i, p := range m.Ports {
			dir := "in"
			if p.Dir == Out {
				dir = "out"
			}

			sb.WriteString(fmt.Sprintf("%s%s%s : %s %s", indent, indent, p.Name, dir,
				vhdlType(p.Width, p.Vector)))
			sb.WriteString(vhdlSep(i, len(m.Ports)))
		}
		sb.WriteString(indent + ");\n")
	}

	sb.WriteString("end entity " + m.Name + ";\n\n")
	sb.WriteString("architecture structural of " + m.Name + " is\n")

	return sb.String()
}

func vhdlSep(i, n int) string {
	if i < n-1 {
		return ";\n"
	}

	return "\n"
}

// BeginBody starts the architecture statements.
func (VHDL) BeginBody(m Module) string { return "begin\n" }

// Signal declares a signal.
func (VHDL) Signal(s Signal) string {
	return fmt.Sprintf("%ssignal %s : %s;\n", indent, s.Name, vhdlType(s.Width, s.Vector))
}

// Assign emits a concurrent signal assignment.
func (v VHDL) Assign(a Assign) string {
	return fmt.Sprintf("%s%s <= %s;\n", indent, v.Expr(a.Target), v.Expr(a.Value))
}

// Instance emits a direct entity instantiation.
func (v VHDL) Instance(inst Instance) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s%s : entity work.%s\n", indent, inst.Name, inst.Module))

	if len(inst.Params) > 0 {
		params := make([]string, len(inst.Params))
		for i, p := range inst.Params {
			params[i] = fmt.Sprintf("%s => %d", p.Name, p.Value)
		}

		sb.WriteString(indent + indent + "generic map (" + strings.Join(params, ", ") + ")\n")
	}

	sb.WriteString(indent + indent + "port map (\n")
	for i, p := range inst.Ports {
		sb.WriteString(fmt.Sprintf("%s%s%s => %s", indent, indent+indent, p.Formal, v.Expr(p.Actual)))

		if i < len(inst.Ports)-1 {
			sb.WriteString(",\n")
		} else {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(indent + indent + ");\n")

	return sb.String()
}

// Comment emits a line comment.
func (VHDL) Comment(text string) string {
	return indent + "-- " + text + "\n"
}

// EndModule closes the architecture.
func (VHDL) EndModule(m Module) string {
	return "end architecture structural;\n"
}

// Expr renders an expression.
func (v VHDL) Expr(e Expr) string {
	switch e := e.(type) {
	case Ref:
		return e.Name
	case Index:
		return fmt.Sprintf("%s(%d)", e.Name, e.Index)
	case Slice:
		return fmt.Sprintf("%s(%d downto %d)", e.Name, e.Hi, e.Lo)
	case Concat:
		if len(e.Parts) == 1 {
			return v.Expr(e.Parts[0])
		}

		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = v.Expr(p)
		}

		return "(" + strings.Join(parts, " & ") + ")"
	case Const:
		if e.Width == 1 {
			return "'" + constBits(e) + "'"
		}

		return "\"" + constBits(e) + "\""
	default:
		panic("unknown expression")
	}
}
