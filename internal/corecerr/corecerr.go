// Package corecerr formats the fatal diagnostics the compiler core
// raises. A Diagnostic is a value, not a process exit: only cmd/corec
// decides what to do with one.
package corecerr

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/kestrelsoft/corec/internal/ir"
)

// Category distinguishes the three fatal error families the core can
// raise; all three are fatal and none are ever recovered from.
type Category int

const (
	TypeError Category = iota
	EvalError
	MetaError
)

func (c Category) String() string {
	switch c {
	case TypeError:
		return "type error"
	case EvalError:
		return "compile-time evaluation error"
	case MetaError:
		return "error"
	default:
		return "error"
	}
}

// Diagnostic is a single fatal compiler error: file, line, column, a
// message, and (when Source is available) the offending source line for
// an underline. The core stops at the first Diagnostic it raises.
type Diagnostic struct {
	Category Category
	Message  string
	Pos      ir.Position
	Source   string // the full source text of Pos.File, if known
}

func New(category Category, pos ir.Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{Category: category, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic as "error: message" for Pos.File unknown,
// or a file:line:col header plus an underlined source line when both Pos
// and Source are available. useColor enables ANSI emphasis.
func (d *Diagnostic) Format(useColor bool) string {
	bold := passthrough
	red := passthrough
	if useColor {
		bold = color.New(color.Bold).Sprint
		red = color.New(color.FgRed, color.Bold).Sprint
	}

	var sb strings.Builder
	if d.Pos.File == "" {
		sb.WriteString(bold(red("error: ")))
		sb.WriteString(d.Message)
		return sb.String()
	}

	sb.WriteString(bold(fmt.Sprintf("%s:%d:%d: ", d.Pos.File, d.Pos.Line, d.Pos.Column)))
	sb.WriteString(bold(red("error: ")))
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	line := sourceLine(d.Source, d.Pos.Line)
	if line != "" {
		sb.WriteString(line)
		sb.WriteString("\n")
		column := d.Pos.Column
		if column < 1 {
			column = 1
		}
		sb.WriteString(strings.Repeat(" ", column-1))
		sb.WriteString(bold(red("^")))
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func passthrough(a ...any) string { return fmt.Sprint(a...) }
