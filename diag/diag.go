// Package diag formats the diagnostics produced while building and
// running a design (parse/elaboration errors, irbuilder lowering
// warnings) and prints them to a writer, coloring by severity the way
// vovakirdan-surge colors its version banner.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/irbuilder"
)

// Severity classifies a diagnostic. Errors stop the build; warnings
// (e.g. irbuilder's lowering-fallback notices) are reported but do not.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one reportable issue, optionally tied to a source
// position.
type Diagnostic struct {
	Severity Severity
	Pos      ast.Pos
	Message  string
}

// Printer writes Diagnostics to an underlying writer, coloring by
// severity when enabled.
type Printer struct {
	w       io.Writer
	colored bool
}

// NewPrinter builds a Printer. colored selects whether severity labels
// are ANSI-colored (red for errors, yellow for warnings); callers
// typically derive this from the --color flag and whether stdout is a
// terminal.
func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, colored: colored}
}

// Print writes one diagnostic line in the form "<pos>: <severity>:
// <message>".
func (p *Printer) Print(d Diagnostic) {
	label := d.Severity.String()
	if p.colored {
		var c *color.Color
		switch d.Severity {
		case SevError:
			c = color.New(color.FgRed, color.Bold)
		case SevWarning:
			c = color.New(color.FgYellow, color.Bold)
		}
		if c != nil {
			c.EnableColor()
			label = c.Sprint(label)
		}
	}
	fmt.Fprintf(p.w, "%s: %s: %s\n", d.Pos, label, d.Message)
}

// PrintAll prints each diagnostic in order.
func (p *Printer) PrintAll(ds []Diagnostic) {
	for _, d := range ds {
		p.Print(d)
	}
}

// FromLoweringWarnings adapts irbuilder's lowering warnings (unsupported
// constructs folded to an X placeholder) into Diagnostics.
func FromLoweringWarnings(ws []irbuilder.Warning) []Diagnostic {
	ds := make([]Diagnostic, len(ws))
	for i, w := range ws {
		ds[i] = Diagnostic{Severity: SevWarning, Pos: w.Pos, Message: w.Message}
	}
	return ds
}
