package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Narrain/eda-tool/diag"
	"github.com/Narrain/eda-tool/elaborate"
	"github.com/Narrain/eda-tool/internal/parser"
	"github.com/Narrain/eda-tool/irbuilder"
	"github.com/Narrain/eda-tool/kernel"
	"github.com/Narrain/eda-tool/rtl"
	"github.com/Narrain/eda-tool/techmap"
	"github.com/Narrain/eda-tool/vcd"
)

// buildError marks a diagnostic as a usage/parse/elaboration failure,
// spec.md §6's exit code 1.
type buildError struct{ err error }

func (b *buildError) Error() string { return b.err.Error() }
func (b *buildError) Unwrap() error { return b.err }

// exitCodeFor maps an error returned from the root or batch command to
// the process exit code: 0 for a nil error, 1 for any other error
// (usage/parse/elaboration failures). It never returns 2, the exit code
// for property failures: this build has no property-evaluation facility.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return !color.NoColor
	}
}

// buildDesign runs the parse -> elaborate -> lower pipeline for path,
// printing any lowering warnings through p, and returns the resulting
// RTL design or a *buildError on the first fatal diagnostic.
func buildDesign(path string, p *diag.Printer) (*rtl.RtlDesign, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &buildError{errors.Wrapf(err, "reading %s", path)}
	}
	d, err := parser.Parse(path, string(src))
	if err != nil {
		return nil, &buildError{err}
	}
	ed, err := elaborate.New().Elaborate(d)
	if err != nil {
		return nil, &buildError{err}
	}
	b := irbuilder.New()
	rd, err := b.Build(ed)
	if err != nil {
		return nil, &buildError{err}
	}
	if p != nil {
		p.PrintAll(diag.FromLoweringWarnings(b.Warnings))
	}
	techmap.Map(rd)
	return rd, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	path := args[0]
	vcdPath, _ := cmd.Flags().GetString("vcd")
	maxTime, _ := cmd.Flags().GetInt64("max")

	p := diag.NewPrinter(cmd.ErrOrStderr(), colorEnabled(cmd))

	rd, err := buildDesign(path, p)
	if err != nil {
		p.Print(diag.Diagnostic{Severity: diag.SevError, Message: err.Error()})
		return err
	}

	writer, err := vcd.New(vcdPath)
	if err != nil {
		return &buildError{err}
	}
	defer writer.Close()

	k := kernel.New()
	if err := k.LoadDesign(rd); err != nil {
		return &buildError{err}
	}
	k.Tracer = writer
	for _, m := range rd.Modules {
		for _, n := range m.Nets {
			writer.AddSignal(n.Name, n.Width)
		}
	}
	if err := writer.DumpHeader(); err != nil {
		return &buildError{err}
	}

	k.Run(maxTime)
	fmt.Fprintf(cmd.OutOrStdout(), "simulation finished at time %d (stop requested: %v)\n", k.Time(), k.StopRequested())
	return nil
}
