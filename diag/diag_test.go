package diag

import (
	"strings"
	"testing"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/irbuilder"
)

func TestPrintFormatsPosSeverityMessage(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb, false)
	p.Print(Diagnostic{Severity: SevError, Pos: ast.Pos{File: "t.v", Line: 3, Col: 5}, Message: "bad thing"})
	got := sb.String()
	if !strings.Contains(got, "t.v:3:5") || !strings.Contains(got, "error") || !strings.Contains(got, "bad thing") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestPrintColorsSeverityWhenEnabled(t *testing.T) {
	var plain, colored strings.Builder
	NewPrinter(&plain, false).Print(Diagnostic{Severity: SevWarning, Message: "m"})
	NewPrinter(&colored, true).Print(Diagnostic{Severity: SevWarning, Message: "m"})
	if plain.String() == colored.String() {
		t.Fatal("expected colored output to differ from plain output")
	}
}

func TestFromLoweringWarningsConvertsEachEntry(t *testing.T) {
	ws := []irbuilder.Warning{
		{Pos: ast.Pos{File: "a.v", Line: 1, Col: 1}, Message: "concat lowered to placeholder"},
	}
	ds := FromLoweringWarnings(ws)
	if len(ds) != 1 || ds[0].Severity != SevWarning || ds[0].Message != ws[0].Message {
		t.Fatalf("got %+v", ds)
	}
}
