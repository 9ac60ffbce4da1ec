// Package simtest provides a one-call source-to-kernel helper for tests
// elsewhere in the module, grounded on hwtest.ComparePart's role in the
// teacher repo: build the thing under test, run it, hand the caller
// something to assert against.
package simtest

import (
	"testing"

	"github.com/Narrain/eda-tool/elaborate"
	"github.com/Narrain/eda-tool/internal/parser"
	"github.com/Narrain/eda-tool/irbuilder"
	"github.com/Narrain/eda-tool/kernel"
)

// Run parses, elaborates and lowers src, loads it into a fresh kernel and
// advances that kernel to maxTime (0 meaning "until the event queue
// drains or $finish fires"). It fails the test immediately on any
// compile-time error, mirroring the teacher's t.Fatal-on-build-error
// style.
func Run(t *testing.T, src string, maxTime int64) *kernel.Kernel {
	t.Helper()
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ed, err := elaborate.New().Elaborate(d)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	rd, err := irbuilder.New().Build(ed)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	k := kernel.New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("load design: %v", err)
	}
	k.Run(maxTime)
	return k
}
