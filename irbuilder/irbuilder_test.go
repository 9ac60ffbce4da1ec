package irbuilder

import (
	"testing"

	"github.com/Narrain/eda-tool/elaborate"
	"github.com/Narrain/eda-tool/internal/parser"
	"github.com/Narrain/eda-tool/rtl"
)

func buildRtl(t *testing.T, src string) *rtl.RtlDesign {
	t.Helper()
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := elaborate.New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	rd, err := New().Build(ed)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rd
}

func TestTernaryDesugarsToAndOr(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire sel, a, b, y;
  assign y = sel ? a : b;
endmodule
`)
	m := rd.ModuleByName("m")
	if len(m.ContinuousAssigns) != 1 {
		t.Fatalf("got %d continuous assigns, want 1", len(m.ContinuousAssigns))
	}
	ca := m.ContinuousAssigns[0]
	if ca.LHSName != "y" {
		t.Fatalf("LHSName = %q, want y", ca.LHSName)
	}
	top := ca.RHS
	if top.Kind != rtl.ExprBinary || top.Op != "|" {
		t.Fatalf("top node = %+v, want top-level OR", top)
	}
	left := top.LHS
	if left.Kind != rtl.ExprBinary || left.Op != "&" {
		t.Fatalf("left = %+v, want AND(sel, a)", left)
	}
	right := top.RHS
	if right.Kind != rtl.ExprBinary || right.Op != "&" {
		t.Fatalf("right = %+v, want AND(~sel, b)", right)
	}
	if right.LHS.Kind != rtl.ExprUnary || right.LHS.Op != "~" {
		t.Fatalf("right.LHS = %+v, want NOT(sel)", right.LHS)
	}
}

func TestContinuousAssignOnBitSelectLHSDrivesBaseName(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire [3:0] w;
  wire b;
  assign w[0] = b;
endmodule
`)
	m := rd.ModuleByName("m")
	if len(m.ContinuousAssigns) != 1 || m.ContinuousAssigns[0].LHSName != "w" {
		t.Fatalf("continuous assigns = %+v, want single assign driving 'w'", m.ContinuousAssigns)
	}
}

func TestAlwaysCombForcesBlocking(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire a;
  reg y;
  always_comb y <= a;
endmodule
`)
	m := rd.ModuleByName("m")
	if len(m.Processes) != 1 {
		t.Fatalf("got %d processes, want 1", len(m.Processes))
	}
	p := m.Processes[0]
	if p.FirstStmt < 0 || len(p.Stmts) == 0 {
		t.Fatal("expected a non-empty statement graph")
	}
	if p.Stmts[p.FirstStmt].Kind != rtl.StmtBlockingAssign {
		t.Errorf("always_comb body stored as non-blocking despite source '<=': kind = %v", p.Stmts[p.FirstStmt].Kind)
	}
}

func TestAlwaysFFForcesNonBlocking(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire clk, d;
  reg q;
  always_ff @(posedge clk) q = d;
endmodule
`)
	m := rd.ModuleByName("m")
	p := m.Processes[0]
	if p.Stmts[p.FirstStmt].Kind != rtl.StmtNonBlockingAssign {
		t.Errorf("always_ff body stored as blocking despite source '=': kind = %v", p.Stmts[p.FirstStmt].Kind)
	}
	if len(p.Sensitivity) != 1 || p.Sensitivity[0].Edge != rtl.SensPosedge || p.Sensitivity[0].Name != "clk" {
		t.Errorf("sensitivity = %+v, want single posedge clk", p.Sensitivity)
	}
}

func TestStarSensitivityInfersLevelDepsFromRHS(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire a, b;
  reg y;
  always @* y = a & b;
endmodule
`)
	m := rd.ModuleByName("m")
	p := m.Processes[0]
	names := map[string]bool{}
	for _, s := range p.Sensitivity {
		if s.Edge != rtl.SensLevel {
			t.Errorf("sensitivity entry %+v is not a level dep", s)
		}
		names[s.Name] = true
	}
	if !names["a"] || !names["b"] {
		t.Errorf("sensitivity = %+v, want level deps on a and b", p.Sensitivity)
	}
}

func TestDelayChainLinksContinuationThroughDelayedStatement(t *testing.T) {
	rd := buildRtl(t, `
module m;
  reg r;
  initial begin
    r = 1'b0;
    #10 r = 1'b1;
    $finish;
  end
endmodule
`)
	m := rd.ModuleByName("m")
	p := m.Processes[0]
	if p.FirstStmt == -1 {
		t.Fatal("expected non-empty chain")
	}
	s0 := p.Stmts[p.FirstStmt]
	if s0.Kind != rtl.StmtBlockingAssign || s0.RHS.Literal != "1'b0" {
		t.Fatalf("first stmt = %+v, want r=1'b0", s0)
	}
	s1 := p.Stmts[s0.Next]
	if s1.Kind != rtl.StmtDelay {
		t.Fatalf("second stmt = %+v, want Delay", s1)
	}
	if s1.DelayStmt < 0 {
		t.Fatal("Delay.DelayStmt not set")
	}
	s2 := p.Stmts[s1.DelayStmt]
	if s2.Kind != rtl.StmtBlockingAssign || s2.RHS.Literal != "1'b1" {
		t.Fatalf("delayed stmt = %+v, want r=1'b1", s2)
	}
	if s2.Next < 0 {
		t.Fatal("delayed statement's Next was not patched to the continuation")
	}
	s3 := p.Stmts[s2.Next]
	if s3.Kind != rtl.StmtFinish {
		t.Fatalf("continuation after delayed stmt = %+v, want Finish", s3)
	}
}

func TestIfCaseNotAddedToGraphButSurfaceInAssigns(t *testing.T) {
	rd := buildRtl(t, `
module m;
  wire sel;
  reg y;
  always @* begin
    if (sel)
      y = 1'b1;
    else
      y = 1'b0;
  end
endmodule
`)
	m := rd.ModuleByName("m")
	p := m.Processes[0]
	if p.FirstStmt != -1 {
		t.Errorf("FirstStmt = %d, want -1 (if/case not graphed)", p.FirstStmt)
	}
	if len(p.Assigns) != 2 {
		t.Fatalf("got %d flat assigns, want 2", len(p.Assigns))
	}
}

func TestNetInitializerSynthesizesInitialProcess(t *testing.T) {
	rd := buildRtl(t, `
module m;
  reg r = 1'b0;
endmodule
`)
	m := rd.ModuleByName("m")
	if len(m.Processes) != 1 {
		t.Fatalf("got %d processes, want 1 synthesized initial", len(m.Processes))
	}
	p := m.Processes[0]
	if p.Kind != rtl.ProcInitial {
		t.Errorf("kind = %v, want ProcInitial", p.Kind)
	}
	if p.Stmts[p.FirstStmt].LHSName != "r" {
		t.Errorf("LHSName = %q, want r", p.Stmts[p.FirstStmt].LHSName)
	}
}

func TestConcatenationLowersToPlaceholderWithWarning(t *testing.T) {
	b := New()
	rd, err := b.Build(elaborateSrc(t, `
module m;
  wire a, b, y;
  assign y = {a, b};
endmodule
`))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := rd.ModuleByName("m")
	if m.ContinuousAssigns[0].RHS.Kind != rtl.ExprConst || m.ContinuousAssigns[0].RHS.Literal != "x" {
		t.Fatalf("concat lowering = %+v, want Const(x) placeholder", m.ContinuousAssigns[0].RHS)
	}
	if len(b.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(b.Warnings))
	}
}

func elaborateSrc(t *testing.T, src string) *elaborate.ElaboratedDesign {
	t.Helper()
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := elaborate.New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	return ed
}
