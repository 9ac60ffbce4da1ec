package elaborate

import (
	"testing"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/internal/parser"
)

func TestElaborateGenerateForBitSelect(t *testing.T) {
	src := `
module m;
  reg [3:0] r;
  genvar i;
  generate
    for (i=0; i<4; i=i+1) begin: g
      wire w;
      assign w = r[i];
    end
  endgenerate
  initial begin r = 4'b1010; #1 $finish; end
endmodule
`
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	em := ed.ModuleByName("m")
	if em == nil {
		t.Fatal("module m not elaborated")
	}

	var nets, assigns int
	for _, it := range em.FlatItems {
		switch a := it.(type) {
		case ast.NetDecl:
			if a.Name == "w" {
				nets++
			}
		case ast.ContinuousAssign:
			if ref, ok := a.LHS.(ast.Ref); ok && ref.Name == "w" {
				assigns++
				bs, ok := a.RHS.(ast.BitSelect)
				if !ok {
					t.Fatalf("assign %d RHS is not a BitSelect: %#v", assigns, a.RHS)
				}
				if base, ok := bs.Base.(ast.Ref); !ok || base.Name != "r" {
					t.Errorf("assign %d: base = %#v, want r", assigns, bs.Base)
				}
				if _, ok := bs.Index.(ast.Number); !ok {
					t.Errorf("assign %d: index not substituted to a literal: %#v", assigns, bs.Index)
				}
			}
		}
	}
	if nets != 4 {
		t.Errorf("got %d 'w' net decls, want 4", nets)
	}
	if assigns != 4 {
		t.Errorf("got %d 'w' continuous assigns, want 4", assigns)
	}

	// No Generate node survives flattening.
	for _, it := range em.FlatItems {
		if _, ok := it.(ast.Generate); ok {
			t.Error("flat_items contains a Generate node")
		}
	}
}

func TestElaborateParamFolding(t *testing.T) {
	src := `
module m;
  parameter W = 8;
  parameter W2 = W*2;
endmodule
`
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	em := ed.ModuleByName("m")
	if p := em.Params["W"]; !p.Valid || p.Value != 8 {
		t.Errorf("W = %+v, want 8", p)
	}
	if p := em.Params["W2"]; !p.Valid || p.Value != 16 {
		t.Errorf("W2 = %+v, want 16", p)
	}
}

func TestElaborateGenIfKeepsTakenBranch(t *testing.T) {
	src := `
module m;
  generate
    if (1) begin
      wire ok;
    end
  endgenerate
endmodule
`
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	em := ed.ModuleByName("m")
	found := false
	for _, it := range em.FlatItems {
		if nd, ok := it.(ast.NetDecl); ok && nd.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("expected 'ok' net to survive a true generate-if")
	}
}
