package ast

import "testing"

func TestModuleByName(t *testing.T) {
	d := &Design{Modules: []*Module{
		{Name: "a"},
		{Name: "b"},
	}}
	if m := d.ModuleByName("b"); m == nil || m.Name != "b" {
		t.Fatalf("ModuleByName(b) = %v", m)
	}
	if m := d.ModuleByName("c"); m != nil {
		t.Fatalf("ModuleByName(c) = %v, want nil", m)
	}
}

func TestNodeKindsImplementInterfaces(t *testing.T) {
	var exprs = []Expr{
		Ref{Name: "x"},
		Number{Literal: "4'b1010"},
		Unary{Op: "~", Operand: Ref{Name: "x"}},
		Binary{Op: "&", LHS: Ref{Name: "a"}, RHS: Ref{Name: "b"}},
		Ternary{Cond: Ref{Name: "c"}, Then: Ref{Name: "t"}, Else: Ref{Name: "f"}},
		Concat{Elems: []Expr{Ref{Name: "a"}, Ref{Name: "b"}}},
		Replication{Count: Number{Literal: "2"}, Elems: []Expr{Ref{Name: "a"}}},
		BitSelect{Base: Ref{Name: "r"}, Index: Number{Literal: "0"}},
	}
	for _, e := range exprs {
		_ = e.Position()
	}

	var stmts = []Stmt{
		Null{},
		Block{Stmts: []Stmt{Null{}}},
		If{Cond: Ref{Name: "c"}},
		Case{Kind: CaseEq},
		BlockingAssign{},
		NonBlockingAssign{},
		Delay{},
		ExprStmt{Finish: true},
	}
	for _, s := range stmts {
		_ = s.Position()
	}

	var items = []Item{
		NetDecl{Name: "w"},
		VarDecl{Kind: DeclReg, Name: "r"},
		ParamDecl{Name: "W"},
		ContinuousAssign{},
		Always{Kind: AlwaysComb},
		Initial{},
		Instance{Module: "sub"},
		Generate{},
		GenVarDecl{Name: "i"},
	}
	for _, it := range items {
		_ = it.Position()
	}
}
