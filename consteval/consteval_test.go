package consteval

import (
	"testing"

	"github.com/Narrain/eda-tool/ast"
)

func TestEvalNumberAndIdentifier(t *testing.T) {
	env := Env{"W": 8}
	r := Eval(ast.Ref{Name: "W"}, env)
	if !r.Valid || r.Value != 8 {
		t.Fatalf("Eval(W) = %+v", r)
	}
	r = Eval(ast.Ref{Name: "undefined"}, env)
	if r.Valid {
		t.Fatalf("Eval(undefined) should be invalid, got %+v", r)
	}
	r = Eval(ast.Number{Literal: "42"}, env)
	if !r.Valid || r.Value != 42 {
		t.Fatalf("Eval(42) = %+v", r)
	}
}

func TestEvalArithmeticAndDivByZero(t *testing.T) {
	env := Env{}
	r := Eval(ast.Binary{Op: "/", LHS: ast.Number{Literal: "10"}, RHS: ast.Number{Literal: "0"}}, env)
	if !r.Valid || r.Value != 0 {
		t.Fatalf("div by zero should fold to 0, got %+v", r)
	}
	r = Eval(ast.Binary{Op: "+", LHS: ast.Number{Literal: "2"}, RHS: ast.Number{Literal: "3"}}, env)
	if !r.Valid || r.Value != 5 {
		t.Fatalf("2+3 = %+v, want 5", r)
	}
}

func TestEvalShiftsMaskedBy63(t *testing.T) {
	r := Eval(ast.Binary{Op: "<<", LHS: ast.Number{Literal: "1"}, RHS: ast.Number{Literal: "64"}}, Env{})
	// shift amount 64 & 63 == 0, so result should be 1 (not 0)
	if !r.Valid || r.Value != 1 {
		t.Fatalf("1<<64 masked = %+v, want 1", r)
	}
}

func TestEvalTernary(t *testing.T) {
	tern := ast.Ternary{
		Cond: ast.Number{Literal: "1"},
		Then: ast.Number{Literal: "7"},
		Else: ast.Number{Literal: "9"},
	}
	if r := Eval(tern, Env{}); !r.Valid || r.Value != 7 {
		t.Fatalf("ternary(1,7,9) = %+v, want 7", r)
	}
	tern.Cond = ast.Number{Literal: "0"}
	if r := Eval(tern, Env{}); !r.Valid || r.Value != 9 {
		t.Fatalf("ternary(0,7,9) = %+v, want 9", r)
	}
}

func TestEvalUnresolvedIsInvalid(t *testing.T) {
	r := Eval(ast.Concat{}, Env{})
	if r.Valid {
		t.Fatalf("Concat should not fold, got %+v", r)
	}
}
