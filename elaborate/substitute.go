package elaborate

import "github.com/Narrain/eda-tool/ast"

// substituteGenItem clones gi, replacing every occurrence of the genvar
// identifier with the integer literal v, in all expressions and
// sub-statements (including bit-select indices), per the generate-for
// unrolling rule.
func substituteGenItem(gi ast.GenItem, genvar string, v int64) ast.GenItem {
	switch g := gi.(type) {
	case ast.GenBlock:
		items := make([]ast.Item, len(g.Items))
		for i, it := range g.Items {
			items[i] = substituteItem(it, genvar, v)
		}
		return ast.GenBlock{GenItemPos: g.GenItemPos, Label: g.Label, Items: items}
	case ast.GenSeq:
		items := make([]ast.GenItem, len(g.Items))
		for i, it := range g.Items {
			items[i] = substituteGenItem(it, genvar, v)
		}
		return ast.GenSeq{GenItemPos: g.GenItemPos, Items: items}
	case ast.GenIf:
		n := ast.GenIf{GenItemPos: g.GenItemPos, Cond: substituteExpr(g.Cond, genvar, v), Then: substituteGenItem(g.Then, genvar, v)}
		if g.Else != nil {
			n.Else = substituteGenItem(g.Else, genvar, v)
		}
		return n
	case ast.GenFor:
		// A nested generate-for may legally reuse an outer genvar name in
		// its own scope; substitution still applies to everything outside
		// the nested genvar's own shadow, which in this subset (no nested
		// same-name genvars in practice) is simply everything.
		return ast.GenFor{
			GenItemPos: g.GenItemPos,
			Genvar:     g.Genvar,
			Init:       substituteExpr(g.Init, genvar, v),
			Cond:       substituteExpr(g.Cond, genvar, v),
			Step:       substituteExpr(g.Step, genvar, v),
			Body:       substituteGenItem(g.Body, genvar, v),
		}
	case ast.GenCase:
		branches := make([]ast.GenCaseBranch, len(g.Branches))
		for i, br := range g.Branches {
			matches := make([]ast.Expr, len(br.Matches))
			for j, m := range br.Matches {
				matches[j] = substituteExpr(m, genvar, v)
			}
			branches[i] = ast.GenCaseBranch{Matches: matches, Item: substituteGenItem(br.Item, genvar, v), Default: br.Default}
		}
		return ast.GenCase{GenItemPos: g.GenItemPos, Expr: substituteExpr(g.Expr, genvar, v), Branches: branches}
	default:
		return gi
	}
}

func substituteItem(item ast.Item, genvar string, v int64) ast.Item {
	switch it := item.(type) {
	case ast.NetDecl:
		return ast.NetDecl{ItemPos: it.ItemPos, Name: it.Name,
			MSB: substituteExpr(it.MSB, genvar, v), LSB: substituteExpr(it.LSB, genvar, v), Init: substituteExpr(it.Init, genvar, v)}
	case ast.VarDecl:
		return ast.VarDecl{ItemPos: it.ItemPos, Kind: it.Kind, Name: it.Name,
			MSB: substituteExpr(it.MSB, genvar, v), LSB: substituteExpr(it.LSB, genvar, v), Init: substituteExpr(it.Init, genvar, v)}
	case ast.ParamDecl:
		return ast.ParamDecl{ItemPos: it.ItemPos, Name: it.Name, Value: substituteExpr(it.Value, genvar, v), Local: it.Local}
	case ast.ContinuousAssign:
		return ast.ContinuousAssign{ItemPos: it.ItemPos, LHS: substituteExpr(it.LHS, genvar, v), RHS: substituteExpr(it.RHS, genvar, v)}
	case ast.Always:
		return ast.Always{ItemPos: it.ItemPos, Kind: it.Kind, Star: it.Star,
			Sensitivity: it.Sensitivity, Body: substituteStmt(it.Body, genvar, v)}
	case ast.Initial:
		return ast.Initial{ItemPos: it.ItemPos, Body: substituteStmt(it.Body, genvar, v)}
	case ast.Instance:
		params := make([]ast.ParamConn, len(it.ParamOverrides))
		for i, pc := range it.ParamOverrides {
			params[i] = ast.ParamConn{Name: pc.Name, Value: substituteExpr(pc.Value, genvar, v)}
		}
		ports := make([]ast.PortConn, len(it.Ports))
		for i, pc := range it.Ports {
			ports[i] = ast.PortConn{Name: pc.Name, Expr: substituteExpr(pc.Expr, genvar, v)}
		}
		return ast.Instance{ItemPos: it.ItemPos, Module: it.Module, InstanceName: it.InstanceName, ParamOverrides: params, Ports: ports}
	case ast.Generate:
		return ast.Generate{ItemPos: it.ItemPos, Item: substituteGenItem(it.Item, genvar, v)}
	case ast.GenVarDecl:
		return it
	default:
		return item
	}
}

func substituteStmt(s ast.Stmt, genvar string, v int64) ast.Stmt {
	if s == nil {
		return nil
	}
	switch st := s.(type) {
	case ast.Null:
		return st
	case ast.Block:
		stmts := make([]ast.Stmt, len(st.Stmts))
		for i, sub := range st.Stmts {
			stmts[i] = substituteStmt(sub, genvar, v)
		}
		return ast.Block{StmtPos: st.StmtPos, Label: st.Label, Stmts: stmts}
	case ast.If:
		n := ast.If{StmtPos: st.StmtPos, Cond: substituteExpr(st.Cond, genvar, v), Then: substituteStmt(st.Then, genvar, v)}
		if st.Else != nil {
			n.Else = substituteStmt(st.Else, genvar, v)
		}
		return n
	case ast.Case:
		branches := make([]ast.CaseBranch, len(st.Branches))
		for i, br := range st.Branches {
			matches := make([]ast.Expr, len(br.Matches))
			for j, m := range br.Matches {
				matches[j] = substituteExpr(m, genvar, v)
			}
			branches[i] = ast.CaseBranch{Matches: matches, Stmt: substituteStmt(br.Stmt, genvar, v), Default: br.Default}
		}
		return ast.Case{StmtPos: st.StmtPos, Kind: st.Kind, Expr: substituteExpr(st.Expr, genvar, v), Branches: branches}
	case ast.BlockingAssign:
		return ast.BlockingAssign{StmtPos: st.StmtPos, LHS: substituteExpr(st.LHS, genvar, v), RHS: substituteExpr(st.RHS, genvar, v)}
	case ast.NonBlockingAssign:
		return ast.NonBlockingAssign{StmtPos: st.StmtPos, LHS: substituteExpr(st.LHS, genvar, v), RHS: substituteExpr(st.RHS, genvar, v)}
	case ast.Delay:
		return ast.Delay{StmtPos: st.StmtPos, Expr: substituteExpr(st.Expr, genvar, v), Stmt: substituteStmt(st.Stmt, genvar, v)}
	case ast.ExprStmt:
		return ast.ExprStmt{StmtPos: st.StmtPos, Expr: substituteExpr(st.Expr, genvar, v), Finish: st.Finish}
	default:
		return s
	}
}

func substituteExpr(e ast.Expr, genvar string, v int64) ast.Expr {
	if e == nil {
		return nil
	}
	switch ex := e.(type) {
	case ast.Ref:
		if ex.Name == genvar {
			return litExpr(ex.Position(), v)
		}
		return ex
	case ast.Number:
		return ex
	case ast.Str:
		return ex
	case ast.Unary:
		return ast.Unary{ExprPos: ex.ExprPos, Op: ex.Op, Operand: substituteExpr(ex.Operand, genvar, v)}
	case ast.Binary:
		return ast.Binary{ExprPos: ex.ExprPos, Op: ex.Op, LHS: substituteExpr(ex.LHS, genvar, v), RHS: substituteExpr(ex.RHS, genvar, v)}
	case ast.Ternary:
		return ast.Ternary{ExprPos: ex.ExprPos, Cond: substituteExpr(ex.Cond, genvar, v), Then: substituteExpr(ex.Then, genvar, v), Else: substituteExpr(ex.Else, genvar, v)}
	case ast.Concat:
		elems := make([]ast.Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = substituteExpr(el, genvar, v)
		}
		return ast.Concat{ExprPos: ex.ExprPos, Elems: elems}
	case ast.Replication:
		elems := make([]ast.Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = substituteExpr(el, genvar, v)
		}
		return ast.Replication{ExprPos: ex.ExprPos, Count: substituteExpr(ex.Count, genvar, v), Elems: elems}
	case ast.BitSelect:
		return ast.BitSelect{ExprPos: ex.ExprPos, Base: substituteExpr(ex.Base, genvar, v), Index: substituteExpr(ex.Index, genvar, v)}
	default:
		return e
	}
}
