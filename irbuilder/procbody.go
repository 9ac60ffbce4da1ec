package irbuilder

import (
	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/rtl"
)

// buildProcBody implements build_proc_body (spec.md §4.4): a linear chain of
// RtlStmt nodes owned by p.Stmts, plus the flat process.assigns[] fallback
// view used by the combinational engine path. forceBlocking/forceNonBlocking
// encode always_comb/always_ff's forced assignment kind.
func (b *Builder) buildProcBody(p *rtl.RtlProcess, body ast.Stmt, forceBlocking, forceNonBlocking bool) error {
	head, _ := b.lowerStmtChain(p, body, forceBlocking, forceNonBlocking)
	p.FirstStmt = head
	b.collectAssigns(p, body, forceBlocking, forceNonBlocking)
	return nil
}

// lowerStmtChain lowers s into zero or more RtlStmt nodes appended to
// p.Stmts, returning the chain's head index (-1 if s contributes nothing to
// the graph) and the set of exit indices whose Next field the caller must
// patch to whatever follows s. `If`/`Case` are not lowered into the graph
// (spec.md §9): they contribute only to the flat assigns list.
func (b *Builder) lowerStmtChain(p *rtl.RtlProcess, s ast.Stmt, forceBlocking, forceNonBlocking bool) (int, []int) {
	switch st := s.(type) {
	case nil, ast.Null:
		return -1, nil

	case ast.Block:
		head := -1
		var tails []int
		for _, sub := range st.Stmts {
			h, ts := b.lowerStmtChain(p, sub, forceBlocking, forceNonBlocking)
			if h == -1 {
				continue
			}
			if head == -1 {
				head = h
			} else {
				for _, t := range tails {
					p.Stmts[t].Next = h
				}
			}
			tails = ts
		}
		return head, tails

	case ast.BlockingAssign:
		nonBlocking := forceNonBlocking && !forceBlocking
		idx := b.appendStmt(p, rtl.RtlStmt{
			Kind:    assignKind(nonBlocking),
			LHSName: baseNameOrEmpty(st.LHS),
			RHS:     b.lowerExpr(st.RHS),
			Next:    -1,
		})
		return idx, []int{idx}

	case ast.NonBlockingAssign:
		nonBlocking := !(forceBlocking && !forceNonBlocking)
		idx := b.appendStmt(p, rtl.RtlStmt{
			Kind:    assignKind(nonBlocking),
			LHSName: baseNameOrEmpty(st.LHS),
			RHS:     b.lowerExpr(st.RHS),
			Next:    -1,
		})
		return idx, []int{idx}

	case ast.Delay:
		dHead, dTails := b.lowerStmtChain(p, st.Stmt, forceBlocking, forceNonBlocking)
		idx := b.appendStmt(p, rtl.RtlStmt{
			Kind:      rtl.StmtDelay,
			DelayExpr: b.lowerExpr(st.Expr),
			DelayStmt: dHead,
			Next:      -1,
		})
		// Both the Delay node and the delayed chain's own exits share the
		// same continuation point (spec.md §4.4): whatever follows the
		// whole `#expr stmt;` construct in the enclosing sequence.
		tails := append([]int{idx}, dTails...)
		return idx, tails

	case ast.ExprStmt:
		if !st.Finish {
			return -1, nil
		}
		idx := b.appendStmt(p, rtl.RtlStmt{Kind: rtl.StmtFinish, Next: -1})
		return idx, []int{idx}

	case ast.If, ast.Case:
		return -1, nil

	default:
		return -1, nil
	}
}

func (b *Builder) appendStmt(p *rtl.RtlProcess, s rtl.RtlStmt) int {
	p.Stmts = append(p.Stmts, s)
	return len(p.Stmts) - 1
}

func assignKind(nonBlocking bool) rtl.StmtKind {
	if nonBlocking {
		return rtl.StmtNonBlockingAssign
	}
	return rtl.StmtBlockingAssign
}

func baseNameOrEmpty(e ast.Expr) string {
	name, err := lhsBaseName(e)
	if err != nil {
		return ""
	}
	return name
}

// collectAssigns walks the full body, including inside If/Case branches and
// Delay's guarded statement, appending every Blocking/NonBlockingAssign to
// p.Assigns with the always-kind-forced blocking/non-blocking semantics
// already applied.
func (b *Builder) collectAssigns(p *rtl.RtlProcess, s ast.Stmt, forceBlocking, forceNonBlocking bool) {
	switch st := s.(type) {
	case nil, ast.Null:
		return
	case ast.Block:
		for _, sub := range st.Stmts {
			b.collectAssigns(p, sub, forceBlocking, forceNonBlocking)
		}
	case ast.If:
		b.collectAssigns(p, st.Then, forceBlocking, forceNonBlocking)
		if st.Else != nil {
			b.collectAssigns(p, st.Else, forceBlocking, forceNonBlocking)
		}
	case ast.Case:
		for _, br := range st.Branches {
			b.collectAssigns(p, br.Stmt, forceBlocking, forceNonBlocking)
		}
	case ast.Delay:
		b.collectAssigns(p, st.Stmt, forceBlocking, forceNonBlocking)
	case ast.BlockingAssign:
		nonBlocking := forceNonBlocking && !forceBlocking
		p.Assigns = append(p.Assigns, rtl.Assign{NonBlocking: nonBlocking, LHSName: baseNameOrEmpty(st.LHS), RHS: b.lowerExpr(st.RHS)})
	case ast.NonBlockingAssign:
		nonBlocking := !(forceBlocking && !forceNonBlocking)
		p.Assigns = append(p.Assigns, rtl.Assign{NonBlocking: nonBlocking, LHSName: baseNameOrEmpty(st.LHS), RHS: b.lowerExpr(st.RHS)})
	}
}
