// Package irbuilder transforms an elaborated design into the RTL IR:
// ternary/bit-select desugaring, and two-phase procedural statement-graph
// construction with stable index-based cross-references.
package irbuilder

import (
	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/elaborate"
	"github.com/Narrain/eda-tool/rtl"
)

// opMap translates a surface-syntax operator token into its RTL op name.
// Bitwise/logical ops carry through unchanged except for the conventional
// BitAnd/BitOr aliasing called out in the lowering rules; in this textual
// encoding "&"/"|" already serve double duty for both bitwise and the RTL
// op name, so the map exists primarily for the few operators that need a
// distinct RTL spelling.
var opMap = map[string]string{
	"&": "&", "|": "|", "^": "^", "~^": "~^",
	"&&": "&&", "||": "||",
	"==": "==", "!=": "!=", "===": "==", "!==": "!=",
	"<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"<<": "<<", ">>": ">>",
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
}

var unaryOpMap = map[string]string{
	"+": "+", "-": "-", "!": "!", "~": "~",
}

// Warning is a non-fatal lowering diagnostic (spec.md §7: lowering
// warnings never abort, they just mean reduced fidelity).
type Warning struct {
	Pos     ast.Pos
	Message string
}

// Builder lowers an ElaboratedDesign into an *rtl.RtlDesign.
type Builder struct {
	Warnings []Warning
}

// New returns a Builder.
func New() *Builder { return &Builder{} }

// Build lowers every elaborated module into the RTL design.
func (b *Builder) Build(ed *elaborate.ElaboratedDesign) (*rtl.RtlDesign, error) {
	d := &rtl.RtlDesign{}
	for _, em := range ed.Modules {
		m, err := b.buildModule(em)
		if err != nil {
			return nil, errors.Wrapf(err, "building module %s", em.Source.Name)
		}
		d.Modules = append(d.Modules, m)
	}
	return d, nil
}

func (b *Builder) warn(pos ast.Pos, msg string) {
	b.Warnings = append(b.Warnings, Warning{Pos: pos, Message: msg})
}

func (b *Builder) buildModule(em *elaborate.ElaboratedModule) (*rtl.RtlModule, error) {
	m := &rtl.RtlModule{Name: em.Source.Name}
	for _, n := range em.Nets {
		m.Nets = append(m.Nets, rtl.Net{Name: n.Name, Width: n.Width})
	}
	for _, inst := range em.Instances {
		ports := make(map[string]string, len(inst.Ports))
		for k, v := range inst.Ports {
			ports[k] = v
		}
		m.Instances = append(m.Instances, rtl.Instance{Module: inst.Module, InstanceName: inst.InstanceName, Ports: ports})
	}

	for _, item := range em.FlatItems {
		switch it := item.(type) {
		case ast.NetDecl:
			if it.Init != nil {
				m.Processes = append(m.Processes, b.initializerProcess(it.Name, it.Init))
			}
		case ast.VarDecl:
			if it.Init != nil {
				m.Processes = append(m.Processes, b.initializerProcess(it.Name, it.Init))
			}
		case ast.ContinuousAssign:
			ca, err := b.buildContinuousAssign(it)
			if err != nil {
				return nil, err
			}
			m.ContinuousAssigns = append(m.ContinuousAssigns, ca)
		case ast.Always:
			p, err := b.buildAlwaysProcess(it)
			if err != nil {
				return nil, err
			}
			m.Processes = append(m.Processes, p)
		case ast.Initial:
			p, err := b.buildInitialProcess(it)
			if err != nil {
				return nil, err
			}
			m.Processes = append(m.Processes, p)
		}
	}
	return m, nil
}

// initializerProcess synthesizes the one-statement Initial process for a
// net/var declaration with an initializer.
func (b *Builder) initializerProcess(name string, init ast.Expr) *rtl.RtlProcess {
	p := &rtl.RtlProcess{Kind: rtl.ProcInitial, FirstStmt: 0}
	p.Stmts = []rtl.RtlStmt{{
		Kind:    rtl.StmtBlockingAssign,
		LHSName: name,
		RHS:     b.lowerExpr(init),
		Next:    -1,
	}}
	p.Assigns = []rtl.Assign{{LHSName: name, RHS: b.lowerExpr(init)}}
	return p
}

// buildContinuousAssign lowers `assign lhs = rhs;`. The LHS must be an
// identifier or a bit-select over an identifier; in both cases the driven
// name is the base identifier (spec.md §4.4).
func (b *Builder) buildContinuousAssign(it ast.ContinuousAssign) (rtl.ContinuousAssign, error) {
	name, err := lhsBaseName(it.LHS)
	if err != nil {
		return rtl.ContinuousAssign{}, errors.Wrapf(err, "%s", it.Pos)
	}
	return rtl.ContinuousAssign{LHSName: name, RHS: b.lowerExpr(it.RHS)}, nil
}

func lhsBaseName(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case ast.Ref:
		return n.Name, nil
	case ast.BitSelect:
		return lhsBaseName(n.Base)
	default:
		return "", errors.New("assign target must be an identifier or bit-select")
	}
}

// lowerExpr implements the expression lowering rules of spec.md §4.4:
// Identifier->Ref, Number->Const, same-kind unary/binary nodes, ternary
// desugared to (c & t) | (~c & f), concatenation/replication emitted as
// the unsupported Const("x") placeholder (unsized binary-string literal, all bits X) with a lowering warning.
func (b *Builder) lowerExpr(e ast.Expr) *rtl.RtlExpr {
	switch ex := e.(type) {
	case ast.Ref:
		return rtl.Ref(ex.Name)
	case ast.Number:
		return rtl.Const(ex.Literal)
	case ast.Unary:
		op, ok := unaryOpMap[ex.Op]
		if !ok {
			op = ex.Op
		}
		return rtl.UnaryExpr(op, b.lowerExpr(ex.Operand))
	case ast.Binary:
		op, ok := opMap[ex.Op]
		if !ok {
			op = ex.Op
		}
		return rtl.BinaryExpr(op, b.lowerExpr(ex.LHS), b.lowerExpr(ex.RHS))
	case ast.Ternary:
		c := b.lowerExpr(ex.Cond)
		t := b.lowerExpr(ex.Then)
		f := b.lowerExpr(ex.Else)
		return rtl.BinaryExpr("|",
			rtl.BinaryExpr("&", c, t),
			rtl.BinaryExpr("&", rtl.UnaryExpr("~", c.Clone()), f))
	case ast.BitSelect:
		// Bit-select as an rvalue has no first-class RTL representation;
		// fold it into a Ref of the base so downstream width handling at
		// least reads the right signal (full-precision single-bit
		// selection is a kernel-side concern the core does not model).
		if name, err := lhsBaseName(ex); err == nil {
			return rtl.Ref(name)
		}
		b.warn(ex.Pos, "unsupported bit-select expression, driven net will read as X")
		return rtl.Const("x")
	case ast.Concat:
		b.warn(ex.Pos, "concatenation is unsupported in the core, driven net will read as X")
		return rtl.Const("x")
	case ast.Replication:
		b.warn(ex.Pos, "replication is unsupported in the core, driven net will read as X")
		return rtl.Const("x")
	default:
		b.warn(e.Position(), "unsupported expression kind, driven net will read as X")
		return rtl.Const("x")
	}
}

// buildAlwaysProcess lowers an `always` family item: sensitivity plus
// procedural body via build_proc_body.
func (b *Builder) buildAlwaysProcess(a ast.Always) (*rtl.RtlProcess, error) {
	p := &rtl.RtlProcess{Kind: rtl.ProcAlways}
	if a.Star {
		for _, name := range rhsIdentifiers(a.Body) {
			p.Sensitivity = append(p.Sensitivity, rtl.SensItem{Edge: rtl.SensLevel, Name: name})
		}
	} else {
		for _, s := range a.Sensitivity {
			var edge rtl.SensEdge
			switch s.Edge {
			case ast.SensPosedge:
				edge = rtl.SensPosedge
			case ast.SensNegedge:
				edge = rtl.SensNegedge
			default:
				edge = rtl.SensLevel
			}
			p.Sensitivity = append(p.Sensitivity, rtl.SensItem{Edge: edge, Name: s.Name})
		}
	}

	forceBlocking := a.Kind == ast.AlwaysComb
	forceNonBlocking := a.Kind == ast.AlwaysFF
	if err := b.buildProcBody(p, a.Body, forceBlocking, forceNonBlocking); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) buildInitialProcess(it ast.Initial) (*rtl.RtlProcess, error) {
	p := &rtl.RtlProcess{Kind: rtl.ProcInitial}
	if err := b.buildProcBody(p, it.Body, false, false); err != nil {
		return nil, err
	}
	return p, nil
}

// rhsIdentifiers collects the distinct identifiers read on the RHS of
// every assignment reachable from s, used to infer `@*` sensitivity
// (spec.md's Open Question resolution (a): empty list, kernel/IR-builder
// infers level dependencies from RHS identifiers at IR-construction time).
func rhsIdentifiers(s ast.Stmt) []string {
	seen := map[string]bool{}
	var order []string
	add := func(e ast.Expr) {
		for _, n := range exprIdentifiers(e) {
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}
	}
	var walk func(ast.Stmt)
	walk = func(st ast.Stmt) {
		switch s := st.(type) {
		case ast.Block:
			for _, sub := range s.Stmts {
				walk(sub)
			}
		case ast.If:
			add(s.Cond)
			walk(s.Then)
			if s.Else != nil {
				walk(s.Else)
			}
		case ast.Case:
			add(s.Expr)
			for _, br := range s.Branches {
				for _, m := range br.Matches {
					add(m)
				}
				walk(br.Stmt)
			}
		case ast.BlockingAssign:
			add(s.RHS)
		case ast.NonBlockingAssign:
			add(s.RHS)
		case ast.Delay:
			walk(s.Stmt)
		}
	}
	walk(s)
	return order
}

func exprIdentifiers(e ast.Expr) []string {
	var out []string
	var walk func(ast.Expr)
	walk = func(ex ast.Expr) {
		switch n := ex.(type) {
		case ast.Ref:
			out = append(out, n.Name)
		case ast.Unary:
			walk(n.Operand)
		case ast.Binary:
			walk(n.LHS)
			walk(n.RHS)
		case ast.Ternary:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case ast.Concat:
			for _, el := range n.Elems {
				walk(el)
			}
		case ast.Replication:
			walk(n.Count)
			for _, el := range n.Elems {
				walk(el)
			}
		case ast.BitSelect:
			walk(n.Base)
			walk(n.Index)
		}
	}
	walk(e)
	return out
}
