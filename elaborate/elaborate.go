// Package elaborate implements the Elaborator: parameter resolution,
// generate-for/if/case unrolling via compile-time genvar substitution, and
// production of a flattened per-module item list free of any Generate
// node.
package elaborate

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/consteval"
)

// maxUnrollIterations bounds generate-for unrolling defensively; the
// language subset has no recursion so any real design terminates well
// below this.
const maxUnrollIterations = 1 << 16

// Param is a resolved module parameter: either a folded integer or, when
// ConstEval could not reduce it, the original literal text.
type Param struct {
	Name    string
	Value   int64
	Valid   bool
	Literal string
}

// NetInfo is a resolved net: name and bit width.
type NetInfo struct {
	Name  string
	Width int
}

// InstanceInfo is a resolved module instantiation.
type InstanceInfo struct {
	Module         string
	InstanceName   string
	ParamOverrides map[string]int64
	// Ports maps port name to the connected net name. Only identifier
	// (ast.Ref) port connections are resolved here; anything else is
	// omitted without a diagnostic.
	Ports map[string]string
}

// ElaboratedModule is the per-module elaboration result: resolved
// parameters and nets, plus the flattened item list (no Generate nodes).
type ElaboratedModule struct {
	Source     *ast.Module
	Params     map[string]Param
	Nets       []NetInfo
	Instances  []InstanceInfo
	FlatItems  []ast.Item
}

// ElaboratedDesign holds one ElaboratedModule per source module. GenArena
// retains the items of every substituted generate-for body that is a
// begin/end block (other body shapes add nothing to it), so the design
// keeps ownership of them explicitly, mirroring the "stable backing arena"
// the source specification calls for (Go's garbage collector already keeps
// anything FlatItems references alive; this slice exists for that
// documentation purpose and for debugging/introspection).
type ElaboratedDesign struct {
	Modules  map[string]*ElaboratedModule
	GenArena []ast.Item
}

// ModuleByName looks up an elaborated module by name.
func (d *ElaboratedDesign) ModuleByName(name string) *ElaboratedModule {
	return d.Modules[name]
}

// Elaborator elaborates an entire *ast.Design.
type Elaborator struct{}

// New returns an Elaborator.
func New() *Elaborator { return &Elaborator{} }

// Elaborate elaborates every module of design.
func (el *Elaborator) Elaborate(design *ast.Design) (*ElaboratedDesign, error) {
	ed := &ElaboratedDesign{Modules: make(map[string]*ElaboratedModule, len(design.Modules))}
	for _, m := range design.Modules {
		em, err := el.elaborateModule(m, design, ed)
		if err != nil {
			return nil, errors.Wrapf(err, "elaborating module %s", m.Name)
		}
		ed.Modules[m.Name] = em
	}
	return ed, nil
}

func (el *Elaborator) elaborateModule(m *ast.Module, design *ast.Design, ed *ElaboratedDesign) (*ElaboratedModule, error) {
	em := &ElaboratedModule{Source: m, Params: make(map[string]Param)}
	env := consteval.Env{}

	var walk func(items []ast.Item) error
	walk = func(items []ast.Item) error {
		for _, item := range items {
			switch it := item.(type) {
			case ast.ParamDecl:
				r := consteval.Eval(it.Value, env)
				p := Param{Name: it.Name}
				if r.Valid {
					p.Value = r.Value
					p.Valid = true
					env[it.Name] = r.Value
				} else if n, ok := it.Value.(ast.Number); ok {
					p.Literal = n.Literal
				}
				em.Params[it.Name] = p
				em.FlatItems = append(em.FlatItems, item)
			case ast.Generate:
				out, err := el.unrollGenItem(it.Item, env, ed)
				if err != nil {
					return err
				}
				em.FlatItems = append(em.FlatItems, out...)
			default:
				em.FlatItems = append(em.FlatItems, item)
			}
		}
		return nil
	}
	if err := walk(m.Items); err != nil {
		return nil, err
	}

	for _, item := range em.FlatItems {
		switch it := item.(type) {
		case ast.NetDecl:
			em.Nets = append(em.Nets, NetInfo{Name: it.Name, Width: netWidth(it.MSB, it.LSB, env)})
		case ast.VarDecl:
			em.Nets = append(em.Nets, NetInfo{Name: it.Name, Width: netWidth(it.MSB, it.LSB, env)})
		case ast.Instance:
			em.Instances = append(em.Instances, resolveInstance(it, env, design))
		}
	}
	// module ports that have no explicit net decl still need a storage
	// slot; the kernel/IR builder treat ports like any other net, so add
	// one here if not already declared.
	declared := make(map[string]bool, len(em.Nets))
	for _, n := range em.Nets {
		declared[n.Name] = true
	}
	for _, port := range m.Ports {
		if !declared[port.Name] {
			em.Nets = append(em.Nets, NetInfo{Name: port.Name, Width: netWidth(port.MSB, port.LSB, env)})
			declared[port.Name] = true
		}
	}

	return em, nil
}

func netWidth(msb, lsb ast.Expr, env consteval.Env) int {
	if msb == nil || lsb == nil {
		return 1
	}
	m := consteval.Eval(msb, env)
	l := consteval.Eval(lsb, env)
	if !m.Valid || !l.Valid {
		return 1
	}
	w := m.Value - l.Value
	if w < 0 {
		w = -w
	}
	return int(w) + 1
}

func resolveInstance(it ast.Instance, env consteval.Env, design *ast.Design) InstanceInfo {
	info := InstanceInfo{
		Module:         it.Module,
		InstanceName:   it.InstanceName,
		ParamOverrides: map[string]int64{},
		Ports:          map[string]string{},
	}
	for _, po := range it.ParamOverrides {
		r := consteval.Eval(po.Value, env)
		if r.Valid {
			info.ParamOverrides[po.Name] = r.Value
		}
	}
	target := design.ModuleByName(it.Module)
	for i, pc := range it.Ports {
		name := pc.Name
		if name == "" && target != nil && i < len(target.Ports) {
			name = target.Ports[i].Name
		}
		if name == "" {
			continue
		}
		if ref, ok := pc.Expr.(ast.Ref); ok {
			info.Ports[name] = ref.Name
		}
	}
	return info
}

// unrollGenItem dispatches a generate-construct node to its unroller,
// appending the resulting ordinary items to the returned slice. env is
// read for current parameter/genvar bindings and never mutated by the
// caller's copy (each recursive call that introduces a genvar binding
// works on its own copy of env).
func (el *Elaborator) unrollGenItem(gi ast.GenItem, env consteval.Env, ed *ElaboratedDesign) ([]ast.Item, error) {
	switch g := gi.(type) {
	case ast.GenBlock:
		var out []ast.Item
		for _, item := range g.Items {
			if gen, ok := item.(ast.Generate); ok {
				nested, err := el.unrollGenItem(gen.Item, env, ed)
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
				continue
			}
			out = append(out, item)
		}
		return out, nil

	case ast.GenSeq:
		var out []ast.Item
		for _, sub := range g.Items {
			nested, err := el.unrollGenItem(sub, env, ed)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil

	case ast.GenIf:
		r := consteval.Eval(g.Cond, env)
		if !r.Valid {
			// Unfoldable condition: conservative skip (spec 4.3).
			return nil, nil
		}
		if r.Value != 0 {
			return el.unrollGenItem(g.Then, env, ed)
		}
		if g.Else != nil {
			return el.unrollGenItem(g.Else, env, ed)
		}
		return nil, nil

	case ast.GenFor:
		return el.unrollGenFor(g, env, ed)

	case ast.GenCase:
		sel := consteval.Eval(g.Expr, env)
		if !sel.Valid {
			return nil, nil
		}
		var dflt *ast.GenCaseBranch
		for i := range g.Branches {
			br := &g.Branches[i]
			if br.Default {
				dflt = br
				continue
			}
			for _, me := range br.Matches {
				mv := consteval.Eval(me, env)
				if mv.Valid && mv.Value == sel.Value {
					return el.unrollGenItem(br.Item, env, ed)
				}
			}
		}
		if dflt != nil {
			return el.unrollGenItem(dflt.Item, env, ed)
		}
		return nil, nil

	default:
		return nil, errors.Errorf("%s: unsupported generate construct", gi.Position())
	}
}

func (el *Elaborator) unrollGenFor(g ast.GenFor, env consteval.Env, ed *ElaboratedDesign) ([]ast.Item, error) {
	initRHS, ok := genAssignRHS(g.Init, g.Genvar)
	if !ok {
		return nil, errors.Errorf("%s: generate for: missing genvar name in init clause", g.Position())
	}
	stepRHS, ok := genStepDelta(g.Step, g.Genvar)
	if !ok {
		return nil, errors.Errorf("%s: generate for: step clause is not '%s = %s + expr'", g.Position(), g.Genvar, g.Genvar)
	}

	startR := consteval.Eval(initRHS, env)
	if !startR.Valid {
		return nil, errors.Errorf("%s: generate for: unfoldable init expression", g.Position())
	}

	var out []ast.Item
	loopEnv := cloneEnv(env)
	v := startR.Value
	for i := 0; i < maxUnrollIterations; i++ {
		loopEnv[g.Genvar] = v
		condR := consteval.Eval(g.Cond, loopEnv)
		if !condR.Valid || condR.Value == 0 {
			break
		}
		substituted := substituteGenItem(g.Body, g.Genvar, v)
		ed.GenArena = append(ed.GenArena, itemsOf(substituted)...)
		nested, err := el.unrollGenItem(substituted, loopEnv, ed)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)

		stepR := consteval.Eval(stepRHS, loopEnv)
		if !stepR.Valid {
			return nil, errors.Errorf("%s: generate for: unfoldable step expression", g.Position())
		}
		v += stepR.Value
	}
	return out, nil
}

func itemsOf(gi ast.GenItem) []ast.Item {
	if b, ok := gi.(ast.GenBlock); ok {
		return b.Items
	}
	return nil
}

func cloneEnv(env consteval.Env) consteval.Env {
	c := make(consteval.Env, len(env)+1)
	for k, v := range env {
		c[k] = v
	}
	return c
}

// genAssignRHS recognizes `genvar = expr` (as produced by the parser for
// a for-loop's init clause) and returns expr.
func genAssignRHS(e ast.Expr, genvar string) (ast.Expr, bool) {
	b, ok := e.(ast.Binary)
	if !ok || b.Op != "=" {
		return nil, false
	}
	r, ok := b.LHS.(ast.Ref)
	if !ok || r.Name != genvar {
		return nil, false
	}
	return b.RHS, true
}

// genStepDelta recognizes `genvar = genvar + expr` and returns expr (the
// per-iteration delta).
func genStepDelta(e ast.Expr, genvar string) (ast.Expr, bool) {
	rhs, ok := genAssignRHS(e, genvar)
	if !ok {
		return nil, false
	}
	b, ok := rhs.(ast.Binary)
	if !ok || b.Op != "+" {
		return nil, false
	}
	r, ok := b.LHS.(ast.Ref)
	if !ok || r.Name != genvar {
		return nil, false
	}
	return b.RHS, true
}

func litExpr(pos ast.Pos, v int64) ast.Expr {
	return ast.Number{ExprPos: ast.ExprPos{Pos: pos}, Literal: strconv.FormatInt(v, 10)}
}
