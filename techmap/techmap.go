// Package techmap performs a best-effort technology mapping pass: it
// recognizes continuous assigns whose right-hand side is a bitwise
// operation over plain signal references (a `~`/`!` of one reference, or
// a chain of a single AND/OR/XOR/XNOR operator over references) and
// rewrites them into primitive rtl.Gate instances, the way a synthesis
// backend folds logic into gate-level primitives. Assigns it cannot
// confidently map (arithmetic, comparisons, literals, mixed-operator or
// other nested expressions) are left as continuous assigns for the kernel's
// expression evaluator to handle directly.
package techmap

import "github.com/Narrain/eda-tool/rtl"

var gateKindByOp = map[string]rtl.GateKind{
	"&":  rtl.GateAnd,
	"|":  rtl.GateOr,
	"^":  rtl.GateXor,
	"~^": rtl.GateXnor,
}

// Map rewrites every module in d in place, replacing gate-mappable
// continuous assigns with rtl.Gate entries. It returns the number of
// assigns it mapped, for diagnostic reporting.
func Map(d *rtl.RtlDesign) int {
	mapped := 0
	for _, m := range d.Modules {
		mapped += mapModule(m)
	}
	return mapped
}

func mapModule(m *rtl.RtlModule) int {
	var kept []rtl.ContinuousAssign
	mapped := 0
	for _, ca := range m.ContinuousAssigns {
		if g, ok := mapAssign(ca); ok {
			m.Gates = append(m.Gates, g)
			mapped++
			continue
		}
		kept = append(kept, ca)
	}
	m.ContinuousAssigns = kept
	return mapped
}

// mapAssign recognizes `out = a OP b` and `out = ~a` / `out = !a` shapes
// where every operand is a bare signal reference, folding them into a
// single primitive gate. Binary AND/OR/XOR/XNOR chains of plain refs
// ("y = a & b & c") are folded into one multi-input gate, the way a
// gate-level netlist represents a wide AND as one cell rather than a
// cascade of two-input ones.
func mapAssign(ca rtl.ContinuousAssign) (rtl.Gate, bool) {
	switch ca.RHS.Kind {
	case rtl.ExprUnary:
		if ca.RHS.Op != "~" && ca.RHS.Op != "!" {
			return rtl.Gate{}, false
		}
		if ca.RHS.Operand.Kind != rtl.ExprRef {
			return rtl.Gate{}, false
		}
		return rtl.Gate{Kind: rtl.GateNot, Inputs: []string{ca.RHS.Operand.Name}, Out: ca.LHSName}, true
	case rtl.ExprBinary:
		kind, ok := gateKindByOp[ca.RHS.Op]
		if !ok {
			return rtl.Gate{}, false
		}
		inputs, ok := collectRefChain(ca.RHS, ca.RHS.Op)
		if !ok {
			return rtl.Gate{}, false
		}
		return rtl.Gate{Kind: kind, Inputs: inputs, Out: ca.LHSName}, true
	default:
		return rtl.Gate{}, false
	}
}

// collectRefChain flattens a left-leaning chain of the same binary op
// over bare refs (e.g. (a&b)&c) into an ordered input list. It refuses
// mixed ops or any non-ref leaf.
func collectRefChain(e *rtl.RtlExpr, op string) ([]string, bool) {
	if e.Kind == rtl.ExprRef {
		return []string{e.Name}, true
	}
	if e.Kind != rtl.ExprBinary || e.Op != op {
		return nil, false
	}
	left, ok := collectRefChain(e.LHS, op)
	if !ok {
		return nil, false
	}
	right, ok := collectRefChain(e.RHS, op)
	if !ok {
		return nil, false
	}
	return append(left, right...), true
}
