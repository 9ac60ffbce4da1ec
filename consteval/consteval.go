// Package consteval implements pure integer constant folding over a small
// named environment, used by the elaborator to resolve parameter values,
// generate-loop bounds, and net widths at elaboration time.
package consteval

import (
	"strconv"
	"strings"

	"github.com/Narrain/eda-tool/ast"
)

// Env maps identifiers (parameters, genvars) to their current integer
// value during constant folding.
type Env map[string]int64

// Result is the outcome of folding an expression: Valid is false when the
// expression could not be reduced to a constant (unresolved identifier,
// unsupported node, or a failing sub-evaluation).
type Result struct {
	Valid bool
	Value int64
}

func invalid() Result { return Result{} }
func ok(v int64) Result { return Result{Valid: true, Value: v} }

// Eval folds e under env.
func Eval(e ast.Expr, env Env) Result {
	switch n := e.(type) {
	case ast.Number:
		return evalNumber(n.Literal)
	case ast.Ref:
		v, found := env[n.Name]
		if !found {
			return invalid()
		}
		return ok(v)
	case ast.Unary:
		return evalUnary(n, env)
	case ast.Binary:
		return evalBinary(n, env)
	case ast.Ternary:
		c := Eval(n.Cond, env)
		if !c.Valid {
			return invalid()
		}
		if c.Value != 0 {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)
	default:
		return invalid()
	}
}

// evalNumber folds plain decimal literals and sized decimal literals
// (N'd..). Binary and hex literals (N'b.. / N'h..) are a Value-domain
// concept handled by the kernel's expression evaluator and do not fold
// here; ConstEval only ever produces plain integers (loop bounds,
// parameter defaults, widths).
func evalNumber(lit string) Result {
	lit = strings.TrimSpace(lit)
	if idx := strings.IndexByte(lit, '\''); idx >= 0 {
		// A sized/based literal used in a constant-integer position: fold the
		// decimal magnitude after the base character when the base is decimal,
		// otherwise treat as unfoldable (binary/hex constants carry 4-state
		// information that has no integer meaning here).
		base := lit[idx+1:]
		if len(base) > 0 && (base[0] == 'd' || base[0] == 'D') {
			v, err := strconv.ParseInt(base[1:], 10, 64)
			if err != nil {
				return invalid()
			}
			return ok(v)
		}
		return invalid()
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return invalid()
	}
	return ok(v)
}

func evalUnary(n ast.Unary, env Env) Result {
	v := Eval(n.Operand, env)
	if !v.Valid {
		return invalid()
	}
	switch n.Op {
	case "+":
		return ok(v.Value)
	case "-":
		return ok(-v.Value)
	case "!":
		if v.Value == 0 {
			return ok(1)
		}
		return ok(0)
	case "~":
		return ok(^v.Value)
	default:
		return invalid()
	}
}

func evalBinary(n ast.Binary, env Env) Result {
	a := Eval(n.LHS, env)
	if !a.Valid {
		return invalid()
	}
	b := Eval(n.RHS, env)
	if !b.Valid {
		return invalid()
	}
	x, y := a.Value, b.Value
	switch n.Op {
	case "+":
		return ok(x + y)
	case "-":
		return ok(x - y)
	case "*":
		return ok(x * y)
	case "/":
		if y == 0 {
			return ok(0)
		}
		return ok(x / y)
	case "%":
		if y == 0 {
			return ok(0)
		}
		return ok(x % y)
	case "&":
		return ok(x & y)
	case "|":
		return ok(x | y)
	case "^":
		return ok(x ^ y)
	case "~^":
		return ok(^(x ^ y))
	case "&&":
		return boolResult(x != 0 && y != 0)
	case "||":
		return boolResult(x != 0 || y != 0)
	case "==", "===":
		return boolResult(x == y)
	case "!=", "!==":
		return boolResult(x != y)
	case "<":
		return boolResult(x < y)
	case "<=":
		return boolResult(x <= y)
	case ">":
		return boolResult(x > y)
	case ">=":
		return boolResult(x >= y)
	case "<<":
		return ok(x << (uint64(y) & 63))
	case ">>":
		return ok(x >> (uint64(y) & 63))
	default:
		return invalid()
	}
}

func boolResult(b bool) Result {
	if b {
		return ok(1)
	}
	return ok(0)
}
