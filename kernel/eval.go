package kernel

import (
	"strconv"
	"strings"

	"github.com/Narrain/eda-tool/rtl"
	"github.com/Narrain/eda-tool/value"
)

// evalExpr evaluates an RtlExpr against the current signal store
// (spec.md §4.5's "Expression evaluation").
func (k *Kernel) evalExpr(e *rtl.RtlExpr) value.Value {
	if e == nil {
		return value.New(1, value.LX)
	}
	switch e.Kind {
	case rtl.ExprRef:
		return k.GetSignal(e.Name)
	case rtl.ExprConst:
		return parseLiteral(e.Literal)
	case rtl.ExprUnary:
		return evalUnary(e.Op, k.evalExpr(e.Operand))
	case rtl.ExprBinary:
		return evalBinary(e.Op, k.evalExpr(e.LHS), k.evalExpr(e.RHS))
	default:
		return value.New(1, value.LX)
	}
}

func mask(w int) uint64 {
	if w <= 0 {
		return 0
	}
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

func boolBit(b bool) value.Value {
	if b {
		return value.FromUint(1, 1)
	}
	return value.FromUint(1, 0)
}

func evalUnary(op string, a value.Value) value.Value {
	switch op {
	case "+":
		return a
	case "-":
		w := a.Width()
		return value.FromUint(w, (-uint64(a.Int()))&mask(w))
	case "!":
		return boolBit(a.IsZero())
	case "~":
		out := value.New(a.Width(), value.LX)
		for i := 0; i < a.Width(); i++ {
			out.Set(i, value.Not(a.Get(i)))
		}
		return out
	default:
		return value.New(a.Width(), value.LX)
	}
}

func evalBinary(op string, l, r value.Value) value.Value {
	if l.Width() == 0 && r.Width() == 0 {
		// spec.md §4.5: a binary op over two width-0 operands yields a
		// width-1 X result, not a width-0 one.
		return value.New(1, value.LX)
	}
	w := l.Width()
	if r.Width() > w {
		w = r.Width()
	}
	le := l.Resize(w, value.LX)
	re := r.Resize(w, value.LX)

	switch op {
	case "&":
		return combinePerBit(le, re, value.And)
	case "|":
		return combinePerBit(le, re, value.Or)
	case "^":
		return combinePerBit(le, re, value.Xor)
	case "~^":
		return evalUnary("~", combinePerBit(le, re, value.Xor))
	case "&&":
		return boolBit(!le.IsZero() && !re.IsZero())
	case "||":
		return boolBit(!le.IsZero() || !re.IsZero())
	case "==":
		return boolBit(le.Int() == re.Int())
	case "!=":
		return boolBit(le.Int() != re.Int())
	case "<":
		return boolBit(le.Int() < re.Int())
	case "<=":
		return boolBit(le.Int() <= re.Int())
	case ">":
		return boolBit(le.Int() > re.Int())
	case ">=":
		return boolBit(le.Int() >= re.Int())
	case "<<":
		shift := re.Uint() & 63
		return value.FromUint(w, (le.Uint()<<shift)&mask(w))
	case ">>":
		shift := re.Uint() & 63
		return value.FromUint(w, (le.Uint()>>shift)&mask(w))
	case "+":
		return value.FromUint(w, (le.Uint()+re.Uint())&mask(w))
	case "-":
		return value.FromUint(w, (le.Uint()-re.Uint())&mask(w))
	case "*":
		return value.FromUint(w, (le.Uint()*re.Uint())&mask(w))
	case "/":
		if re.Uint() == 0 {
			return value.New(w, value.LX)
		}
		return value.FromUint(w, (le.Uint()/re.Uint())&mask(w))
	case "%":
		if re.Uint() == 0 {
			return value.New(w, value.LX)
		}
		return value.FromUint(w, (le.Uint()%re.Uint())&mask(w))
	default:
		return value.New(w, value.LX)
	}
}

// parseLiteral parses the three sized/based literal forms plus the two
// unsized forms described in spec.md §4.5: `N'b...`/`N'd...`/`N'h...`
// (case-insensitive, X/Z permitted in binary and hex), unsized decimal
// (defaults to 32 bits), and an unsized binary string of 0/1/x/z parsed
// directly at its own length.
func parseLiteral(lit string) value.Value {
	if i := strings.IndexByte(lit, '\''); i >= 0 {
		sizeStr := lit[:i]
		rest := lit[i+1:]
		if rest == "" {
			return value.New(1, value.LX)
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			size = 32
		}
		base := rest[0]
		digits := rest[1:]
		switch base {
		case 'b', 'B':
			return value.FromBinaryString(digits).Resize(size, value.LX)
		case 'd', 'D':
			n, err := strconv.ParseUint(digits, 10, 64)
			if err != nil {
				return value.New(size, value.LX)
			}
			return value.FromUint(size, n)
		case 'h', 'H':
			return value.FromBinaryString(expandHex(digits)).Resize(size, value.LX)
		default:
			return value.New(size, value.LX)
		}
	}

	if isDecimalDigits(lit) {
		n, err := strconv.ParseUint(lit, 10, 64)
		if err != nil {
			return value.New(32, value.LX)
		}
		return value.FromUint(32, n)
	}
	return value.FromBinaryString(lit)
}

func isDecimalDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// expandHex expands each hex digit (case-insensitive, or x/z) into its
// 4-bit binary-string equivalent, MSB-first, matching the nibble-wise
// expansion rule for `N'h...` literals.
func expandHex(digits string) string {
	var sb strings.Builder
	sb.Grow(len(digits) * 4)
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		switch c {
		case 'x', 'X':
			sb.WriteString("xxxx")
		case 'z', 'Z':
			sb.WriteString("zzzz")
		default:
			n, err := strconv.ParseUint(string(c), 16, 8)
			if err != nil {
				sb.WriteString("xxxx")
				continue
			}
			for b := 3; b >= 0; b-- {
				if n&(1<<uint(b)) != 0 {
					sb.WriteByte('1')
				} else {
					sb.WriteByte('0')
				}
			}
		}
	}
	return sb.String()
}
