package kernel

import "github.com/Narrain/eda-tool/rtl"

// Thread is the small continuation record exec_stmt operates on: Cur is
// the current arena index (-1 means the chain has ended), Proc owns the
// arena being walked, and Entry is the process's first_stmt, used to
// restart a free-running Always process with an empty sensitivity list
// (spec.md §4.5, e.g. `always #5 clk = ~clk;`).
type Thread struct {
	Cur   int
	Proc  *rtl.RtlProcess
	Entry int
}

// execStmt walks a statement chain to completion or to its next
// suspension point (a Delay node, which reschedules a continuation and
// yields).
func (k *Kernel) execStmt(t Thread) {
	for {
		if t.Cur == -1 {
			if t.Proc.Kind == rtl.ProcAlways && len(t.Proc.Sensitivity) == 0 {
				t.Cur = t.Entry
				continue
			}
			return
		}
		s := t.Proc.Stmts[t.Cur]
		switch s.Kind {
		case rtl.StmtBlockingAssign:
			k.driveSignal(s.LHSName, k.evalExpr(s.RHS), false)
			t.Cur = s.Next
		case rtl.StmtNonBlockingAssign:
			k.driveSignal(s.LHSName, k.evalExpr(s.RHS), true)
			t.Cur = s.Next
		case rtl.StmtDelay:
			delay := k.evalExpr(s.DelayExpr).Int()
			if delay < 0 {
				delay = 0
			}
			cont := Thread{Cur: s.DelayStmt, Proc: t.Proc, Entry: t.Entry}
			proc := &procEntry{region: RegionActive, fn: func(k *Kernel) { k.execStmt(cont) }}
			k.schedule(proc, delay)
			return
		case rtl.StmtFinish:
			k.stopRequested = true
			return
		default:
			return
		}
	}
}
