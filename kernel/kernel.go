// Package kernel implements the event-driven simulation core: a
// time+delta scheduler over Active/NBA regions, level/posedge/negedge
// sensitivity dispatch, and a procedural thread executor operating
// directly on an *rtl.RtlModule's statement graph.
package kernel

import (
	"container/heap"

	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/rtl"
	"github.com/Narrain/eda-tool/value"
)

// Region names the five classic scheduling regions; only Active and NBA
// are ever scheduled by this core (spec.md §4.5), the rest are carried for
// data-model fidelity and future extension.
type Region int

const (
	RegionPreponed Region = iota
	RegionActive
	RegionInactive
	RegionNBA
	RegionPostponed
)

// ProcFunc is a one-shot process invocation.
type ProcFunc func(k *Kernel)

// procEntry is a process registered at load_design time: an owning entry
// in Kernel.processes, referenced by watcher tables via plain pointer
// (stable for the kernel's lifetime, since processes is append-only and
// never reallocated away from under a live pointer after load_design
// returns).
type procEntry struct {
	fn     ProcFunc
	region Region
}

// Tracer receives value-change events for waveform output; *vcd.Writer
// satisfies this interface.
type Tracer interface {
	DumpTime(t int64)
	DumpValue(name string, v value.Value)
}

// event is one entry of the scheduler's priority queue, ordered by
// (time, delta, region) with ties broken by insertion order.
type event struct {
	time   int64
	delta  int
	region Region
	seq    uint64
	proc   *procEntry
}

type eventHeap []event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	if h[i].delta != h[j].delta {
		return h[i].delta < h[j].delta
	}
	if h[i].region != h[j].region {
		return h[i].region < h[j].region
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Kernel is one simulation run's complete mutable state.
type Kernel struct {
	signals map[string]value.Value
	widths  map[string]int
	order   []string // declaration order, for deterministic VCD traces

	pq        eventHeap
	nbaQueue  []ProcFunc
	processes []*procEntry

	levelWatchers   map[string][]*procEntry
	posedgeWatchers map[string][]*procEntry
	negedgeWatchers map[string][]*procEntry

	curTime       int64
	curDelta      int
	stopRequested bool
	seq           uint64

	Tracer Tracer
}

// New returns an empty Kernel. Call LoadDesign before Run.
func New() *Kernel {
	return &Kernel{
		signals:         make(map[string]value.Value),
		widths:          make(map[string]int),
		levelWatchers:   make(map[string][]*procEntry),
		posedgeWatchers: make(map[string][]*procEntry),
		negedgeWatchers: make(map[string][]*procEntry),
	}
}

// GetSignal returns the current value of a signal (full declared width),
// or an all-X vector of its declared width if never written, and an
// all-X single bit if the name is entirely unknown (spec.md §7: runtime
// reference failures default to X rather than aborting).
func (k *Kernel) GetSignal(name string) value.Value {
	if v, ok := k.signals[name]; ok {
		return v
	}
	if w, ok := k.widths[name]; ok {
		return value.New(w, value.LX)
	}
	return value.New(1, value.LX)
}

// StopRequested reports whether $finish has fired during this run.
func (k *Kernel) StopRequested() bool { return k.stopRequested }

// Time returns the current simulation time.
func (k *Kernel) Time() int64 { return k.curTime }

// LoadDesign resets all kernel state and registers every module of
// design's processes, continuous assigns and gates per spec.md §4.5. No
// top-level module is selected: every module in the design is loaded
// flatly into one shared signal namespace, matching this core's lack of
// hierarchical scoping.
func (k *Kernel) LoadDesign(design *rtl.RtlDesign) error {
	*k = *New()
	for _, m := range design.Modules {
		if err := k.loadModule(m); err != nil {
			return errors.Wrapf(err, "loading module %s", m.Name)
		}
	}
	return nil
}

func (k *Kernel) loadModule(m *rtl.RtlModule) error {
	for _, n := range m.Nets {
		if _, ok := k.widths[n.Name]; !ok {
			k.widths[n.Name] = n.Width
			k.signals[n.Name] = value.New(n.Width, value.LX)
			k.order = append(k.order, n.Name)
		}
	}

	for _, ca := range m.ContinuousAssigns {
		ca := ca
		proc := &procEntry{region: RegionActive}
		proc.fn = func(k *Kernel) {
			v := k.evalExpr(ca.RHS)
			k.driveSignal(ca.LHSName, v, false)
		}
		k.processes = append(k.processes, proc)
		for _, ref := range exprRefs(ca.RHS) {
			k.levelWatchers[ref] = append(k.levelWatchers[ref], proc)
		}
		k.schedule(proc, 0)
	}

	for _, p := range m.Processes {
		p := p
		proc := &procEntry{region: RegionActive}
		if p.FirstStmt != -1 {
			entry := p.FirstStmt
			proc.fn = func(k *Kernel) {
				k.execStmt(Thread{Cur: entry, Proc: p, Entry: entry})
			}
		} else {
			proc.fn = func(k *Kernel) {
				for _, a := range p.Assigns {
					v := k.evalExpr(a.RHS)
					k.driveSignal(a.LHSName, v, a.NonBlocking)
				}
			}
		}
		k.processes = append(k.processes, proc)
		if p.Kind == rtl.ProcAlways {
			for _, s := range p.Sensitivity {
				switch s.Edge {
				case rtl.SensPosedge:
					k.posedgeWatchers[s.Name] = append(k.posedgeWatchers[s.Name], proc)
				case rtl.SensNegedge:
					k.negedgeWatchers[s.Name] = append(k.negedgeWatchers[s.Name], proc)
				default:
					k.levelWatchers[s.Name] = append(k.levelWatchers[s.Name], proc)
				}
			}
		}
		k.schedule(proc, 0)
	}

	for _, g := range m.Gates {
		g := g
		proc := &procEntry{region: RegionActive}
		proc.fn = func(k *Kernel) {
			k.driveSignal(g.Out, evalGate(g, k), false)
		}
		k.processes = append(k.processes, proc)
		for _, in := range g.Inputs {
			k.levelWatchers[in] = append(k.levelWatchers[in], proc)
		}
		k.schedule(proc, 0)
	}

	return nil
}

// schedule inserts proc at (cur_time+delay, cur_delta if delay==0 else 0,
// proc.region).
func (k *Kernel) schedule(proc *procEntry, delay int64) {
	delta := 0
	if delay == 0 {
		delta = k.curDelta
	}
	k.seq++
	heap.Push(&k.pq, event{time: k.curTime + delay, delta: delta, region: proc.region, seq: k.seq, proc: proc})
}

// scheduleNBA appends a one-shot write closure to the FIFO drained once
// all Active-region events at the current time have run.
func (k *Kernel) scheduleNBA(fn ProcFunc) {
	k.nbaQueue = append(k.nbaQueue, fn)
}

// Run drains the event queue until it is empty or $finish fires. max_time
// == 0 means run unbounded; otherwise no event with time > max_time is
// processed (spec.md §5).
func (k *Kernel) Run(maxTime int64) {
	for len(k.pq) > 0 && !k.stopRequested {
		if maxTime != 0 && k.pq[0].time > maxTime {
			break
		}
		k.curTime = k.pq[0].time
		k.curDelta = 0
		k.emitVCDSnapshot()
		k.runActiveRegion()
		k.runNBARegion()
		k.emitVCDSnapshot()
	}
}

func (k *Kernel) runActiveRegion() {
	for len(k.pq) > 0 && k.pq[0].time == k.curTime && !k.stopRequested {
		ev := heap.Pop(&k.pq).(event)
		k.curDelta = ev.delta
		ev.proc.fn(k)
	}
}

func (k *Kernel) runNBARegion() {
	pending := k.nbaQueue
	k.nbaQueue = nil
	for _, fn := range pending {
		if k.stopRequested {
			return
		}
		fn(k)
	}
}

func (k *Kernel) emitVCDSnapshot() {
	if k.Tracer == nil {
		return
	}
	k.Tracer.DumpTime(k.curTime)
	for _, name := range k.order {
		k.Tracer.DumpValue(name, k.signals[name])
	}
}

// driveSignal implements spec.md §4.5's drive_signal: NBA writes are
// deferred to a one-shot closure; non-NBA writes take effect synchronously
// through writeSignal.
func (k *Kernel) driveSignal(name string, v value.Value, nba bool) {
	if nba {
		k.scheduleNBA(func(k *Kernel) { k.writeSignal(name, v) })
		return
	}
	k.writeSignal(name, v)
}

func (k *Kernel) writeSignal(name string, v value.Value) {
	old, had := k.signals[name]
	if had && value.Equal(old, v) {
		return // glitch suppression: unchanged writes never fire watchers
	}
	k.signals[name] = v
	if _, ok := k.widths[name]; !ok {
		k.widths[name] = v.Width()
		k.order = append(k.order, name)
	}

	var oldBit0 value.Logic4 = value.LX
	if had {
		oldBit0 = old.Get(0)
	}
	newBit0 := v.Get(0)
	posedge := oldBit0 == value.L0 && newBit0 == value.L1
	negedge := oldBit0 == value.L1 && newBit0 == value.L0

	for _, p := range k.levelWatchers[name] {
		k.schedule(p, 0)
	}
	if posedge {
		for _, p := range k.posedgeWatchers[name] {
			k.schedule(p, 0)
		}
	}
	if negedge {
		for _, p := range k.negedgeWatchers[name] {
			k.schedule(p, 0)
		}
	}
}

func evalGate(g rtl.Gate, k *Kernel) value.Value {
	if len(g.Inputs) == 0 {
		return value.New(1, value.LX)
	}
	acc := k.GetSignal(g.Inputs[0])
	switch g.Kind {
	case rtl.GateBuf:
		return acc
	case rtl.GateNot:
		return combinePerBit(acc, acc, func(a, _ value.Logic4) value.Logic4 { return value.Not(a) })
	}
	for _, in := range g.Inputs[1:] {
		v := k.GetSignal(in)
		switch g.Kind {
		case rtl.GateAnd, rtl.GateNand:
			acc = combinePerBit(acc, v, value.And)
		case rtl.GateOr, rtl.GateNor:
			acc = combinePerBit(acc, v, value.Or)
		case rtl.GateXor, rtl.GateXnor:
			acc = combinePerBit(acc, v, value.Xor)
		}
	}
	switch g.Kind {
	case rtl.GateNand, rtl.GateNor, rtl.GateXnor:
		return combinePerBit(acc, acc, func(a, _ value.Logic4) value.Logic4 { return value.Not(a) })
	default:
		return acc
	}
}

func combinePerBit(a, b value.Value, op func(a, b value.Logic4) value.Logic4) value.Value {
	if a.Width() == 0 && b.Width() == 0 {
		// spec.md §4.5: a binary op over two width-0 operands yields a
		// width-1 X result, not a width-0 one.
		return value.New(1, value.LX)
	}
	w := a.Width()
	if b.Width() > w {
		w = b.Width()
	}
	ae := a.Resize(w, value.LX)
	be := b.Resize(w, value.LX)
	out := value.New(w, value.LX)
	for i := 0; i < w; i++ {
		out.Set(i, op(ae.Get(i), be.Get(i)))
	}
	return out
}

// exprRefs collects the distinct identifier names read by e, used to
// register continuous-assign level watchers.
func exprRefs(e *rtl.RtlExpr) []string {
	if e == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	var walk func(*rtl.RtlExpr)
	walk = func(n *rtl.RtlExpr) {
		if n == nil {
			return
		}
		switch n.Kind {
		case rtl.ExprRef:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case rtl.ExprUnary:
			walk(n.Operand)
		case rtl.ExprBinary:
			walk(n.LHS)
			walk(n.RHS)
		}
	}
	walk(e)
	return out
}
