// Package vcd writes Value Change Dump traces of a running simulation.
// A Writer satisfies kernel.Tracer structurally (DumpTime/DumpValue) so
// the kernel package never imports vcd.
package vcd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/value"
)

type signalInfo struct {
	name  string
	id    string
	width int
}

// Writer emits a VCD trace to an underlying file. A Writer with an empty
// path is a no-op sink: AddSignal/DumpHeader/DumpTime/DumpValue all do
// nothing, which lets callers unconditionally wire a Writer into the
// kernel even when --vcd was not requested.
type Writer struct {
	path string
	f    *os.File
	w    *bufio.Writer

	headerWritten bool
	nameToID      map[string]string
	signals       []signalInfo
	idCounter     int
}

// New opens path for writing. An empty path yields a no-op Writer.
func New(path string) (*Writer, error) {
	w := &Writer{path: path, nameToID: make(map[string]string)}
	if path == "" {
		return w, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening vcd output %s", path)
	}
	w.f = f
	w.w = bufio.NewWriter(f)
	return w, nil
}

func (w *Writer) good() bool {
	return w.w != nil
}

// AddSignal registers a signal to be traced, assigning it a fresh VCD
// identifier. Re-registering the same name is a no-op.
func (w *Writer) AddSignal(name string, width int) {
	if !w.good() {
		return
	}
	if _, ok := w.nameToID[name]; ok {
		return
	}
	id := makeID(w.idCounter)
	w.idCounter++
	w.nameToID[name] = id
	w.signals = append(w.signals, signalInfo{name: name, id: id, width: width})
}

// DumpHeader writes the VCD preamble (date/version/timescale/scope/var
// declarations). Must be called once, after every signal has been
// registered via AddSignal and before the first DumpTime/DumpValue.
func (w *Writer) DumpHeader() error {
	if !w.good() || w.headerWritten {
		return nil
	}
	bw := w.w
	fmt.Fprintln(bw, "$date")
	fmt.Fprintln(bw, "    today")
	fmt.Fprintln(bw, "$end")
	fmt.Fprintln(bw, "$version")
	fmt.Fprintln(bw, "    svtool")
	fmt.Fprintln(bw, "$end")
	fmt.Fprintln(bw, "$timescale 1ns $end")
	fmt.Fprintln(bw, "$scope module top $end")
	for _, s := range w.signals {
		fmt.Fprintf(bw, "$var wire %d %s %s $end\n", s.width, s.id, s.name)
	}
	fmt.Fprintln(bw, "$upscope $end")
	fmt.Fprintln(bw, "$enddefinitions $end")
	w.headerWritten = true
	return w.w.Flush()
}

// DumpTime emits a `#<time>` timestamp marker. Part of kernel.Tracer.
func (w *Writer) DumpTime(t int64) {
	if !w.good() || !w.headerWritten {
		return
	}
	fmt.Fprintf(w.w, "#%d\n", t)
	w.w.Flush()
}

// DumpValue emits a value-change record for a registered signal. Part of
// kernel.Tracer. Unknown signal names are silently ignored, matching the
// reference writer's tolerant behavior.
func (w *Writer) DumpValue(name string, v value.Value) {
	if !w.good() || !w.headerWritten {
		return
	}
	id, ok := w.nameToID[name]
	if !ok {
		return
	}
	width := v.Width()
	var bits string
	if width == 0 {
		bits = "x"
	} else {
		buf := make([]byte, width)
		for i := 0; i < width; i++ {
			buf[i] = logicChar(v.Get(width - 1 - i))
		}
		bits = string(buf)
	}
	fmt.Fprintf(w.w, "b%s %s\n", bits, id)
	w.w.Flush()
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return errors.Wrap(err, "flushing vcd output")
	}
	return w.f.Close()
}

func logicChar(b value.Logic4) byte {
	switch b {
	case value.L0:
		return '0'
	case value.L1:
		return '1'
	case value.LZ:
		return 'z'
	default:
		return 'x'
	}
}

// makeID produces a printable base-94 identifier ('!'..'~'), matching the
// reference writer's compact per-signal id scheme.
func makeID(n int) string {
	const first, count = '!', 94
	var buf []byte
	for {
		buf = append(buf, byte(first+n%count))
		n /= count
		if n == 0 {
			break
		}
	}
	return string(buf)
}
