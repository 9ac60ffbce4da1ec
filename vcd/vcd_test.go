package vcd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Narrain/eda-tool/value"
)

func TestWriterEmitsHeaderAndValueChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.vcd")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.AddSignal("clk", 1)
	w.AddSignal("r", 4)
	if err := w.DumpHeader(); err != nil {
		t.Fatalf("DumpHeader: %v", err)
	}
	w.DumpTime(0)
	w.DumpValue("clk", value.FromUint(1, 0))
	w.DumpValue("r", value.FromBinaryString("10xz"))
	w.DumpTime(5)
	w.DumpValue("clk", value.FromUint(1, 1))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"$timescale 1ns $end",
		"$var wire 1 ! clk $end",
		"$var wire 4 \" r $end",
		"#0",
		"b0 !",
		"b10xz \"",
		"#5",
		"b1 !",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; full output:\n%s", want, out)
		}
	}
}

func TestNoOpWriterForEmptyPath(t *testing.T) {
	w, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.AddSignal("a", 1)
	if err := w.DumpHeader(); err != nil {
		t.Fatalf("DumpHeader: %v", err)
	}
	w.DumpTime(0)
	w.DumpValue("a", value.FromUint(1, 1))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMakeIDIsStableAndDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := makeID(i)
		if seen[id] {
			t.Fatalf("makeID(%d) collided with a previous id %q", i, id)
		}
		seen[id] = true
	}
}
