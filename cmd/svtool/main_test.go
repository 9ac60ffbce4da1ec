package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSrc(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunSimulateOnValidSourceSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := writeSrc(t, dir, "m.v", `
module m;
  wire a, b, y;
  assign a = 1'b1;
  assign b = 1'b0;
  assign y = a | b;
endmodule
`)
	var out, errBuf bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v (stderr: %s)", err, errBuf.String())
	}
	if !strings.Contains(out.String(), "simulation finished") {
		t.Errorf("stdout = %q, want a completion line", out.String())
	}
}

func TestRunSimulateOnBrokenSourceFailsWithExitCode1(t *testing.T) {
	dir := t.TempDir()
	path := writeSrc(t, dir, "bad.v", `module m; this is not valid verilog;;; endmodule`)
	var out, errBuf bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{path})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected Execute to return an error for invalid source")
	}
	if exitCodeFor(err) != 1 {
		t.Errorf("exitCodeFor(%v) = %d, want 1", err, exitCodeFor(err))
	}
}

func TestRunSimulateWritesVCDWhenRequested(t *testing.T) {
	dir := t.TempDir()
	path := writeSrc(t, dir, "m.v", `
module m;
  reg r;
  initial begin r = 1'b0; #1 r = 1'b1; $finish; end
endmodule
`)
	vcdPath := filepath.Join(dir, "out.vcd")
	var out, errBuf bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"--vcd", vcdPath, path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v (stderr: %s)", err, errBuf.String())
	}
	data, err := os.ReadFile(vcdPath)
	if err != nil {
		t.Fatalf("ReadFile(vcd): %v", err)
	}
	if !strings.Contains(string(data), "$enddefinitions") {
		t.Errorf("vcd output missing header: %q", string(data))
	}
}

func TestBatchSimulatesEveryFileInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSrc(t, dir, "a.v", `
module m;
  wire a, y;
  assign a = 1'b1;
  assign y = a;
endmodule
`)
	writeSrc(t, dir, "b.v", `
module m;
  reg r;
  initial begin r = 1'b0; $finish; end
endmodule
`)
	var out, errBuf bytes.Buffer
	batchCmd.SetOut(&out)
	batchCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"batch", dir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v (stderr: %s)", err, errBuf.String())
	}
	if strings.Count(out.String(), "finished at time") != 2 {
		t.Errorf("stdout = %q, want two completion lines", out.String())
	}
}
