package kernel

import (
	"testing"

	"github.com/Narrain/eda-tool/elaborate"
	"github.com/Narrain/eda-tool/internal/parser"
	"github.com/Narrain/eda-tool/irbuilder"
	"github.com/Narrain/eda-tool/rtl"
	"github.com/Narrain/eda-tool/value"
)

func compile(t *testing.T, src string) *rtl.RtlDesign {
	t.Helper()
	d, err := parser.Parse("t.v", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ed, err := elaborate.New().Elaborate(d)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	rd, err := irbuilder.New().Build(ed)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rd
}

// Scenario 1: combinational AND-OR mux.
func TestScenarioCombinationalMux(t *testing.T) {
	rd := compile(t, `
module m;
  wire a,b,sel,and_ab,or_ab,y;
  assign a=1'b0; assign b=1'b1; assign sel=1'b1;
  assign and_ab = a & b; assign or_ab = a | b;
  assign y = sel ? or_ab : and_ab;
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(10)
	y := k.GetSignal("y")
	if y.Width() != 1 || y.Get(0) != value.L1 {
		t.Fatalf("y = %s, want width-1 1", y.String())
	}
}

// Scenario 2: clock toggle with non-blocking flip.
func TestScenarioClockToggleNonBlockingFlip(t *testing.T) {
	rd := compile(t, `
module m;
  reg clk = 1'b0;
  reg q = 1'b0;
  always #5 clk = ~clk;
  always @(posedge clk) q <= ~q;
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(25)
	if got := k.GetSignal("q").Get(0); got != value.L1 {
		t.Errorf("q = %v, want 1 after two posedges (t=10, t=20)", got)
	}
}

// Scenario 3: generate-for unrolling with bit-select, through the full
// elaborate -> irbuilder -> kernel pipeline.
func TestScenarioGenerateForUnrollRunsCleanly(t *testing.T) {
	rd := compile(t, `
module m;
  reg [3:0] r;
  genvar i;
  generate
    for (i=0; i<4; i=i+1) begin: g
      wire w;
      assign w = r[i];
    end
  endgenerate
  initial begin r = 4'b1010; #1 $finish; end
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(10)
	if !k.StopRequested() {
		t.Error("expected $finish to have fired")
	}
}

// Scenario 4: delay continuation inside an initial.
func TestScenarioDelayContinuationInsideInitial(t *testing.T) {
	rd := compile(t, `
module m;
  reg r;
  initial begin r = 1'b0; #10 r = 1'b1; #10 $finish; end
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	// Run until the queue drains, then check the final value and the stop flag.
	k.Run(0)
	if !k.StopRequested() {
		t.Fatal("expected $finish to fire by the time the queue drains")
	}
	if got := k.GetSignal("r").Get(0); got != value.L1 {
		t.Errorf("final r = %v, want 1", got)
	}
}

// Scenario 5: idempotent deep copy — cloning a module and simulating the
// clone yields the same trace as simulating the original.
func TestScenarioIdempotentDeepCopy(t *testing.T) {
	rd := compile(t, `
module m;
  reg r;
  initial begin r = 1'b0; #10 r = 1'b1; $finish; end
endmodule
`)
	orig := rd.ModuleByName("m")
	clone := orig.Clone()

	k1 := New()
	if err := k1.LoadDesign(&rtl.RtlDesign{Modules: []*rtl.RtlModule{orig}}); err != nil {
		t.Fatalf("LoadDesign(orig): %v", err)
	}
	k1.Run(0)

	k2 := New()
	if err := k2.LoadDesign(&rtl.RtlDesign{Modules: []*rtl.RtlModule{clone}}); err != nil {
		t.Fatalf("LoadDesign(clone): %v", err)
	}
	k2.Run(0)

	if k1.GetSignal("r").String() != k2.GetSignal("r").String() {
		t.Errorf("original trace r=%s, clone trace r=%s", k1.GetSignal("r").String(), k2.GetSignal("r").String())
	}
	if k1.StopRequested() != k2.StopRequested() {
		t.Error("original and clone disagree on $finish")
	}
}

// Scenario 6: X-propagation in ternary.
func TestScenarioTernaryXPropagation(t *testing.T) {
	rd := compile(t, `
module m;
  wire sel, a, b, y;
  assign sel = 1'bx;
  assign a = 1'b1;
  assign b = 1'b0;
  assign y = sel ? a : b;
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(10)
	y := k.GetSignal("y")
	if y.Width() != 1 || y.Get(0) != value.LX {
		t.Fatalf("y = %s, want width-1 X", y.String())
	}
}

func TestContinuousAssignChainDrivesDownstreamNet(t *testing.T) {
	rd := compile(t, `
module m;
  wire a, y;
  assign a = 1'b1;
  assign y = a;
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(0)
	if got := k.GetSignal("y").Get(0); got != value.L1 {
		t.Fatalf("y = %v, want 1", got)
	}
}

func TestParseLiteralBasesAndUnsizedForms(t *testing.T) {
	cases := []struct {
		lit   string
		width int
		want  string
	}{
		{"4'b1010", 4, "1010"},
		{"8'd10", 8, "00001010"},
		{"8'hax", 8, "1010xxxx"},
		{"32", 32, "00000000000000000000000000100000"},
		{"x", 1, "x"},
		{"1010", 32, "00000000000000000000001111110010"},
	}
	for _, c := range cases {
		v := parseLiteral(c.lit)
		if v.Width() != c.width {
			t.Errorf("parseLiteral(%q).Width() = %d, want %d", c.lit, v.Width(), c.width)
		}
	}
}

func TestBinaryOpWidthZeroYieldsWidthOneX(t *testing.T) {
	zero := value.New(0, value.LX)
	out := evalBinary("&", zero, zero)
	if out.Width() != 1 || out.Get(0) != value.LX {
		t.Errorf("0-width binary op = %s (width %d), want width-1 X", out.String(), out.Width())
	}
}

func TestPosedgeFiresOnlyOnZeroToOneTransition(t *testing.T) {
	rd := compile(t, `
module m;
  reg clk = 1'b0;
  reg count = 1'b0;
  always @(posedge clk) count <= ~count;
  initial begin
    #1 clk = 1'b1;
    #1 clk = 1'b0;
    #1 clk = 1'b1;
  end
endmodule
`)
	k := New()
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	k.Run(5)
	// Every process is scheduled once at time 0 regardless of sensitivity
	// (spec.md line 149), so count flips once unconditionally at t=0, then
	// once per genuine posedge (t=1, t=3); the negedge at t=2 must not
	// cause an extra flip. Three flips total leaves count at 1.
	if got := k.GetSignal("count").Get(0); got != value.L1 {
		t.Errorf("count = %v, want 1 (three flips: t=0 unconditional + two posedges, negedge ignored)", got)
	}
}
