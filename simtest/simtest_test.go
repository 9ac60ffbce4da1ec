package simtest

import (
	"testing"

	"github.com/Narrain/eda-tool/value"
)

func TestRunBuildsElaboratesAndSimulates(t *testing.T) {
	k := Run(t, `
module m;
  wire a, b, y;
  assign a = 1'b1;
  assign b = 1'b0;
  assign y = a | b;
endmodule
`, 10)
	if got := k.GetSignal("y").Get(0); got != value.L1 {
		t.Fatalf("y = %v, want 1", got)
	}
}
