package bench

import (
	"strings"
	"testing"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
)

const counter = `
# 2-bit counter
INPUT(en)
OUTPUT(q1)

n0 = XOR(q0, en)
q0 = DFF(n0)
n1 = XOR(q1, q0)
q1 = DFF(n1)
`

func TestParse(t *testing.T) {
	nl, err := Parse(strings.NewReader(counter), "counter", gatelib.Default())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if nl.Name() != "counter" {
		t.Errorf("Name = %q", nl.Name())
	}

	// 2 ports + 2 XOR + 2 DFF
	if nl.GateCount() != 6 {
		t.Errorf("GateCount = %d, want 6", nl.GateCount())
	}
	if len(nl.FlipFlops()) != 2 {
		t.Errorf("flip-flops = %d, want 2", len(nl.FlipFlops()))
	}

	ff, ok := nl.GateByName("q0")
	if !ok {
		t.Fatal("gate q0 not found")
	}
	d, ok := ff.InputNet("D")
	if !ok || d.Name() != "n0" {
		t.Errorf("q0 D net = %v", d)
	}
	q, ok := ff.OutputNet("Q")
	if !ok || q.Name() != "q0" {
		t.Errorf("q0 Q net = %v", q)
	}
}

func TestImplicitClock(t *testing.T) {
	nl, err := Parse(strings.NewReader(counter), "counter", gatelib.Default())
	if err != nil {
		t.Fatal(err)
	}

	clk, ok := nl.NetByName(ClockNet)
	if !ok {
		t.Fatal("implicit clock net missing")
	}
	if len(clk.Destinations()) != 2 {
		t.Errorf("clock fans out to %d pins, want 2", len(clk.Destinations()))
	}
	for _, ff := range nl.FlipFlops() {
		if net, ok := ff.InputNet("CK"); !ok || net != clk {
			t.Errorf("flip-flop %s not on the implicit clock", ff.Name())
		}
	}
}

func TestCombinationalPins(t *testing.T) {
	src := "g = AND(a, b, c)\n"
	nl, err := Parse(strings.NewReader(src), "t", gatelib.Default())
	if err != nil {
		t.Fatal(err)
	}
	g, _ := nl.GateByName("g")
	for _, pin := range []string{"IN1", "IN2", "IN3"} {
		if _, ok := g.InputNet(pin); !ok {
			t.Errorf("pin %s unconnected", pin)
		}
	}
	if out, ok := g.OutputNet("OUT"); !ok || out.Name() != "g" {
		t.Error("OUT should drive net g")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"syntax", "this is not a statement\n"},
		{"unknown type", "g = FROB(a)\n"},
		{"duplicate gate", "g = NOT(a)\ng = NOT(b)\n"},
		{"dff arity", "g = DFF(a, b)\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src), "t", gatelib.Default())
			if !errors.Is(err, errors.ErrCodeInvalidNetlist) {
				t.Errorf("err = %v, want INVALID_NETLIST", err)
			}
		})
	}
}

func TestParseFileNotFound(t *testing.T) {
	_, err := ParseFile("no/such/file.bench", gatelib.Default())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	src := "# header\n\n   \ng = NOT(a)\n"
	nl, err := Parse(strings.NewReader(src), "t", gatelib.Default())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, ok := nl.GateByName("g"); !ok {
		t.Error("gate g not created")
	}
}
