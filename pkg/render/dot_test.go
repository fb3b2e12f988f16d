package render

import (
	"strings"
	"testing"

	"github.com/hwseclab/regscan/pkg/candidate"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
)

func buildCandidates(t *testing.T) []*candidate.RegisterCandidate {
	t.Helper()
	nl := netlist.New("top")
	lib := gatelib.Default()
	dff, _ := lib.Lookup("DFF")

	var gs []*netlist.Gate
	for _, name := range []string{"a0", "a1", "b0", "b1", "r0", "r1"} {
		g, err := nl.AddGate(name, dff)
		if err != nil {
			t.Fatal(err)
		}
		gs = append(gs, g)
	}

	round, err := candidate.NewRoundBased(nl, gs[4:6])
	if err != nil {
		t.Fatal(err)
	}
	piped, err := candidate.NewPipelined(nl, gs[0:2], gs[2:4])
	if err != nil {
		t.Fatal(err)
	}
	return []*candidate.RegisterCandidate{round, piped}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(buildCandidates(t), Options{})

	if !strings.HasPrefix(dot, "digraph registers {") {
		t.Error("missing digraph header")
	}
	// Round-based candidate: a single self-looping node.
	if !strings.Contains(dot, `"reg0" -> "reg0";`) {
		t.Error("round-based candidate should self-loop")
	}
	// Pipelined candidate: input node feeding output node.
	if !strings.Contains(dot, `"reg1_in" -> "reg1_out";`) {
		t.Error("pipelined candidate should connect in to out")
	}
	if strings.Contains(dot, "r0") {
		t.Error("gate names should be omitted without Detailed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(buildCandidates(t), Options{Detailed: true})
	for _, name := range []string{"r0", "r1", "a0", "b1"} {
		if !strings.Contains(dot, name) {
			t.Errorf("detailed label should include gate %s", name)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if !strings.Contains(dot, "digraph registers") {
		t.Error("empty candidate list should still produce a valid graph")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	cands := buildCandidates(t)
	if ToDOT(cands, Options{Detailed: true}) != ToDOT(cands, Options{Detailed: true}) {
		t.Error("ToDOT should be deterministic")
	}
}
