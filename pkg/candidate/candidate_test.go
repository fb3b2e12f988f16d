package candidate

import (
	"testing"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/netlist"
)

func TestNewRoundBased(t *testing.T) {
	nl := netlist.New("top")
	gs := newGates(t, nl, "a", "b", "c")

	c, err := NewRoundBased(nl, gs)
	if err != nil {
		t.Fatalf("NewRoundBased: %v", err)
	}
	if !c.IsRoundBased() {
		t.Error("IsRoundBased should be true")
	}
	if c.Size() != 3 {
		t.Errorf("Size = %d, want 3", c.Size())
	}
	if !c.InputReg().Equal(NewGateSet(gs...)) {
		t.Error("InputReg should equal the construction set")
	}
	if !c.InputReg().Equal(c.OutputReg()) {
		t.Error("round-based candidate: InputReg should equal OutputReg")
	}
	got, err := c.Netlist()
	if err != nil || got != nl {
		t.Errorf("Netlist() = %v, %v", got, err)
	}
}

func TestNewRoundBasedEmpty(t *testing.T) {
	nl := netlist.New("top")
	if _, err := NewRoundBased(nl, nil); !errors.Is(err, errors.ErrCodeEmptyRegister) {
		t.Errorf("err = %v, want EMPTY_REGISTER", err)
	}
	if _, err := NewRoundBasedFromSet(nl, GateSet{}); !errors.Is(err, errors.ErrCodeEmptyRegister) {
		t.Errorf("err = %v, want EMPTY_REGISTER", err)
	}
}

func TestNewRoundBasedNilNetlist(t *testing.T) {
	nl := netlist.New("top")
	gs := newGates(t, nl, "a")
	if _, err := NewRoundBased(nil, gs); !errors.Is(err, errors.ErrCodeNilNetlist) {
		t.Errorf("err = %v, want NIL_NETLIST", err)
	}
}

func TestNewPipelined(t *testing.T) {
	nl := netlist.New("top")
	gs := newGates(t, nl, "a", "b", "c", "d")

	c, err := NewPipelined(nl, gs[:2], gs[2:])
	if err != nil {
		t.Fatalf("NewPipelined: %v", err)
	}
	if c.IsRoundBased() {
		t.Error("distinct registers should not be round-based")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
	if !c.InputReg().Equal(NewGateSet(gs[0], gs[1])) {
		t.Error("InputReg mismatch")
	}
	if !c.OutputReg().Equal(NewGateSet(gs[2], gs[3])) {
		t.Error("OutputReg mismatch")
	}
}

func TestNewPipelinedEqualSetsDegradesToRoundBased(t *testing.T) {
	nl := netlist.New("top")
	gs := newGates(t, nl, "a", "b")

	c, err := NewPipelined(nl, gs, []*netlist.Gate{gs[1], gs[0]})
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsRoundBased() {
		t.Error("equal in/out sets should yield a round-based candidate")
	}
}

func TestNewPipelinedPreconditions(t *testing.T) {
	nl := netlist.New("top")
	gs := newGates(t, nl, "a", "b", "c")

	if _, err := NewPipelined(nl, nil, gs); !errors.Is(err, errors.ErrCodeEmptyRegister) {
		t.Errorf("empty input: err = %v, want EMPTY_REGISTER", err)
	}
	if _, err := NewPipelined(nl, gs[:1], gs[1:]); !errors.Is(err, errors.ErrCodeSizeMismatch) {
		t.Errorf("1 vs 2 gates: err = %v, want SIZE_MISMATCH", err)
	}
}

func TestForeignGateRejected(t *testing.T) {
	nl := netlist.New("top")
	other := netlist.New("other")
	foreign := newGates(t, other, "x")

	if _, err := NewRoundBased(nl, foreign); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestZeroValueIsPlaceholder(t *testing.T) {
	var c RegisterCandidate
	if _, err := c.Netlist(); err != ErrNoNetlist {
		t.Errorf("Netlist() err = %v, want ErrNoNetlist", err)
	}
	if c.Size() != 0 || !c.InputReg().Empty() {
		t.Error("zero value should be empty")
	}
}

// buildCandidates constructs a mixed population for comparison-law tests.
func buildCandidates(t *testing.T) []*RegisterCandidate {
	t.Helper()
	nl := netlist.New("top")
	gs := newGates(t, nl, "a", "b", "c", "d", "e", "f")

	mk := func(c *RegisterCandidate, err error) *RegisterCandidate {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	return []*RegisterCandidate{
		mk(NewRoundBased(nl, gs[:1])),
		mk(NewRoundBased(nl, gs[:2])),
		mk(NewRoundBased(nl, gs[1:3])),
		mk(NewPipelined(nl, gs[:2], gs[2:4])),
		mk(NewPipelined(nl, gs[:2], gs[4:6])),
		mk(NewPipelined(nl, gs[2:4], gs[:2])),
		mk(NewRoundBased(nl, gs[:2])), // duplicate of index 1
	}
}

func TestEqualIsAnEquivalence(t *testing.T) {
	cs := buildCandidates(t)

	for _, a := range cs {
		if !a.Equal(a) {
			t.Error("Equal should be reflexive")
		}
	}
	for _, a := range cs {
		for _, b := range cs {
			if a.Equal(b) != b.Equal(a) {
				t.Error("Equal should be symmetric")
			}
		}
	}
	for _, a := range cs {
		for _, b := range cs {
			for _, c := range cs {
				if a.Equal(b) && b.Equal(c) && !a.Equal(c) {
					t.Error("Equal should be transitive")
				}
			}
		}
	}

	if !cs[1].Equal(cs[6]) {
		t.Error("structurally equal candidates should compare equal")
	}
	if cs[3].Equal(cs[4]) {
		t.Error("same input register, different output register: not equal")
	}
}

func TestCompareIsAStrictTotalOrder(t *testing.T) {
	cs := buildCandidates(t)

	for _, a := range cs {
		for _, b := range cs {
			ab, ba := a.Compare(b), b.Compare(a)
			if ab != -ba {
				t.Fatalf("Compare not antisymmetric: %d vs %d", ab, ba)
			}
			if (ab == 0) != a.Equal(b) {
				t.Fatal("Compare == 0 must coincide with Equal")
			}
			if !a.Equal(b) && !a.Less(b) && !b.Less(a) {
				t.Fatal("unequal candidates must be ordered")
			}
		}
	}
	for _, a := range cs {
		for _, b := range cs {
			for _, c := range cs {
				if a.Less(b) && b.Less(c) && !a.Less(c) {
					t.Fatal("Less should be transitive")
				}
			}
		}
	}
}

func TestCompareOrdersBySizeFirst(t *testing.T) {
	cs := buildCandidates(t)
	if !cs[0].Less(cs[1]) {
		t.Error("size-1 candidate should order before size-2")
	}
}
