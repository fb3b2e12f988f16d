package report

import (
	"context"
	"testing"
	"time"

	"github.com/hwseclab/regscan/pkg/candidate"
	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
)

// buildNetlist returns a netlist with n flip-flops named ff0..ff(n-1).
func buildNetlist(t *testing.T, n int) (*netlist.Netlist, []*netlist.Gate) {
	t.Helper()
	nl := netlist.New("test")
	dff, ok := gatelib.Default().Lookup("DFF")
	if !ok {
		t.Fatal("default library has no DFF")
	}
	gates := make([]*netlist.Gate, n)
	for i := 0; i < n; i++ {
		g, err := nl.AddGate("ff"+string(rune('0'+i)), dff)
		if err != nil {
			t.Fatalf("AddGate: %v", err)
		}
		gates[i] = g
	}
	return nl, gates
}

func TestNewCandidateRecord(t *testing.T) {
	nl, gates := buildNetlist(t, 2)

	round, err := candidate.NewRoundBased(nl, gates)
	if err != nil {
		t.Fatalf("NewRoundBased: %v", err)
	}
	rec := NewCandidateRecord(round)
	if rec.Size != 2 || !rec.RoundBased {
		t.Errorf("got size=%d round=%v, want 2/true", rec.Size, rec.RoundBased)
	}
	if len(rec.InputReg) != 2 || rec.InputReg[0] != "ff0" || rec.InputReg[1] != "ff1" {
		t.Errorf("unexpected input reg names: %v", rec.InputReg)
	}

	piped, err := candidate.NewPipelined(nl, gates[:1], gates[1:])
	if err != nil {
		t.Fatalf("NewPipelined: %v", err)
	}
	rec = NewCandidateRecord(piped)
	if rec.RoundBased {
		t.Error("pipelined candidate recorded as round based")
	}
	if len(rec.InputReg) != 1 || len(rec.OutputReg) != 1 {
		t.Errorf("unexpected register sizes: in=%v out=%v", rec.InputReg, rec.OutputReg)
	}
	if rec.InputReg[0] != "ff0" || rec.OutputReg[0] != "ff1" {
		t.Errorf("unexpected register names: in=%v out=%v", rec.InputReg, rec.OutputReg)
	}
}

func TestNewRun(t *testing.T) {
	nl, gates := buildNetlist(t, 2)
	c, err := candidate.NewRoundBased(nl, gates)
	if err != nil {
		t.Fatalf("NewRoundBased: %v", err)
	}

	cfg := ConfigRecord{MaxLogicDepth: 3}
	run := NewRun(nl, "abc123", cfg, []*candidate.RegisterCandidate{c})

	if run.ID == "" {
		t.Error("run has no ID")
	}
	if run.Netlist != "test" {
		t.Errorf("netlist name = %q, want %q", run.Netlist, "test")
	}
	if run.NetlistHash != "abc123" {
		t.Errorf("netlist hash = %q", run.NetlistHash)
	}
	if run.CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt is not UTC")
	}
	if len(run.Candidates) != 1 || run.Candidates[0].Size != 2 {
		t.Errorf("unexpected candidates: %+v", run.Candidates)
	}
	if run.Config.MaxLogicDepth != 3 {
		t.Errorf("config not carried: %+v", run.Config)
	}

	// IDs must be unique across runs.
	run2 := NewRun(nl, "abc123", cfg, nil)
	if run2.ID == run.ID {
		t.Error("two runs share an ID")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close(ctx)

	nl, _ := buildNetlist(t, 1)
	run := NewRun(nl, "", ConfigRecord{}, nil)

	if err := store.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != run.ID || got.Netlist != run.Netlist {
		t.Errorf("got %+v, want %+v", got, run)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("got %v, want RUN_NOT_FOUND", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	nlA, _ := buildNetlist(t, 1)
	nlB := netlist.New("other")

	var last string
	for i := 0; i < 3; i++ {
		run := NewRun(nlA, "", ConfigRecord{}, nil)
		run.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := store.Save(ctx, run); err != nil {
			t.Fatalf("Save: %v", err)
		}
		last = run.ID
	}
	other := NewRun(nlB, "", ConfigRecord{}, nil)
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("got %d runs, want 4", len(runs))
	}

	runs, err = store.List(ctx, "test", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs for netlist filter, want 3", len(runs))
	}
	if runs[0].ID != last {
		t.Error("runs not sorted newest first")
	}

	runs, err = store.List(ctx, "test", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied, got %d runs", len(runs))
	}
}
