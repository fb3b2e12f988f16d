// Package report records candidate-search runs for later retrieval.
//
// A [Run] is the durable summary of one search: which netlist was
// scanned, with which policy, and which register candidates were found.
// Runs are identified by UUIDs and persisted through a [Store]; the
// in-memory store backs single-process usage and tests, the MongoDB store
// backs the HTTP service.
//
// Runs reference gates by name rather than by pointer, so a stored run
// remains meaningful after its netlist is gone.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/hwseclab/regscan/pkg/candidate"
	"github.com/hwseclab/regscan/pkg/netlist"
)

// CandidateRecord is the storable form of one register candidate.
type CandidateRecord struct {
	Size       int      `bson:"size" json:"size"`
	RoundBased bool     `bson:"round_based" json:"round_based"`
	InputReg   []string `bson:"input_reg" json:"input_reg"`
	OutputReg  []string `bson:"output_reg" json:"output_reg"`
}

// ConfigRecord is the storable form of the search policy.
type ConfigRecord struct {
	MaxLogicDepth  int      `bson:"max_logic_depth" json:"max_logic_depth"`
	SharedControls []string `bson:"shared_controls,omitempty" json:"shared_controls,omitempty"`
}

// Run is one completed candidate search.
type Run struct {
	ID          string            `bson:"_id" json:"id"`
	Netlist     string            `bson:"netlist" json:"netlist"`
	NetlistHash string            `bson:"netlist_hash,omitempty" json:"netlist_hash,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	Config      ConfigRecord      `bson:"config" json:"config"`
	Candidates  []CandidateRecord `bson:"candidates" json:"candidates"`
}

// NewRun builds a run record from search results, assigning a fresh UUID.
// The candidate order is preserved, so a stored run reproduces the
// finder's canonical ordering.
func NewRun(nl *netlist.Netlist, netlistHash string, cfg ConfigRecord, cands []*candidate.RegisterCandidate) *Run {
	records := make([]CandidateRecord, len(cands))
	for i, c := range cands {
		records[i] = NewCandidateRecord(c)
	}
	return &Run{
		ID:          uuid.NewString(),
		Netlist:     nl.Name(),
		NetlistHash: netlistHash,
		CreatedAt:   time.Now().UTC(),
		Config:      cfg,
		Candidates:  records,
	}
}

// NewCandidateRecord converts a candidate to its storable form.
func NewCandidateRecord(c *candidate.RegisterCandidate) CandidateRecord {
	return CandidateRecord{
		Size:       c.Size(),
		RoundBased: c.IsRoundBased(),
		InputReg:   gateNames(c.InputReg()),
		OutputReg:  gateNames(c.OutputReg()),
	}
}

func gateNames(s candidate.GateSet) []string {
	names := make([]string, 0, s.Size())
	for _, g := range s.Gates() {
		names = append(names, g.Name())
	}
	return names
}
