// Package candidate implements the register-candidate data model and the
// candidate search over gate-level netlists.
//
// A register candidate is a set of flip-flop gates that plausibly form one
// hardware register: either a round-based register whose outputs feed back
// into its own inputs each clock cycle, or one pipeline stage where an
// input register drives a distinct output register through combinational
// logic. Candidates are discovered by a [Finder] and consumed by
// downstream structural analyses; they carry no claim of functional
// correctness.
//
// Candidates are immutable after construction and carry a total order
// ([RegisterCandidate.Compare]) so result sets can be deduplicated and
// reproduced byte-for-byte across runs.
package candidate

import (
	stderrors "errors"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/netlist"
)

// RegisterCandidate is one discovered register candidate: a group of
// flip-flops in a netlist together with the round-based/pipelined
// classification. All fields are read-only after construction.
//
// A candidate holds non-owning references into its netlist; the netlist
// must outlive every candidate derived from it.
//
// The zero value is a placeholder with no netlist and empty registers; it
// is never produced by a [Finder].
type RegisterCandidate struct {
	netlist    *netlist.Netlist
	size       int
	roundBased bool
	inReg      GateSet
	outReg     GateSet
}

// NewRoundBased constructs a candidate for a round-based register: the
// gate set is both input and output register.
//
// Returns an EMPTY_REGISTER error when reg is empty and a NIL_NETLIST
// error when nl is nil.
func NewRoundBased(nl *netlist.Netlist, reg []*netlist.Gate) (*RegisterCandidate, error) {
	return NewRoundBasedFromSet(nl, NewGateSet(reg...))
}

// NewRoundBasedFromSet is like [NewRoundBased] but adopts an already
// constructed set, avoiding a copy.
func NewRoundBasedFromSet(nl *netlist.Netlist, reg GateSet) (*RegisterCandidate, error) {
	if err := checkRegister(nl, reg); err != nil {
		return nil, err
	}
	return &RegisterCandidate{
		netlist:    nl,
		size:       reg.Size(),
		roundBased: true,
		inReg:      reg,
		outReg:     reg,
	}, nil
}

// NewPipelined constructs a candidate from the input and output registers
// of one pipeline round. When both sets are equal the candidate degrades
// to round-based.
//
// Returns an EMPTY_REGISTER error when in is empty, a SIZE_MISMATCH error
// when the two registers differ in width, and a NIL_NETLIST error when nl
// is nil.
func NewPipelined(nl *netlist.Netlist, in, out []*netlist.Gate) (*RegisterCandidate, error) {
	return NewPipelinedFromSets(nl, NewGateSet(in...), NewGateSet(out...))
}

// NewPipelinedFromSets is like [NewPipelined] but adopts already
// constructed sets, avoiding copies.
func NewPipelinedFromSets(nl *netlist.Netlist, in, out GateSet) (*RegisterCandidate, error) {
	if err := checkRegister(nl, in); err != nil {
		return nil, err
	}
	if in.Size() != out.Size() {
		return nil, errors.New(errors.ErrCodeSizeMismatch,
			"input register has %d gates, output register %d", in.Size(), out.Size())
	}
	if err := checkRegister(nl, out); err != nil {
		return nil, err
	}
	return &RegisterCandidate{
		netlist:    nl,
		size:       in.Size(),
		roundBased: in.Equal(out),
		inReg:      in,
		outReg:     out,
	}, nil
}

func checkRegister(nl *netlist.Netlist, reg GateSet) error {
	if nl == nil {
		return errors.New(errors.ErrCodeNilNetlist, "candidate requires a netlist")
	}
	if reg.Empty() {
		return errors.New(errors.ErrCodeEmptyRegister, "register must not be empty")
	}
	for _, g := range reg.Gates() {
		if g.Netlist() != nl {
			return errors.New(errors.ErrCodeInvalidInput,
				"gate %s belongs to a different netlist", g.Name())
		}
	}
	return nil
}

// ErrNoNetlist is returned by [RegisterCandidate.Netlist] for the zero
// value, which is a placeholder never emitted by a finder.
var ErrNoNetlist = stderrors.New("candidate has no netlist")

// Netlist returns the netlist all member gates belong to.
// Returns ErrNoNetlist only for the placeholder zero value.
func (c *RegisterCandidate) Netlist() (*netlist.Netlist, error) {
	if c.netlist == nil {
		return nil, ErrNoNetlist
	}
	return c.netlist, nil
}

// Size returns the candidate's bit-width, i.e. the number of gates in its
// input register.
func (c *RegisterCandidate) Size() int { return c.size }

// IsRoundBased reports whether input and output register are the same
// gate set.
func (c *RegisterCandidate) IsRoundBased() bool { return c.roundBased }

// InputReg returns the candidate's input register.
func (c *RegisterCandidate) InputReg() GateSet { return c.inReg }

// OutputReg returns the candidate's output register. Equals InputReg for
// round-based candidates.
func (c *RegisterCandidate) OutputReg() GateSet { return c.outReg }

// Equal reports whether both candidates have the same size, input
// register, and output register.
func (c *RegisterCandidate) Equal(o *RegisterCandidate) bool {
	return c.Compare(o) == 0
}

// Compare defines the canonical total order over candidates:
// ascending size, then lexicographic input-register gate IDs, then
// lexicographic output-register gate IDs. For round-based candidates the
// output register equals the input register, so the last key only
// separates pipelined candidates that share an input register.
// Returns -1, 0, or +1.
func (c *RegisterCandidate) Compare(o *RegisterCandidate) int {
	if c.size != o.size {
		if c.size < o.size {
			return -1
		}
		return 1
	}
	if cmp := c.inReg.Compare(o.inReg); cmp != 0 {
		return cmp
	}
	return c.outReg.Compare(o.outReg)
}

// Less reports whether c orders strictly before o under [RegisterCandidate.Compare].
func (c *RegisterCandidate) Less(o *RegisterCandidate) bool {
	return c.Compare(o) < 0
}
