package candidate

import (
	"slices"

	"github.com/hwseclab/regscan/pkg/netlist"
)

// GateSet is an immutable set of gates ordered by ascending gate ID.
// The ordering gives register candidates a stable, comparable identity.
//
// The zero value is the empty set.
type GateSet struct {
	gates []*netlist.Gate // sorted by ID, no duplicates
}

// NewGateSet builds a set from the given gates, dropping duplicates and
// nil entries.
func NewGateSet(gates ...*netlist.Gate) GateSet {
	out := make([]*netlist.Gate, 0, len(gates))
	for _, g := range gates {
		if g != nil {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b *netlist.Gate) int {
		return int(a.ID()) - int(b.ID())
	})
	out = slices.CompactFunc(out, func(a, b *netlist.Gate) bool {
		return a.ID() == b.ID()
	})
	return GateSet{gates: out}
}

// Size returns the number of gates in the set.
func (s GateSet) Size() int { return len(s.gates) }

// Empty reports whether the set has no gates.
func (s GateSet) Empty() bool { return len(s.gates) == 0 }

// Gates returns the member gates in ascending ID order.
// The returned slice is a copy and may be modified freely.
func (s GateSet) Gates() []*netlist.Gate { return slices.Clone(s.gates) }

// IDs returns the member gate IDs in ascending order.
func (s GateSet) IDs() []uint32 {
	ids := make([]uint32, len(s.gates))
	for i, g := range s.gates {
		ids[i] = g.ID()
	}
	return ids
}

// Contains reports whether the set holds the given gate.
func (s GateSet) Contains(g *netlist.Gate) bool {
	if g == nil {
		return false
	}
	_, found := slices.BinarySearchFunc(s.gates, g.ID(), func(m *netlist.Gate, id uint32) int {
		return int(m.ID()) - int(id)
	})
	return found
}

// Equal reports whether both sets hold exactly the same gates.
func (s GateSet) Equal(o GateSet) bool { return s.Compare(o) == 0 }

// Compare orders sets lexicographically over their ascending gate-ID
// sequences: the set whose first differing ID is smaller is less; on a
// shared prefix the shorter set is less. Returns -1, 0, or +1.
func (s GateSet) Compare(o GateSet) int {
	n := min(len(s.gates), len(o.gates))
	for i := 0; i < n; i++ {
		a, b := s.gates[i].ID(), o.gates[i].ID()
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(s.gates) < len(o.gates):
		return -1
	case len(s.gates) > len(o.gates):
		return 1
	default:
		return 0
	}
}
