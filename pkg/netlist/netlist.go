// Package netlist models a gate-level hardware design as a connectivity
// graph of gates and nets.
//
// A [Netlist] owns its [Gate] and [Net] objects. Gates carry a
// [gatelib.Type] that classifies them (flip-flop, combinational, port) and
// names their pins; nets record which gate pins drive them (sources) and
// which gate pins they feed (destinations). Gate and net identifiers are
// stable for the lifetime of the netlist and give analyses a deterministic
// ordering over gates.
//
// The builder methods (AddGate, AddNet, ConnectInput, ConnectOutput) are
// meant for netlist readers such as [github.com/hwseclab/regscan/pkg/netlist/bench];
// once built, a netlist is treated as an immutable snapshot by the analyses
// that consume it.
package netlist

import (
	"errors"
	"maps"
	"slices"

	"github.com/hwseclab/regscan/pkg/gatelib"
)

var (
	// ErrInvalidName is returned by [Netlist.AddGate] and [Netlist.AddNet]
	// when the name is empty. All gates and nets must have non-empty names.
	ErrInvalidName = errors.New("name must not be empty")

	// ErrDuplicateName is returned by [Netlist.AddGate] and [Netlist.AddNet]
	// when an element with the same name already exists.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNilElement is returned by the Connect methods when the gate or net
	// argument is nil.
	ErrNilElement = errors.New("gate and net must not be nil")

	// ErrForeignElement is returned by the Connect methods when the gate or
	// net belongs to a different netlist.
	ErrForeignElement = errors.New("element belongs to a different netlist")

	// ErrInvalidPin is returned by the Connect methods when the pin name
	// is empty.
	ErrInvalidPin = errors.New("pin name must not be empty")

	// ErrPinConnected is returned by the Connect methods when the pin is
	// already attached to a net. A pin attaches to exactly one net.
	ErrPinConnected = errors.New("pin is already connected")
)

// Endpoint identifies one gate pin attached to a net.
type Endpoint struct {
	Gate *Gate
	Pin  string
}

// Gate is a single logic or storage primitive in the netlist.
// Gates are created through [Netlist.AddGate]; the zero value is not usable.
type Gate struct {
	id      uint32
	name    string
	typ     gatelib.Type
	owner   *Netlist
	inputs  map[string]*Net // pin -> net feeding the pin
	outputs map[string]*Net // pin -> net driven by the pin
}

// ID returns the gate's netlist-unique identifier. IDs are assigned in
// creation order starting at 1 and never reused.
func (g *Gate) ID() uint32 { return g.id }

// Name returns the gate's name as it appeared in the netlist source.
func (g *Gate) Name() string { return g.name }

// Type returns the gate's type classification.
func (g *Gate) Type() gatelib.Type { return g.typ }

// Netlist returns the netlist owning this gate.
func (g *Gate) Netlist() *Netlist { return g.owner }

// InputNet returns the net attached to the named input pin.
// The second return value is false when the pin is unconnected.
func (g *Gate) InputNet(pin string) (*Net, bool) {
	n, ok := g.inputs[pin]
	return n, ok
}

// OutputNet returns the net driven by the named output pin.
// The second return value is false when the pin is unconnected.
func (g *Gate) OutputNet(pin string) (*Net, bool) {
	n, ok := g.outputs[pin]
	return n, ok
}

// FaninNets returns the nets feeding the gate's input pins, ordered by
// pin name for determinism.
func (g *Gate) FaninNets() []*Net {
	nets := make([]*Net, 0, len(g.inputs))
	for _, pin := range slices.Sorted(maps.Keys(g.inputs)) {
		nets = append(nets, g.inputs[pin])
	}
	return nets
}

// FanoutNets returns the nets driven by the gate's output pins, ordered by
// pin name for determinism.
func (g *Gate) FanoutNets() []*Net {
	nets := make([]*Net, 0, len(g.outputs))
	for _, pin := range slices.Sorted(maps.Keys(g.outputs)) {
		nets = append(nets, g.outputs[pin])
	}
	return nets
}

// Net is a wire connecting gate pins. A net has zero or more sources
// (output pins driving it) and zero or more destinations (input pins it
// feeds). Nets are created through [Netlist.AddNet].
type Net struct {
	id      uint32
	name    string
	owner   *Netlist
	sources []Endpoint
	dests   []Endpoint
}

// ID returns the net's netlist-unique identifier.
func (n *Net) ID() uint32 { return n.id }

// Name returns the net's name.
func (n *Net) Name() string { return n.name }

// Sources returns the gate pins driving this net.
// The returned slice must not be modified.
func (n *Net) Sources() []Endpoint { return n.sources }

// Destinations returns the gate pins fed by this net.
// The returned slice must not be modified.
func (n *Net) Destinations() []Endpoint { return n.dests }

// Netlist is the full connectivity graph of a design.
//
// The zero value is not usable - use [New]. A Netlist is not safe for
// concurrent mutation; analyses treat a fully built netlist as read-only
// and may then share it freely across goroutines.
type Netlist struct {
	name       string
	gates      map[uint32]*Gate
	gatesByKey map[string]*Gate
	nets       map[uint32]*Net
	netsByKey  map[string]*Net
	nextID     uint32
}

// New creates an empty netlist with the given design name.
func New(name string) *Netlist {
	return &Netlist{
		name:       name,
		gates:      make(map[uint32]*Gate),
		gatesByKey: make(map[string]*Gate),
		nets:       make(map[uint32]*Net),
		netsByKey:  make(map[string]*Net),
	}
}

// Name returns the design name.
func (nl *Netlist) Name() string { return nl.name }

// AddGate creates a gate with the given name and type.
// Returns ErrInvalidName for an empty name or ErrDuplicateName when a gate
// with the same name already exists.
func (nl *Netlist) AddGate(name string, typ gatelib.Type) (*Gate, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := nl.gatesByKey[name]; exists {
		return nil, ErrDuplicateName
	}
	nl.nextID++
	g := &Gate{
		id:      nl.nextID,
		name:    name,
		typ:     typ,
		owner:   nl,
		inputs:  make(map[string]*Net),
		outputs: make(map[string]*Net),
	}
	nl.gates[g.id] = g
	nl.gatesByKey[name] = g
	return g, nil
}

// AddNet creates a net with the given name.
// Returns ErrInvalidName for an empty name or ErrDuplicateName when a net
// with the same name already exists.
func (nl *Netlist) AddNet(name string) (*Net, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := nl.netsByKey[name]; exists {
		return nil, ErrDuplicateName
	}
	nl.nextID++
	n := &Net{id: nl.nextID, name: name, owner: nl}
	nl.nets[n.id] = n
	nl.netsByKey[name] = n
	return n, nil
}

// ConnectInput attaches a net to one of the gate's input pins, recording
// the pin as a destination of the net. Each pin attaches to exactly one
// net; connecting an already connected pin returns ErrPinConnected.
func (nl *Netlist) ConnectInput(g *Gate, pin string, n *Net) error {
	if err := nl.checkConnect(g, pin, n); err != nil {
		return err
	}
	if _, exists := g.inputs[pin]; exists {
		return ErrPinConnected
	}
	g.inputs[pin] = n
	n.dests = append(n.dests, Endpoint{Gate: g, Pin: pin})
	return nil
}

// ConnectOutput attaches a net to one of the gate's output pins, recording
// the pin as a source of the net.
func (nl *Netlist) ConnectOutput(g *Gate, pin string, n *Net) error {
	if err := nl.checkConnect(g, pin, n); err != nil {
		return err
	}
	if _, exists := g.outputs[pin]; exists {
		return ErrPinConnected
	}
	g.outputs[pin] = n
	n.sources = append(n.sources, Endpoint{Gate: g, Pin: pin})
	return nil
}

func (nl *Netlist) checkConnect(g *Gate, pin string, n *Net) error {
	if g == nil || n == nil {
		return ErrNilElement
	}
	if g.owner != nl || n.owner != nl {
		return ErrForeignElement
	}
	if pin == "" {
		return ErrInvalidPin
	}
	return nil
}

// Gate returns the gate with the given ID and true, or nil and false.
func (nl *Netlist) Gate(id uint32) (*Gate, bool) {
	g, ok := nl.gates[id]
	return g, ok
}

// GateByName returns the gate with the given name and true, or nil and false.
func (nl *Netlist) GateByName(name string) (*Gate, bool) {
	g, ok := nl.gatesByKey[name]
	return g, ok
}

// NetByName returns the net with the given name and true, or nil and false.
func (nl *Netlist) NetByName(name string) (*Net, bool) {
	n, ok := nl.netsByKey[name]
	return n, ok
}

// Gates returns all gates ordered by ascending ID.
func (nl *Netlist) Gates() []*Gate {
	gates := make([]*Gate, 0, len(nl.gates))
	for _, id := range slices.Sorted(maps.Keys(nl.gates)) {
		gates = append(gates, nl.gates[id])
	}
	return gates
}

// Nets returns all nets ordered by ascending ID.
func (nl *Netlist) Nets() []*Net {
	nets := make([]*Net, 0, len(nl.nets))
	for _, id := range slices.Sorted(maps.Keys(nl.nets)) {
		nets = append(nets, nl.nets[id])
	}
	return nets
}

// GateCount returns the number of gates in the netlist.
func (nl *Netlist) GateCount() int { return len(nl.gates) }

// NetCount returns the number of nets in the netlist.
func (nl *Netlist) NetCount() int { return len(nl.nets) }

// FlipFlops returns all storage gates ordered by ascending ID.
func (nl *Netlist) FlipFlops() []*Gate {
	var ffs []*Gate
	for _, g := range nl.Gates() {
		if g.typ.IsFlipFlop() {
			ffs = append(ffs, g)
		}
	}
	return ffs
}
