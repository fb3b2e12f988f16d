// Package gatelib describes gate types and pin classifications for netlist
// analysis.
//
// A [Library] maps gate-type names (as they appear in netlist sources) to
// [Type] descriptions: whether the type is a storage element, and which of
// its pins carry the clock, data, and control signals. The candidate search
// relies on this classification to decide which gates are flip-flops and
// which nets carry their clock and data.
//
// [Default] returns a built-in library covering the common ISCAS-style
// vocabulary (AND, OR, XOR, NOT, DFF, ...). Custom libraries for other cell
// vocabularies can be loaded from TOML files with [LoadFile].
package gatelib

import (
	"fmt"

	"github.com/hwseclab/regscan/pkg/errors"
)

// Kind classifies a gate type's role in the netlist.
type Kind int

const (
	// KindCombinational is stateless logic (AND, XOR, NOT, ...).
	KindCombinational Kind = iota
	// KindFlipFlop is a clocked single-bit storage element.
	KindFlipFlop
	// KindPort is an external input or output port of the design.
	KindPort
)

// String returns the TOML spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindCombinational:
		return "combinational"
	case KindFlipFlop:
		return "flip-flop"
	case KindPort:
		return "port"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PinClass classifies the signal carried by a pin.
type PinClass int

const (
	// PinNone marks a pin with no special classification.
	PinNone PinClass = iota
	// PinClock is a flip-flop's clock input.
	PinClock
	// PinDataIn is a data input.
	PinDataIn
	// PinDataOut is a data output.
	PinDataOut
	// PinEnable is a clock- or write-enable control input.
	PinEnable
	// PinReset is an asynchronous or synchronous reset input.
	PinReset
)

// String returns the TOML spelling of the pin class.
func (c PinClass) String() string {
	switch c {
	case PinNone:
		return "none"
	case PinClock:
		return "clock"
	case PinDataIn:
		return "data-in"
	case PinDataOut:
		return "data-out"
	case PinEnable:
		return "enable"
	case PinReset:
		return "reset"
	default:
		return fmt.Sprintf("PinClass(%d)", int(c))
	}
}

// ParsePinClass converts the TOML spelling of a pin class back to its value.
func ParsePinClass(s string) (PinClass, error) {
	switch s {
	case "none", "":
		return PinNone, nil
	case "clock":
		return PinClock, nil
	case "data-in":
		return PinDataIn, nil
	case "data-out":
		return PinDataOut, nil
	case "enable":
		return PinEnable, nil
	case "reset":
		return PinReset, nil
	default:
		return PinNone, errors.New(errors.ErrCodeInvalidLibrary, "unknown pin class %q", s)
	}
}

// ParseKind converts the TOML spelling of a kind back to its value.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "combinational", "":
		return KindCombinational, nil
	case "flip-flop":
		return KindFlipFlop, nil
	case "port":
		return KindPort, nil
	default:
		return KindCombinational, errors.New(errors.ErrCodeInvalidLibrary, "unknown gate kind %q", s)
	}
}

// PinDef describes one classified pin of a gate type.
type PinDef struct {
	Name  string
	Class PinClass
}

// Type describes a gate type: its name in netlist sources, its kind, and
// its classified pins. Combinational types usually declare no pins; their
// connectivity is taken from the netlist as-is.
type Type struct {
	Name string
	Kind Kind
	Pins []PinDef
}

// IsFlipFlop reports whether gates of this type are storage elements.
func (t Type) IsFlipFlop() bool { return t.Kind == KindFlipFlop }

// IsCombinational reports whether gates of this type are stateless logic.
func (t Type) IsCombinational() bool { return t.Kind == KindCombinational }

// Pin returns the name of the first pin with the given class.
// The second return value is false when the type declares no such pin.
func (t Type) Pin(class PinClass) (string, bool) {
	for _, p := range t.Pins {
		if p.Class == class {
			return p.Name, true
		}
	}
	return "", false
}

// ClassOf returns the class of the named pin, or PinNone if the pin is not
// declared by the type.
func (t Type) ClassOf(pin string) PinClass {
	for _, p := range t.Pins {
		if p.Name == pin {
			return p.Class
		}
	}
	return PinNone
}

// validate checks that the type is internally consistent. A flip-flop must
// declare a clock, a data input, and a data output so the candidate search
// can reason about it.
func (t Type) validate() error {
	if t.Name == "" {
		return errors.New(errors.ErrCodeInvalidLibrary, "gate type with empty name")
	}
	if t.Kind == KindFlipFlop {
		for _, class := range []PinClass{PinClock, PinDataIn, PinDataOut} {
			if _, ok := t.Pin(class); !ok {
				return errors.New(errors.ErrCodeInvalidLibrary,
					"flip-flop type %q declares no %s pin", t.Name, class)
			}
		}
	}
	seen := make(map[string]bool, len(t.Pins))
	for _, p := range t.Pins {
		if p.Name == "" {
			return errors.New(errors.ErrCodeInvalidLibrary, "type %q declares a pin with empty name", t.Name)
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidLibrary, "type %q declares pin %q twice", t.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Library is a collection of gate types indexed by name.
// A Library is immutable once built; concurrent lookups are safe.
type Library struct {
	types map[string]Type
}

// NewLibrary builds a library from the given types.
// Returns an INVALID_LIBRARY error for malformed or duplicate types.
func NewLibrary(types ...Type) (*Library, error) {
	lib := &Library{types: make(map[string]Type, len(types))}
	for _, t := range types {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, exists := lib.types[t.Name]; exists {
			return nil, errors.New(errors.ErrCodeInvalidLibrary, "duplicate gate type %q", t.Name)
		}
		lib.types[t.Name] = t
	}
	return lib, nil
}

// Lookup returns the type registered under the given name.
func (l *Library) Lookup(name string) (Type, bool) {
	t, ok := l.types[name]
	return t, ok
}

// Len returns the number of registered types.
func (l *Library) Len() int { return len(l.types) }

// Default returns the built-in library covering the ISCAS-style bench
// vocabulary. Flip-flops use pins D (data-in), CK (clock), and Q (data-out);
// the enable and reset variants add EN and RST.
func Default() *Library {
	comb := func(name string) Type {
		return Type{Name: name, Kind: KindCombinational}
	}
	dff := Type{Name: "DFF", Kind: KindFlipFlop, Pins: []PinDef{
		{Name: "D", Class: PinDataIn},
		{Name: "CK", Class: PinClock},
		{Name: "Q", Class: PinDataOut},
	}}
	dffe := Type{Name: "DFFE", Kind: KindFlipFlop, Pins: []PinDef{
		{Name: "D", Class: PinDataIn},
		{Name: "CK", Class: PinClock},
		{Name: "EN", Class: PinEnable},
		{Name: "Q", Class: PinDataOut},
	}}
	dffr := Type{Name: "DFFR", Kind: KindFlipFlop, Pins: []PinDef{
		{Name: "D", Class: PinDataIn},
		{Name: "CK", Class: PinClock},
		{Name: "RST", Class: PinReset},
		{Name: "Q", Class: PinDataOut},
	}}
	lib, err := NewLibrary(
		comb("AND"), comb("NAND"), comb("OR"), comb("NOR"),
		comb("XOR"), comb("XNOR"), comb("NOT"), comb("BUF"),
		dff, dffe, dffr,
		Type{Name: "INPUT", Kind: KindPort},
		Type{Name: "OUTPUT", Kind: KindPort},
	)
	if err != nil {
		// The built-in library is static; a failure here is a programming error.
		panic(err)
	}
	return lib
}
