// Package bench reads ISCAS-style .bench netlist files.
//
// The format is line-oriented:
//
//	# comment
//	INPUT(x)
//	OUTPUT(y)
//	g0 = AND(x, g1)
//	g1 = DFF(g0)
//
// Every assignment creates one gate named after its output signal; signal
// names double as net names. The format carries no explicit clock wiring,
// so all storage elements are attached to a single implicit clock net
// named CLK, matching the usual single-clock reading of the benchmarks.
package bench

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
)

// ClockNet is the name of the implicit clock net driving all storage
// elements read from a bench file.
const ClockNet = "CLK"

// Statements come in two shapes: port declarations `INPUT(x)` / `OUTPUT(y)`
// and gate assignments `g = TYPE(a, b, ...)`. The first capture is the
// port direction or the output signal, the second the gate type or port
// signal, the third the comma-separated input list.
var (
	portRE = regexp.MustCompile(`^(INPUT|OUTPUT)\s*\(\s*(\w+)\s*\)$`)
	gateRE = regexp.MustCompile(`^(\w+)\s*=\s*(\w+)\s*\(\s*([\w\s,]+)\s*\)$`)
)

// Parse reads a bench netlist from r. The design is given the provided
// name, and gate types are resolved against lib (use [gatelib.Default]
// for the standard vocabulary).
//
// Returns an INVALID_NETLIST error naming the offending line for syntax
// errors, unknown gate types, or duplicate definitions.
func Parse(r io.Reader, name string, lib *gatelib.Library) (*netlist.Netlist, error) {
	nl := netlist.New(name)
	b := &builder{nl: nl, lib: lib}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := b.statement(line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "read %s", name)
	}
	return nl, nil
}

// ParseFile reads a bench netlist from the file at path. The design name
// is the file's base name without the .bench extension.
func ParseFile(path string, lib *gatelib.Library) (*netlist.Netlist, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open netlist %s", path)
	}
	defer f.Close()

	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".bench")
	return Parse(f, base, lib)
}

type builder struct {
	nl  *netlist.Netlist
	lib *gatelib.Library
	clk *netlist.Net
}

func (b *builder) statement(line string, lineNo int) error {
	if m := portRE.FindStringSubmatch(line); m != nil {
		return b.port(m[1], m[2], lineNo)
	}
	if m := gateRE.FindStringSubmatch(line); m != nil {
		return b.gate(m[1], m[2], m[3], lineNo)
	}
	return errors.New(errors.ErrCodeInvalidNetlist, "line %d: cannot parse %q", lineNo, line)
}

func (b *builder) port(direction, signal string, lineNo int) error {
	typ, ok := b.lib.Lookup(direction)
	if !ok {
		return errors.New(errors.ErrCodeInvalidNetlist, "line %d: gate library defines no %s port type", lineNo, direction)
	}
	g, err := b.nl.AddGate(strings.ToLower(direction)+":"+signal, typ)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: port %s", lineNo, signal)
	}
	net, err := b.net(signal)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d", lineNo)
	}
	if direction == "INPUT" {
		err = b.nl.ConnectOutput(g, "O", net)
	} else {
		err = b.nl.ConnectInput(g, "I", net)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: port %s", lineNo, signal)
	}
	return nil
}

func (b *builder) gate(out, typeName, inputList string, lineNo int) error {
	typ, ok := b.lib.Lookup(typeName)
	if !ok {
		return errors.New(errors.ErrCodeInvalidNetlist, "line %d: unknown gate type %q", lineNo, typeName)
	}

	var inputs []string
	for _, s := range strings.Split(inputList, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New(errors.ErrCodeInvalidNetlist, "line %d: empty input in %q", lineNo, out)
		}
		inputs = append(inputs, s)
	}

	g, err := b.nl.AddGate(out, typ)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: gate %s", lineNo, out)
	}
	outNet, err := b.net(out)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d", lineNo)
	}

	if typ.IsFlipFlop() {
		return b.flipFlop(g, typ, outNet, inputs, lineNo)
	}

	// Combinational gates: synthetic pin names IN1..INn and OUT.
	if err := b.nl.ConnectOutput(g, "OUT", outNet); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: gate %s", lineNo, g.Name())
	}
	for i, in := range inputs {
		inNet, err := b.net(in)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d", lineNo)
		}
		pin := "IN" + strconv.Itoa(i+1)
		if err := b.nl.ConnectInput(g, pin, inNet); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: gate %s pin %s", lineNo, g.Name(), pin)
		}
	}
	return nil
}

func (b *builder) flipFlop(g *netlist.Gate, typ gatelib.Type, outNet *netlist.Net, inputs []string, lineNo int) error {
	if len(inputs) != 1 {
		return errors.New(errors.ErrCodeInvalidNetlist,
			"line %d: flip-flop %s takes one data input, got %d", lineNo, g.Name(), len(inputs))
	}

	dataOut, _ := typ.Pin(gatelib.PinDataOut)
	dataIn, _ := typ.Pin(gatelib.PinDataIn)
	clockPin, _ := typ.Pin(gatelib.PinClock)

	if err := b.nl.ConnectOutput(g, dataOut, outNet); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: flip-flop %s", lineNo, g.Name())
	}
	inNet, err := b.net(inputs[0])
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d", lineNo)
	}
	if err := b.nl.ConnectInput(g, dataIn, inNet); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: flip-flop %s", lineNo, g.Name())
	}

	clk, err := b.clock()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d", lineNo)
	}
	if err := b.nl.ConnectInput(g, clockPin, clk); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "line %d: flip-flop %s", lineNo, g.Name())
	}
	return nil
}

// net returns the net with the given signal name, creating it on first use.
func (b *builder) net(name string) (*netlist.Net, error) {
	if n, ok := b.nl.NetByName(name); ok {
		return n, nil
	}
	return b.nl.AddNet(name)
}

func (b *builder) clock() (*netlist.Net, error) {
	if b.clk != nil {
		return b.clk, nil
	}
	clk, err := b.net(ClockNet)
	if err != nil {
		return nil, err
	}
	b.clk = clk
	return clk, nil
}
