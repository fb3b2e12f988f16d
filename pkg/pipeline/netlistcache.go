package pipeline

import (
	"encoding/json"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
)

// netlistRecord is the cache form of a parsed netlist. Elements are
// recorded in creation order so a rebuilt netlist assigns the same IDs
// as the original parse; candidate ordering depends on gate IDs, so a
// cached parse must be indistinguishable from a fresh one.
type netlistRecord struct {
	Elements []elementRecord `json:"elements"`
	Links    []linkRecord    `json:"links"`
}

type elementRecord struct {
	Kind string `json:"kind"` // "gate" or "net"
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // gate type name, gates only
}

type linkRecord struct {
	Gate string `json:"gate"`
	Pin  string `json:"pin"`
	Net  string `json:"net"`
	Out  bool   `json:"out,omitempty"` // pin drives the net
}

// encodeNetlist serializes a netlist for the parse-stage cache.
func encodeNetlist(nl *netlist.Netlist) ([]byte, error) {
	rec := netlistRecord{
		Elements: make([]elementRecord, 0, nl.GateCount()+nl.NetCount()),
	}

	// Merge gates and nets back into one ID-ordered sequence.
	gates := nl.Gates()
	nets := nl.Nets()
	for len(gates) > 0 || len(nets) > 0 {
		if len(nets) == 0 || (len(gates) > 0 && gates[0].ID() < nets[0].ID()) {
			g := gates[0]
			gates = gates[1:]
			rec.Elements = append(rec.Elements, elementRecord{Kind: "gate", Name: g.Name(), Type: g.Type().Name})
		} else {
			n := nets[0]
			nets = nets[1:]
			rec.Elements = append(rec.Elements, elementRecord{Kind: "net", Name: n.Name()})
		}
	}

	for _, n := range nl.Nets() {
		for _, ep := range n.Sources() {
			rec.Links = append(rec.Links, linkRecord{Gate: ep.Gate.Name(), Pin: ep.Pin, Net: n.Name(), Out: true})
		}
		for _, ep := range n.Destinations() {
			rec.Links = append(rec.Links, linkRecord{Gate: ep.Gate.Name(), Pin: ep.Pin, Net: n.Name()})
		}
	}

	return json.Marshal(rec)
}

// decodeNetlist rebuilds a netlist from its cache form, resolving gate
// types against the live library. Any gap between the record and the
// library marks the entry as stale and the caller re-parses.
func decodeNetlist(data []byte, name string, lib *gatelib.Library) (*netlist.Netlist, error) {
	var rec netlistRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	nl := netlist.New(name)
	for _, el := range rec.Elements {
		var err error
		switch el.Kind {
		case "gate":
			typ, ok := lib.Lookup(el.Type)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidLibrary, "gate type %s not in library", el.Type)
			}
			_, err = nl.AddGate(el.Name, typ)
		case "net":
			_, err = nl.AddNet(el.Name)
		default:
			return nil, errors.New(errors.ErrCodeInternal, "unknown element kind %q", el.Kind)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, l := range rec.Links {
		g, ok := nl.GateByName(l.Gate)
		if !ok {
			return nil, errors.New(errors.ErrCodeGateNotFound, "gate %s", l.Gate)
		}
		n, ok := nl.NetByName(l.Net)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "net %s", l.Net)
		}
		var err error
		if l.Out {
			err = nl.ConnectOutput(g, l.Pin, n)
		} else {
			err = nl.ConnectInput(g, l.Pin, n)
		}
		if err != nil {
			return nil, err
		}
	}

	return nl, nil
}
